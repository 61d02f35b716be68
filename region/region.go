// Package region maps IPv4 addresses from the Cloudflare anycast ranges
// to a coarse geographic region code.
//
// Classification only looks at the first two octets of a dotted-quad
// address and never fails: anything that can't be parsed or doesn't
// match a known range is reported as Other.
package region

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Code is a region label. The set of codes is closed, see Codes().
type Code string

const (
	US    Code = "US"
	GB    Code = "GB"
	JP    Code = "JP"
	KR    Code = "KR"
	SG    Code = "SG"
	HK    Code = "HK"
	IN    Code = "IN"
	Other Code = "Other"
)

// DefaultPriority is the priority list used when none is configured.
const DefaultPriority = "US,GB,IN,JP,KR,SG,HK"

var ErrUnknownCode = errors.New("unknown region code")

var allCodes = []Code{US, GB, JP, KR, SG, HK, IN, Other}

// Codes returns every region code, Other last.
func Codes() []Code {
	c := make([]Code, len(allCodes))
	copy(c, allCodes)
	return c
}

func (c Code) String() string {
	return string(c)
}

// Valid reports if c is one of the known codes.
func (c Code) Valid() bool {
	for _, k := range allCodes {
		if k == c {
			return true
		}
	}
	return false
}

// ParseCode parses a single region code, ignoring case and surrounding
// whitespace.
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(s)
	for _, k := range allCodes {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCode, s)
}

// ParseCodes parses a comma separated list like "US,GB,JP". Empty items
// are skipped; the order of the input is kept.
func ParseCodes(s string) ([]Code, error) {
	var codes []Code
	for _, item := range strings.Split(s, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		c, err := ParseCode(item)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, nil
}

// Classify returns the region for a dotted-quad address.
func Classify(addr string) Code {
	rule, ok := Lookup(addr)
	if !ok {
		return Other
	}
	return rule.Region
}

// Lookup returns the first rule matching addr.
func Lookup(addr string) (Rule, bool) {
	o1, o2, ok := leadingOctets(addr)
	if !ok {
		return Rule{}, false
	}
	for _, r := range rules {
		if r.matches(o1, o2) {
			return r, true
		}
	}
	return Rule{}, false
}

// leadingOctets parses the first two dot separated fields as base-10
// integers. Values outside 0-255 are returned as-is; they just won't
// match any rule.
func leadingOctets(addr string) (int, int, bool) {
	parts := strings.SplitN(addr, ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	o1, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	o2, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return o1, o2, true
}
