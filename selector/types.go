package selector

import (
	"errors"
	"fmt"

	"github.com/edgepick/edgepick/region"
	"github.com/edgepick/edgepick/report"
)

const (
	DefaultMaxPerRegion = 10
	DefaultMaxTotal     = 100
)

// Pass identifies which walk over the records selected an address
type Pass uint8

const (
	PassPriority Pass = iota + 1 // capped walk over priority regions
	PassBackfill                 // non-priority regions
	PassTopUp                    // anything left, no caps
)

var passNames = map[Pass]string{
	PassPriority: "priority",
	PassBackfill: "backfill",
	PassTopUp:    "topup",
}

func (p Pass) String() string {
	if s, ok := passNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Pass(%d)", uint8(p))
}

func (p Pass) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pass) UnmarshalText(b []byte) error {
	for k, name := range passNames {
		if name == string(b) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown selection pass %q", b)
}

// Passes lists the passes in execution order.
func Passes() []Pass {
	return []Pass{PassPriority, PassBackfill, PassTopUp}
}

var ErrInvalidConfig = errors.New("invalid selection config")

// Config holds the selection limits
type Config struct {
	// PriorityRegions are eligible for the capped first pass. The order
	// is only used for reporting.
	PriorityRegions []region.Code

	MaxPerRegion int
	MaxTotal     int
}

// DefaultConfig returns the default priority list and limits.
func DefaultConfig() Config {
	codes, _ := region.ParseCodes(region.DefaultPriority)
	return Config{
		PriorityRegions: codes,
		MaxPerRegion:    DefaultMaxPerRegion,
		MaxTotal:        DefaultMaxTotal,
	}
}

// Validate checks the limits. Select itself tolerates invalid values.
func (cfg Config) Validate() error {
	if cfg.MaxPerRegion < 0 {
		return fmt.Errorf("%w: max per region %d < 0", ErrInvalidConfig, cfg.MaxPerRegion)
	}
	if cfg.MaxTotal < 0 {
		return fmt.Errorf("%w: max total %d < 0", ErrInvalidConfig, cfg.MaxTotal)
	}
	for _, c := range cfg.PriorityRegions {
		if !c.Valid() {
			return fmt.Errorf("%w: %w %q", ErrInvalidConfig, region.ErrUnknownCode, c)
		}
	}
	return nil
}

func (cfg Config) isPriority(c region.Code) bool {
	for _, p := range cfg.PriorityRegions {
		if p == c {
			return true
		}
	}
	return false
}

// Pick is a selected record and the pass that selected it
type Pick struct {
	report.Record
	Pass Pass
}

// RegionCount is the number of picks from one region
type RegionCount struct {
	Region region.Code
	Count  int
}

// Result is the detailed outcome of a selection
type Result struct {
	Picks []Pick

	// RegionCounts has the priority regions first, in configured order,
	// then the remaining codes. Regions without picks are included.
	RegionCounts []RegionCount
}

// Addresses returns the selected addresses in order.
func (r Result) Addresses() []string {
	addrs := make([]string, 0, len(r.Picks))
	for _, p := range r.Picks {
		addrs = append(addrs, p.Address)
	}
	return addrs
}

// PassCounts returns how many addresses each pass contributed.
func (r Result) PassCounts() map[Pass]int {
	counts := map[Pass]int{}
	for _, p := range r.Picks {
		counts[p.Pass]++
	}
	return counts
}
