package region

import (
	"fmt"
	"net/netip"

	"go4.org/netipx"
)

// Rule assigns every address with first octet First and second octet in
// [Low, High] to Region.
type Rule struct {
	First  int
	Low    int
	High   int
	Region Code
}

// Order matters only for reproducing boundaries; the ranges don't overlap.
var rules = []Rule{
	{104, 16, 31, US},
	{172, 64, 71, US},
	{162, 158, 159, US},
	{198, 41, 41, US},
	{108, 162, 162, US},
	{173, 245, 245, US},
	{188, 114, 114, US},

	{141, 101, 101, GB},
	{103, 21, 21, JP},
	{103, 22, 22, KR},
	{103, 31, 31, SG},
	{190, 93, 93, HK},
	{197, 234, 234, IN},
}

// Rules returns a copy of the classification table in match order.
func Rules() []Rule {
	r := make([]Rule, len(rules))
	copy(r, rules)
	return r
}

func (r Rule) matches(o1, o2 int) bool {
	return o1 == r.First && o2 >= r.Low && o2 <= r.High
}

// Range is the address span covered by the rule, from First.Low.0.0 to
// First.High.255.255.
func (r Rule) Range() netipx.IPRange {
	from := netip.AddrFrom4([4]byte{byte(r.First), byte(r.Low), 0, 0})
	to := netip.AddrFrom4([4]byte{byte(r.First), byte(r.High), 255, 255})
	return netipx.IPRangeFrom(from, to)
}

// Prefixes returns the CIDR blocks covering Range.
func (r Rule) Prefixes() []netip.Prefix {
	return r.Range().Prefixes()
}

func (r Rule) String() string {
	if r.Low == r.High {
		return fmt.Sprintf("%d.%d.x.x (%s)", r.First, r.Low, r.Region)
	}
	return fmt.Sprintf("%d.%d-%d.x.x (%s)", r.First, r.Low, r.High, r.Region)
}
