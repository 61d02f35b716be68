package selector

import (
	"github.com/edgepick/edgepick/region"
	"github.com/edgepick/edgepick/report"
)

// Position is where an address sits in the latency sorted report.
// Rank 0 is the fastest record; Rank is -1 if the address isn't in the
// report.
type Position struct {
	Address string
	Rank    int
	Latency float64
	Region  region.Code
}

// Distribution counts records per region.
func Distribution(records []report.Record) map[region.Code]int {
	counts := map[region.Code]int{}
	for _, rec := range records {
		counts[rec.Region]++
	}
	return counts
}

// ShortlistDistribution classifies and counts a list of addresses.
func ShortlistDistribution(addrs []string) map[region.Code]int {
	counts := map[region.Code]int{}
	for _, a := range addrs {
		counts[region.Classify(a)]++
	}
	return counts
}

// FirstPositions returns the fastest record of every region present in
// records, in region code order.
func FirstPositions(records []report.Record) []Position {
	first := map[region.Code]Position{}
	for i, rec := range records {
		if _, ok := first[rec.Region]; ok {
			continue
		}
		first[rec.Region] = Position{
			Address: rec.Address,
			Rank:    i,
			Latency: rec.Latency,
			Region:  rec.Region,
		}
	}

	var r []Position
	for _, c := range region.Codes() {
		if p, ok := first[c]; ok {
			r = append(r, p)
		}
	}
	return r
}

// Positions looks up each address of a shortlist in records.
func Positions(records []report.Record, addrs []string) []Position {
	index := make(map[string]int, len(records))
	for i, rec := range records {
		if _, ok := index[rec.Address]; !ok {
			index[rec.Address] = i
		}
	}

	r := make([]Position, 0, len(addrs))
	for _, a := range addrs {
		i, ok := index[a]
		if !ok {
			r = append(r, Position{Address: a, Rank: -1, Region: region.Classify(a)})
			continue
		}
		rec := records[i]
		r = append(r, Position{
			Address: a,
			Rank:    i,
			Latency: rec.Latency,
			Region:  rec.Region,
		})
	}
	return r
}
