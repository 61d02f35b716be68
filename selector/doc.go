// Package selector picks a bounded, region balanced shortlist of
// addresses from a latency sorted report.
//
// # Selection Algorithm
//
// The records are walked up to three times, always in latency order,
// and every walk stops as soon as the shortlist holds MaxTotal entries:
//   - Priority: addresses from a priority region, at most MaxPerRegion
//     per region
//   - Backfill: addresses from regions that are not in the priority list
//   - Top-up: any address not yet selected, ignoring regions and caps
//
// The result is the priority segment followed by the backfill segment
// followed by the top-up segment. A fast address from a non-priority
// region therefore always sorts after every address taken in the
// priority pass.
//
// Priority addresses skipped because their region was full are not
// reconsidered by the backfill pass, only by the top-up pass.
//
// # Usage
//
//	rep, err := report.LoadFile("result.csv")
//	if err != nil {
//	    return err
//	}
//	addrs := selector.Select(rep.Records, selector.Config{
//	    PriorityRegions: []region.Code{region.US, region.JP},
//	    MaxPerRegion:    10,
//	    MaxTotal:        100,
//	})
package selector
