package selector

import (
	"slices"

	"github.com/edgepick/edgepick/region"
	"github.com/edgepick/edgepick/report"
)

// Select returns the shortlisted addresses. records must already be
// sorted by ascending latency.
func Select(records []report.Record, cfg Config) []string {
	return SelectDetailed(records, cfg).Addresses()
}

// SelectDetailed runs the selection and keeps the per-pick details.
func SelectDetailed(records []report.Record, cfg Config) Result {
	s := newSelection(cfg.MaxTotal)

	if s.limit > 0 && len(records) > 0 {
		s.priorityPass(records, cfg)
		s.backfillPass(records, cfg)
		s.topUpPass(records)
	}

	return Result{
		Picks:        s.picks,
		RegionCounts: regionCounts(s.picks, cfg.PriorityRegions),
	}
}

// selection accumulates picks for a single Select call
type selection struct {
	limit    int
	picks    []Pick
	selected map[string]struct{}
}

func newSelection(limit int) *selection {
	if limit < 0 {
		limit = 0
	}
	return &selection{
		limit:    limit,
		selected: make(map[string]struct{}),
	}
}

func (s *selection) full() bool {
	return len(s.picks) >= s.limit
}

func (s *selection) has(addr string) bool {
	_, ok := s.selected[addr]
	return ok
}

func (s *selection) add(rec report.Record, pass Pass) {
	s.picks = append(s.picks, Pick{Record: rec, Pass: pass})
	s.selected[rec.Address] = struct{}{}
}

func (s *selection) priorityPass(records []report.Record, cfg Config) {
	counts := make(map[region.Code]int, len(cfg.PriorityRegions))

	for _, rec := range records {
		if s.full() {
			return
		}
		if !cfg.isPriority(rec.Region) || counts[rec.Region] >= cfg.MaxPerRegion {
			continue
		}
		if s.has(rec.Address) {
			continue
		}
		s.add(rec, PassPriority)
		counts[rec.Region]++
	}
}

func (s *selection) backfillPass(records []report.Record, cfg Config) {
	for _, rec := range records {
		if s.full() {
			return
		}
		if cfg.isPriority(rec.Region) || s.has(rec.Address) {
			continue
		}
		s.add(rec, PassBackfill)
	}
}

func (s *selection) topUpPass(records []report.Record) {
	for _, rec := range records {
		if s.full() {
			return
		}
		if s.has(rec.Address) {
			continue
		}
		s.add(rec, PassTopUp)
	}
}

func regionCounts(picks []Pick, priority []region.Code) []RegionCount {
	counts := map[region.Code]int{}
	for _, p := range picks {
		counts[p.Region]++
	}

	var r []RegionCount
	seen := map[region.Code]bool{}
	for _, c := range slices.Concat(priority, region.Codes()) {
		if seen[c] {
			continue
		}
		seen[c] = true
		r = append(r, RegionCount{Region: c, Count: counts[c]})
	}
	return r
}
