package selector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edgepick/edgepick/region"
	"github.com/edgepick/edgepick/report"
)

// Metrics contains all prometheus metrics for a selection run
type Metrics struct {
	// Selection output
	SelectedAddresses *prometheus.GaugeVec

	// Report input
	ReportRecords   *prometheus.GaugeVec
	MalformedRows   prometheus.Gauge
	SkippedRows     prometheus.Gauge
	LastSelectionTS prometheus.Gauge

	// Selection runs
	Runs     prometheus.Counter
	Duration prometheus.Histogram
}

// NewMetrics creates and registers all selector metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SelectedAddresses: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edgepick_selected_addresses",
				Help: "Number of shortlisted addresses by region and selection pass",
			},
			[]string{"region", "pass"},
		),

		ReportRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edgepick_report_records",
				Help: "Number of records in the latency report by region",
			},
			[]string{"region"},
		),

		MalformedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edgepick_report_malformed_rows",
			Help: "Report rows kept with the sentinel latency",
		}),

		SkippedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edgepick_report_skipped_rows",
			Help: "Report rows skipped for lack of an address",
		}),

		LastSelectionTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edgepick_last_selection_timestamp_seconds",
			Help: "Unix time of the last completed selection",
		}),

		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edgepick_selection_runs_total",
			Help: "Total number of selection runs",
		}),

		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgepick_selection_duration_seconds",
			Help:    "Time spent loading the report and selecting addresses",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.SelectedAddresses,
		m.ReportRecords,
		m.MalformedRows,
		m.SkippedRows,
		m.LastSelectionTS,
		m.Runs,
		m.Duration,
	)

	return m
}

// Observe records the outcome of one run. Calling it on a nil Metrics
// does nothing.
func (m *Metrics) Observe(rep *report.Report, res Result, duration time.Duration) {
	if m == nil {
		return
	}

	m.Runs.Inc()
	m.Duration.Observe(duration.Seconds())
	m.LastSelectionTS.SetToCurrentTime()

	byPass := map[Pass]map[region.Code]int{}
	for _, p := range Passes() {
		byPass[p] = map[region.Code]int{}
	}
	for _, p := range res.Picks {
		byPass[p.Pass][p.Region]++
	}

	var records map[region.Code]int
	if rep != nil {
		records = Distribution(rep.Records)
		m.MalformedRows.Set(float64(rep.Malformed))
		m.SkippedRows.Set(float64(rep.Skipped))
	}

	// set every label combination so stale values from a previous run
	// are overwritten with zero
	for _, c := range region.Codes() {
		m.ReportRecords.WithLabelValues(c.String()).Set(float64(records[c]))
		for _, p := range Passes() {
			m.SelectedAddresses.WithLabelValues(c.String(), p.String()).Set(float64(byPass[p][c]))
		}
	}
}
