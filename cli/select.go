package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.ntppool.org/common/logger"

	"github.com/edgepick/edgepick/region"
	"github.com/edgepick/edgepick/selector"
	"github.com/edgepick/edgepick/shortlist"
	"github.com/edgepick/edgepick/ulid"
	"github.com/edgepick/edgepick/version"
)

type SelectCmd struct {
	LogFlags
	SelectionFlags

	Input       []string `short:"i" default:"result.csv" env:"RESULT_CSV" help:"Latency report(s) written by the measurement tool"`
	Output      string   `short:"o" default:"best_ip.txt" env:"BEST_IP_TXT" help:"Shortlist file, - for stdout"`
	MetricsFile string   `name:"metrics-file" help:"Write prometheus metrics to this textfile"`

	out io.Writer `kong:"-"`
}

type selectSummary struct {
	RunID           string         `json:"run_id"`
	PriorityRegions []region.Code  `json:"priority_regions"`
	MaxPerRegion    int            `json:"max_per_region"`
	MaxTotal        int            `json:"max_total"`
	Count           int            `json:"count"`
	Passes          map[string]int `json:"passes"`
	Records         int            `json:"records"`
	Malformed       int            `json:"malformed"`
	BestIPTxt       string         `json:"best_ip_txt"`
	ResultCSV       []string       `json:"result_csv"`
}

func (cmd *SelectCmd) Run(ctx context.Context) error {
	ctx = cmd.LogFlags.setup(ctx)
	log := logger.FromContext(ctx)

	cfg, err := cmd.SelectionFlags.Config()
	if err != nil {
		return err
	}

	shutdown, err := initTracing(ctx)
	if err != nil {
		return err
	}
	defer shutdown(ctx)

	var (
		reg     *prometheus.Registry
		metrics *selector.Metrics
	)
	if cmd.MetricsFile != "" {
		reg = prometheus.NewRegistry()
		version.RegisterMetric(reg)
		metrics = selector.NewMetrics(reg)
	}

	rep, res, err := selector.Run(ctx, cfg, metrics, cmd.Input...)
	if err != nil {
		return missingReport(err)
	}
	addrs := res.Addresses()

	out := stdout(cmd.out)
	summaryOut := out

	if cmd.Output == "-" {
		if err := shortlist.Write(out, addrs); err != nil {
			return err
		}
		summaryOut = os.Stderr
	} else {
		if err := shortlist.WriteFile(cmd.Output, addrs); err != nil {
			return fmt.Errorf("writing %s: %w", cmd.Output, err)
		}
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(cmd.MetricsFile, reg); err != nil {
			return fmt.Errorf("writing metrics %s: %w", cmd.MetricsFile, err)
		}
	}

	id, err := ulid.MakeULID(time.Now())
	if err != nil {
		return err
	}

	passes := map[string]int{}
	for p, n := range res.PassCounts() {
		passes[p.String()] = n
	}

	log.InfoContext(ctx, "shortlist written",
		"run_id", id.String(),
		"output", cmd.Output,
		"count", len(addrs),
		"records", rep.Len())

	return json.NewEncoder(summaryOut).Encode(selectSummary{
		RunID:           id.String(),
		PriorityRegions: cfg.PriorityRegions,
		MaxPerRegion:    cfg.MaxPerRegion,
		MaxTotal:        cfg.MaxTotal,
		Count:           len(addrs),
		Passes:          passes,
		Records:         rep.Len(),
		Malformed:       rep.Malformed,
		BestIPTxt:       cmd.Output,
		ResultCSV:       cmd.Input,
	})
}
