package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MakeNowJust/heredoc"

	"github.com/edgepick/edgepick/region"
	"github.com/edgepick/edgepick/report"
	"github.com/edgepick/edgepick/selector"
	"github.com/edgepick/edgepick/shortlist"
)

type StatsCmd struct {
	LogFlags

	Input     []string `short:"i" default:"result.csv" env:"RESULT_CSV" help:"Latency report(s) written by the measurement tool"`
	Shortlist string   `short:"s" help:"Also show where the addresses of this shortlist rank"`

	out io.Writer `kong:"-"`
}

func (cmd *StatsCmd) Run(ctx context.Context) error {
	ctx = cmd.LogFlags.setup(ctx)
	out := stdout(cmd.out)

	rep, err := report.LoadFiles(ctx, cmd.Input...)
	if err != nil {
		return missingReport(err)
	}

	fmt.Fprint(out, heredoc.Docf(`
		Report: %d records, %d malformed latencies, %d skipped rows

		Records per region:
		`, rep.Len(), rep.Malformed, rep.Skipped))
	if err := writeDistribution(out, selector.Distribution(rep.Records)); err != nil {
		return err
	}

	fmt.Fprint(out, "\nFastest address per region:\n")
	if err := writePositions(out, selector.FirstPositions(rep.Records)); err != nil {
		return err
	}

	if cmd.Shortlist == "" {
		return nil
	}

	addrs, err := shortlist.ReadFile(cmd.Shortlist)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nShortlist %s: %d addresses\n", cmd.Shortlist, len(addrs))
	if err := writeDistribution(out, selector.ShortlistDistribution(addrs)); err != nil {
		return err
	}
	fmt.Fprint(out, "\nShortlist ranks:\n")
	return writePositions(out, selector.Positions(rep.Records, addrs))
}

func writeDistribution(w io.Writer, counts map[region.Code]int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range region.Codes() {
		if n := counts[c]; n > 0 {
			fmt.Fprintf(tw, "  %s\t%d\n", c, n)
		}
	}
	return tw.Flush()
}

func writePositions(w io.Writer, positions []selector.Position) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range positions {
		if p.Rank < 0 {
			fmt.Fprintf(tw, "  %s\t%s\tnot in report\t\n", p.Address, p.Region)
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\t#%d\t%.2fms\n", p.Address, p.Region, p.Rank+1, p.Latency)
	}
	return tw.Flush()
}
