// Package cli has the kong command tree of the edgepick binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"go.ntppool.org/common/logger"

	"github.com/edgepick/edgepick/fetch"
	"github.com/edgepick/edgepick/region"
	"github.com/edgepick/edgepick/selector"
	"github.com/edgepick/edgepick/version"
)

// Cmd is the root command
type Cmd struct {
	Select   SelectCmd   `cmd:"" help:"Select the shortlist from a latency report"`
	Classify ClassifyCmd `cmd:"" help:"Show the region of addresses"`
	Stats    StatsCmd    `cmd:"" help:"Show region distribution of a report or shortlist"`
	Fetch    FetchCmd    `cmd:"" help:"Download the endpoint list for the measurement tool"`
	Serve    ServeCmd    `cmd:"" help:"Watch the report and serve the shortlist over HTTP"`
	Version  version.Cmd `cmd:"" help:"Print version and build information"`
}

// LogFlags are shared by all commands that log
type LogFlags struct {
	Debug bool `help:"Enable debug logging" env:"EDGEPICK_DEBUG"`
}

func (f LogFlags) setup(ctx context.Context) context.Context {
	log := logger.Setup()
	if f.Debug {
		debugHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		log = slog.New(debugHandler)
	}
	return logger.NewContext(ctx, log)
}

// SelectionFlags configure the selector. The environment variables match
// the ones the CI workflow has always used.
type SelectionFlags struct {
	PriorityRegions string `name:"priority-regions" default:"US,GB,IN,JP,KR,SG,HK" env:"PRIORITY_REGIONS" help:"Comma separated regions selected first"`
	MaxPerRegion    int    `name:"max-per-region" default:"10" env:"MAX_PER_REGION" help:"Maximum addresses per priority region"`
	MaxTotal        int    `name:"max-total" default:"100" env:"MAX_TOTAL" help:"Maximum addresses in the shortlist"`
}

// Config converts the flags into a validated selector.Config.
func (f SelectionFlags) Config() (selector.Config, error) {
	codes, err := region.ParseCodes(f.PriorityRegions)
	if err != nil {
		return selector.Config{}, err
	}
	cfg := selector.Config{
		PriorityRegions: codes,
		MaxPerRegion:    f.MaxPerRegion,
		MaxTotal:        f.MaxTotal,
	}
	if err := cfg.Validate(); err != nil {
		return selector.Config{}, err
	}
	return cfg, nil
}

// ExitError carries a specific process exit status.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func (e *ExitError) ExitCode() int {
	return e.Code
}

// missingReport turns a missing input file into exit status 2.
func missingReport(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return &ExitError{Code: 2, Err: fmt.Errorf("report not found: %w", err)}
	}
	return err
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

// Vars are the interpolation variables the command tags refer to.
func Vars() kong.Vars {
	return kong.Vars{
		"fetch_url": fetch.DefaultURL,
	}
}
