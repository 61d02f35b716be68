// Package server keeps a shortlist up to date while the measurement tool
// rewrites its report, and publishes it over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.ntppool.org/common/logger"
	"golang.org/x/sync/errgroup"

	"github.com/edgepick/edgepick/report"
	"github.com/edgepick/edgepick/selector"
	"github.com/edgepick/edgepick/shortlist"
	"github.com/edgepick/edgepick/ulid"
)

// Config for the serve mode
type Config struct {
	Inputs    []string // report files to watch
	Output    string   // optional shortlist file rewritten on every reload
	Selection selector.Config
	Listen    string

	// Debounce delays reloads after a report change; defaults to 500ms.
	Debounce time.Duration
}

// Snapshot is one completed selection
type Snapshot struct {
	RunID     string
	Generated time.Time
	Config    selector.Config
	Report    *report.Report
	Result    selector.Result
}

type Server struct {
	cfg     Config
	log     *slog.Logger
	metrics *selector.Metrics
	echo    *echo.Echo

	mu      sync.RWMutex
	current *Snapshot
}

// New sets up the server. reg may be nil to skip metrics.
func New(ctx context.Context, cfg Config, reg prometheus.Registerer) (*Server, error) {
	if len(cfg.Inputs) == 0 {
		return nil, errors.New("no report files configured")
	}
	if err := cfg.Selection.Validate(); err != nil {
		return nil, err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	srv := &Server{
		cfg: cfg,
		log: logger.FromContext(ctx).WithGroup("server"),
	}
	if reg != nil {
		srv.metrics = selector.NewMetrics(reg)
	}
	srv.echo = srv.setupEcho()

	return srv, nil
}

// Current returns the latest snapshot, or nil before the first
// successful reload.
func (srv *Server) Current() *Snapshot {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return srv.current
}

// Reload reads the reports and replaces the current selection. On error
// the previous selection is kept.
func (srv *Server) Reload(ctx context.Context) error {
	rep, res, err := selector.Run(ctx, srv.cfg.Selection, srv.metrics, srv.cfg.Inputs...)
	if err != nil {
		return err
	}

	now := time.Now()
	id, err := ulid.MakeULID(now)
	if err != nil {
		return err
	}

	if srv.cfg.Output != "" {
		if err := shortlist.WriteFile(srv.cfg.Output, res.Addresses()); err != nil {
			return fmt.Errorf("writing %s: %w", srv.cfg.Output, err)
		}
	}

	snap := &Snapshot{
		RunID:     id.String(),
		Generated: now,
		Config:    srv.cfg.Selection,
		Report:    rep,
		Result:    res,
	}

	srv.mu.Lock()
	srv.current = snap
	srv.mu.Unlock()

	srv.log.InfoContext(ctx, "selection updated",
		"run_id", snap.RunID,
		"records", rep.Len(),
		"selected", len(res.Picks))

	return nil
}

// Handler returns the HTTP API.
func (srv *Server) Handler() http.Handler {
	return srv.echo
}

// Run loads the first selection, then serves HTTP and watches the
// reports until ctx is cancelled.
func (srv *Server) Run(ctx context.Context) error {
	if err := srv.Reload(ctx); err != nil {
		// the report might not exist yet; the watcher picks it up
		srv.log.WarnContext(ctx, "initial selection failed", "err", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.watch(ctx)
	})

	g.Go(func() error {
		srv.log.InfoContext(ctx, "starting http server", "listen", srv.cfg.Listen)
		err := srv.echo.Start(srv.cfg.Listen)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.echo.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
