package cli

import (
	"context"
	"time"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/metricsserver"
	"golang.org/x/sync/errgroup"

	"github.com/edgepick/edgepick/server"
	"github.com/edgepick/edgepick/version"
)

type ServeCmd struct {
	LogFlags
	SelectionFlags

	Input       []string      `short:"i" default:"result.csv" env:"RESULT_CSV" help:"Latency report(s) to watch"`
	Output      string        `short:"o" env:"BEST_IP_TXT" help:"Also rewrite this shortlist file on every reload"`
	Listen      string        `default:":8080" env:"EDGEPICK_LISTEN" help:"HTTP API listen address"`
	MetricsPort int           `name:"metrics-port" default:"9000" env:"EDGEPICK_METRICS_PORT" help:"Prometheus metrics port, 0 to disable"`
	Debounce    time.Duration `default:"500ms" help:"Wait this long after a report change before reloading"`
}

func (cmd *ServeCmd) Run(ctx context.Context) error {
	ctx = cmd.LogFlags.setup(ctx)
	log := logger.FromContext(ctx)

	selCfg, err := cmd.SelectionFlags.Config()
	if err != nil {
		return err
	}

	shutdown, err := initTracing(ctx)
	if err != nil {
		return err
	}
	defer shutdown(ctx)

	metricssrv := metricsserver.New()
	version.RegisterMetric(metricssrv.Registry())

	srv, err := server.New(ctx, server.Config{
		Inputs:    cmd.Input,
		Output:    cmd.Output,
		Selection: selCfg,
		Listen:    cmd.Listen,
		Debounce:  cmd.Debounce,
	}, metricssrv.Registry())
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if cmd.MetricsPort > 0 {
		g.Go(func() error {
			return metricssrv.ListenAndServe(ctx, cmd.MetricsPort)
		})
	}

	g.Go(func() error {
		return srv.Run(ctx)
	})

	err = g.Wait()
	log.InfoContext(ctx, "shutting down", "err", err)
	return err
}
