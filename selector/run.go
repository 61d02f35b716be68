package selector

import (
	"context"
	"time"

	"go.ntppool.org/common/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/edgepick/edgepick/report"
)

// Run loads the reports at paths, selects from the merged records and
// records the run in m (which may be nil).
func Run(ctx context.Context, cfg Config, m *Metrics, paths ...string) (*report.Report, Result, error) {
	log := logger.FromContext(ctx)

	ctx, span := otel.Tracer("selector").Start(ctx, "Run")
	defer span.End()

	start := time.Now()

	rep, err := report.LoadFiles(ctx, paths...)
	if err != nil {
		span.RecordError(err)
		return nil, Result{}, err
	}

	res := SelectDetailed(rep.Records, cfg)
	duration := time.Since(start)

	m.Observe(rep, res, duration)

	span.SetAttributes(
		attribute.Int("records", rep.Len()),
		attribute.Int("selected", len(res.Picks)),
	)

	log.DebugContext(ctx, "selection done",
		"records", rep.Len(),
		"malformed", rep.Malformed,
		"skipped", rep.Skipped,
		"selected", len(res.Picks),
		"duration", duration)

	if len(res.Picks) < cfg.MaxTotal && len(res.Picks) < rep.Len() {
		log.WarnContext(ctx, "report contains duplicate addresses",
			"selected", len(res.Picks), "records", rep.Len(), "max_total", cfg.MaxTotal)
	}

	return rep, res, nil
}
