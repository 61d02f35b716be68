package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/edgepick/edgepick/region"
	"github.com/edgepick/edgepick/selector"
	"github.com/edgepick/edgepick/shortlist"
)

type configJSON struct {
	PriorityRegions []region.Code `json:"priority_regions"`
	MaxPerRegion    int           `json:"max_per_region"`
	MaxTotal        int           `json:"max_total"`
}

type pickJSON struct {
	Address string        `json:"address"`
	Latency float64       `json:"latency_ms"`
	Region  region.Code   `json:"region"`
	Pass    selector.Pass `json:"pass"`
}

type regionCountJSON struct {
	Region region.Code `json:"region"`
	Count  int         `json:"count"`
}

type selectionJSON struct {
	RunID        string            `json:"run_id"`
	Generated    time.Time         `json:"generated"`
	Config       configJSON        `json:"config"`
	Records      int               `json:"records"`
	Malformed    int               `json:"malformed"`
	Picks        []pickJSON        `json:"picks"`
	RegionCounts []regionCountJSON `json:"region_counts"`
}

func (srv *Server) setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(otelecho.Middleware("edgepick"))
	e.Use(slogecho.New(srv.log))

	e.GET("/healthz", srv.healthz)
	e.GET("/best.txt", srv.bestList)
	e.GET("/api/v1/selection", srv.selection)

	return e
}

func (srv *Server) healthz(c echo.Context) error {
	if srv.Current() == nil {
		return c.String(http.StatusServiceUnavailable, "no selection yet\n")
	}
	return c.String(http.StatusOK, "ok\n")
}

func (srv *Server) bestList(c echo.Context) error {
	snap := srv.Current()
	if snap == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no selection yet")
	}
	c.Response().Header().Set("X-Run-Id", snap.RunID)
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, shortlist.Format(snap.Result.Addresses()))
}

func (srv *Server) selection(c echo.Context) error {
	snap := srv.Current()
	if snap == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no selection yet")
	}

	r := selectionJSON{
		RunID:     snap.RunID,
		Generated: snap.Generated,
		Config: configJSON{
			PriorityRegions: snap.Config.PriorityRegions,
			MaxPerRegion:    snap.Config.MaxPerRegion,
			MaxTotal:        snap.Config.MaxTotal,
		},
		Records:      snap.Report.Len(),
		Picks:        []pickJSON{},
		RegionCounts: []regionCountJSON{},
	}
	if snap.Report != nil {
		r.Malformed = snap.Report.Malformed
	}
	for _, p := range snap.Result.Picks {
		r.Picks = append(r.Picks, pickJSON{
			Address: p.Address,
			Latency: p.Latency,
			Region:  p.Region,
			Pass:    p.Pass,
		})
	}
	for _, rc := range snap.Result.RegionCounts {
		r.RegionCounts = append(r.RegionCounts, regionCountJSON{Region: rc.Region, Count: rc.Count})
	}

	return c.JSON(http.StatusOK, r)
}
