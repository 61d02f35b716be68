package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// VERSION has the current software version (set in the build process)
var VERSION string
var buildTime string
var gitVersion string

func init() {
	if len(gitVersion) > 0 {
		VERSION = VERSION + "/" + gitVersion
	}
	if len(VERSION) == 0 {
		VERSION = "dev-snapshot"
	}
}

// Cmd is the kong "version" command
type Cmd struct{}

func (cmd *Cmd) Run() error {
	fmt.Printf("edgepick %s\n", Version())
	return nil
}

var v string

func Version() string {
	if len(v) > 0 {
		return v
	}
	extra := []string{}
	if len(buildTime) > 0 {
		extra = append(extra, buildTime)
	}
	extra = append(extra, runtime.Version())
	v = fmt.Sprintf("%s (%s)", VERSION, strings.Join(extra, ", "))
	return v
}

// RegisterMetric adds an edgepick_build_info gauge to reg.
func RegisterMetric(reg prometheus.Registerer) {
	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "edgepick_build_info",
		Help: "Build information",
		ConstLabels: prometheus.Labels{
			"version":   VERSION,
			"buildtime": buildTime,
			"goversion": runtime.Version(),
		},
	})
	info.Set(1)
	reg.MustRegister(info)
}

func init() {
	Version()
}
