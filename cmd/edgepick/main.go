package main

import (
	"github.com/MakeNowJust/heredoc"

	"github.com/edgepick/edgepick/cli"
	rootcmd "github.com/edgepick/edgepick/cmd"
)

func main() {
	rootcmd.Run(&cli.Cmd{}, "edgepick",
		heredoc.Doc(`
			Pick a regionally balanced shortlist of edge addresses from
			a CloudflareSpeedTest latency report.
		`),
		cli.Vars(),
	)
}
