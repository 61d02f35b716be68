package cli

import (
	"context"

	"go.ntppool.org/common/logger"

	"github.com/edgepick/edgepick/fetch"
)

type FetchCmd struct {
	LogFlags

	URL       string `default:"${fetch_url}" env:"IP_TXT_URL" help:"Endpoint list URL"`
	Dst       string `default:"ip.txt" help:"Destination file"`
	IPVersion string `name:"ip-version" default:"any" enum:"any,4,6" help:"Address family used to connect (any, 4 or 6)"`
	Force     bool   `help:"Download even if the file already exists"`
	MaxTries  uint   `name:"max-tries" default:"5" help:"Download attempts before giving up"`
}

func (cmd *FetchCmd) Run(ctx context.Context) error {
	ctx = cmd.LogFlags.setup(ctx)
	log := logger.FromContext(ctx)

	ipVersion, err := fetch.ParseIPVersion(cmd.IPVersion)
	if err != nil {
		return err
	}
	ctx = fetch.NewIPVersionContext(ctx, ipVersion)

	shutdown, err := initTracing(ctx)
	if err != nil {
		return err
	}
	defer shutdown(ctx)

	client := fetch.NewClient()
	opts := fetch.Options{MaxTries: cmd.MaxTries}

	if cmd.Force {
		return fetch.Download(ctx, client, cmd.URL, cmd.Dst, opts)
	}

	downloaded, err := fetch.EnsureFile(ctx, client, cmd.URL, cmd.Dst, opts)
	if err != nil {
		return err
	}
	if !downloaded {
		log.InfoContext(ctx, "endpoint list already present", "dst", cmd.Dst)
	}
	return nil
}
