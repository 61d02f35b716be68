package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/edgepick/edgepick/region"
)

type ClassifyCmd struct {
	Addresses []string `arg:"" help:"IPv4 addresses to classify"`

	out io.Writer `kong:"-"`
}

func (cmd *ClassifyCmd) Run(ctx context.Context) error {
	tw := tabwriter.NewWriter(stdout(cmd.out), 0, 4, 2, ' ', 0)
	for _, addr := range cmd.Addresses {
		rule, ok := region.Lookup(addr)
		if !ok {
			fmt.Fprintf(tw, "%s\t%s\t-\n", addr, region.Other)
			continue
		}
		prefixes := []string{}
		for _, p := range rule.Prefixes() {
			prefixes = append(prefixes, p.String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", addr, rule.Region, strings.Join(prefixes, ","))
	}
	return tw.Flush()
}
