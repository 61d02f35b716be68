package rootcmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.ntppool.org/common/logger"
)

type exitCoder interface {
	ExitCode() int
}

func Run(cmd any, name, description string, options ...kong.Option) {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	options = append([]kong.Option{
		kong.Name(name),
		kong.Description(description),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.ConfigureHelp(kong.HelpOptions{
			Tree: true,
		}),
		kong.UsageOnError(),
	}, options...)

	parser, err := kong.New(cmd, options...)
	if err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.FatalIfErrorf(err)
	}

	err = kctx.Run()

	var ec exitCoder
	if errors.As(err, &ec) {
		logger.Setup().Error(name+" failed", "err", err)
		cancel()
		os.Exit(ec.ExitCode())
	}
	parser.FatalIfErrorf(err)
}
