package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/romstash/app"
	actx "go.hackfix.me/romstash/app/context"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := app.New(
		app.WithContext(ctx),
		app.WithExit(os.Exit),
		app.WithFS(osfs.New()),
		app.WithEnv(osEnv{}),
		app.WithFDs(os.Stdin, colorable.NewColorableStdout(), colorable.NewColorableStderr()),
		app.WithLogger(
			isatty.IsTerminal(os.Stdout.Fd()), isatty.IsTerminal(os.Stderr.Fd()),
		),
	)

	err := a.Run(os.Args[1:])
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	a.FatalIfErrorf(err)
}

type osEnv struct{}

var _ actx.Environment = &osEnv{}

func (e osEnv) Get(key string) string {
	return os.Getenv(key)
}

func (e osEnv) Set(key, val string) error {
	return os.Setenv(key, val)
}
