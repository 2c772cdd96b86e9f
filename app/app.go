package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"

	"go.hackfix.me/romstash/app/cli"
	actx "go.hackfix.me/romstash/app/context"
	aerrors "go.hackfix.me/romstash/app/errors"
	"go.hackfix.me/romstash/asset"
	"go.hackfix.me/romstash/attach"
	"go.hackfix.me/romstash/emulator"
	"go.hackfix.me/romstash/store/deferred"
)

// version is set at build time.
var version = "0.0.0-dev"

// App is the application.
type App struct {
	ctx *actx.Context

	Exit func(int)
}

// New initializes a new application.
func New(opts ...Option) *App {
	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		Version: version,
		Logger:  slog.Default(),
	}
	app := &App{ctx: defaultCtx, Exit: func(int) {}}

	for _, opt := range opts {
		opt(app)
	}

	if app.ctx.Core == nil {
		app.ctx.Core = emulator.New()
	}

	return app
}

// Run parses args and runs the selected command. The asset store is opened
// on the first run, using the store flags of that run.
func (app *App) Run(args []string) error {
	c := &cli.CLI{}
	parser, err := kong.New(c,
		kong.Name("romstash"),
		kong.Description("Load, attach and persist emulator BIOS and ROM images."),
		kong.UsageOnError(),
		kong.Exit(app.Exit),
		kong.Writers(app.ctx.Stdout, app.ctx.Stderr),
		kong.DefaultEnvars("ROMSTASH"),
		kong.Vars{
			"dataDir": filepath.Join(xdg.DataHome, "romstash"),
			"version": app.ctx.Version,
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	app.setupAssets(c.StoreOptions)

	err = kctx.Run(app.ctx)
	app.ctx.Attacher.Wait()

	return err
}

// Close waits for pending store operations and closes the asset store.
func (app *App) Close() error {
	if app.ctx.Attacher != nil {
		app.ctx.Attacher.Wait()
	}
	if app.ctx.Store == nil {
		return nil
	}
	return app.ctx.Store.Close()
}

// FatalIfErrorf terminates the application with an error message if err != nil.
func (app *App) FatalIfErrorf(err error, args ...any) {
	if err == nil {
		return
	}

	app.ctx.Logger.Error(err.Error(), args...)
	var errh aerrors.WithHint
	if errors.As(err, &errh) && errh.Hint() != "" {
		fmt.Fprintf(app.ctx.Stderr, "Hint: %s\n", errh.Hint())
	}
	app.Exit(1)
}

func (app *App) setupAssets(opts cli.StoreOptions) {
	if app.ctx.Store == nil {
		app.ctx.Store = deferred.Open(app.ctx.Ctx, app.storeOpener(opts),
			deferred.WithLogger(app.ctx.Logger))
	}
	if app.ctx.Assets == nil {
		app.ctx.Assets = asset.NewRepository(app.ctx.Store)
	}
	if app.ctx.Attacher == nil {
		app.ctx.Attacher = attach.New(app.ctx.Core, app.ctx.Assets,
			attach.WithLogger(app.ctx.Logger),
			attach.WithWarningHandler(func(msg string) {
				fmt.Fprintf(app.ctx.Stderr, "Warning: %s\n", msg)
			}),
		)
	}
}
