package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/romstash/app/context"
	"go.hackfix.me/romstash/emulator"
	"go.hackfix.me/romstash/store/deferred"
)

// Option is a function that allows configuring the application.
type Option func(*App)

// WithContext sets the context of the application. Cancelling it stops
// long-running commands.
func WithContext(ctx context.Context) Option {
	return func(app *App) {
		app.ctx.Ctx = ctx
	}
}

// WithEnv sets the process environment used by the application.
func WithEnv(env actx.Environment) Option {
	return func(app *App) {
		app.ctx.Env = env
	}
}

// WithExit sets the function that stops the application.
func WithExit(fn func(int)) Option {
	return func(app *App) {
		app.Exit = fn
	}
}

// WithFDs sets the file descriptors used by the application.
func WithFDs(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(app *App) {
		app.ctx.Stdin = stdin
		app.ctx.Stdout = stdout
		app.ctx.Stderr = stderr
	}
}

// WithFS sets the filesystem used by the application.
func WithFS(fs vfs.FileSystem) Option {
	return func(app *App) {
		app.ctx.FS = fs
	}
}

// WithLogger initializes the logger used by the application. It must come
// after WithFDs and WithEnv.
func WithLogger(isStdoutTTY, isStderrTTY bool) Option {
	return func(app *App) {
		level := slog.LevelInfo
		if app.ctx.Env != nil && app.ctx.Env.Get("ROMSTASH_DEBUG") != "" {
			level = slog.LevelDebug
		}
		logger := slog.New(
			tint.NewHandler(app.ctx.Stderr, &tint.Options{
				Level:      level,
				NoColor:    !isStderrTTY,
				TimeFormat: "2006-01-02 15:04:05.000",
			}),
		)
		app.ctx.Logger = logger
		slog.SetDefault(logger)
	}
}

// WithCore sets the emulator core assets are attached to.
func WithCore(core *emulator.Core) Option {
	return func(app *App) {
		app.ctx.Core = core
	}
}

// WithStore sets the asset store, instead of opening the one configured by
// the CLI flags.
func WithStore(s *deferred.Store) Option {
	return func(app *App) {
		app.ctx.Store = s
	}
}
