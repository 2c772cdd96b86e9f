package context

import (
	"context"
	"io"
	"log/slog"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/romstash/asset"
	"go.hackfix.me/romstash/attach"
	"go.hackfix.me/romstash/emulator"
	"go.hackfix.me/romstash/store/deferred"
)

// Context contains common objects used by the application. It is passed around
// the application to avoid direct dependencies on external systems, and make
// testing easier.
type Context struct {
	Ctx     context.Context
	Version string
	FS      vfs.FileSystem
	Env     Environment
	Logger  *slog.Logger

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Store    *deferred.Store
	Assets   *asset.Repository
	Core     *emulator.Core
	Attacher *attach.Attacher
}

// Environment is the interface to the process environment.
type Environment interface {
	Get(string) string
	Set(string, string) error
}
