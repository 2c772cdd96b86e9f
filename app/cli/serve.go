package cli

import (
	actx "go.hackfix.me/romstash/app/context"
	"go.hackfix.me/romstash/web/server"
)

// Serve starts the web server.
type Serve struct {
	Address  string `help:"[host]:port to listen on" default:":2020"`
	FilesDir string `help:"Directory to serve image files from, under /files/."`
}

// Run the serve command.
func (s *Serve) Run(appCtx *actx.Context) error {
	srv := server.New(appCtx, s.Address, s.FilesDir)
	return srv.ListenAndServe(appCtx.Ctx)
}
