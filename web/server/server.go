package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	actx "go.hackfix.me/romstash/app/context"
	apiv1 "go.hackfix.me/romstash/web/server/api/v1"
)

// Server is a wrapper around http.Server with some custom behavior.
type Server struct {
	*http.Server
	appCtx *actx.Context
}

// New returns a new Server instance. If filesDir is set, files in it are
// served under /files/, so they can be downloaded relative to the
// application root.
func New(appCtx *actx.Context, addr, filesDir string) *Server {
	return &Server{
		appCtx: appCtx,
		Server: &http.Server{
			Handler:           setupRouter(appCtx, filesDir),
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       2 * time.Minute,
			WriteTimeout:      10 * time.Minute,
		},
	}
}

// ListenAndServe is a replacement of http.ListenAndServe to ensure we set the
// correct server address. This is needed when starting the server with
// address ':0'. It stops the server when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}

	s.Addr = ln.Addr().String()
	s.appCtx.Logger.Info("started web server", "address", s.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	err = s.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func setupRouter(appCtx *actx.Context, filesDir string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger(appCtx.Logger))
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(middleware.Recoverer)

	r.Mount("/api/v1", apiv1.Router(appCtx))
	if filesDir != "" {
		r.Get("/files/*", serveFiles(appCtx, filesDir))
	}

	return r
}
