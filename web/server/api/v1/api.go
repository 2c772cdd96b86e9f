package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	actx "go.hackfix.me/romstash/app/context"
)

// Handler is the API endpoint handler.
type Handler struct {
	appCtx *actx.Context
}

// Router returns the API router.
func Router(appCtx *actx.Context) chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))
	// Limit request sizes to 64MB, twice the largest cartridge.
	r.Use(middleware.RequestSize(64 << (10 * 2)))

	h := Handler{appCtx}
	r.Get("/assets", h.AssetKeys)
	r.Get("/assets/{key}", h.AssetGet)
	r.Put("/attach/{kind}", h.Attach)

	return r
}

// Response is the JSON body of API responses.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

func (e *Response) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	if e.Status == "" {
		e.Status = http.StatusText(e.StatusCode)
	}
	return nil
}

func errResponse(code int, err error) render.Renderer {
	return &Response{StatusCode: code, Error: err.Error()}
}
