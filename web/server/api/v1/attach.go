package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"go.hackfix.me/romstash/attach"
)

// Attach attaches the request body as a BIOS or ROM, depending on the kind
// URL parameter. The asset is persisted unless persist=false is passed.
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		_ = render.Render(w, r, errResponse(http.StatusBadRequest,
			fmt.Errorf("failed reading request body: %w", err)))
		return
	}

	persist := r.URL.Query().Get("persist") != "false"
	p := attach.FromBytes(data)

	// Persistence outlives the request, so it runs under the app context.
	ctx := h.appCtx.Ctx
	switch kind := chi.URLParam(r, "kind"); kind {
	case "bios":
		err = h.appCtx.Attacher.AttachBIOS(ctx, p, persist)
	case "rom":
		err = h.appCtx.Attacher.AttachROM(ctx, p, persist)
	default:
		_ = render.Render(w, r, errResponse(http.StatusNotFound,
			fmt.Errorf("unknown asset kind '%s'", kind)))
		return
	}

	var rerr *attach.ConsumerRejectedError
	if errors.As(err, &rerr) {
		_ = render.Render(w, r, errResponse(http.StatusUnprocessableEntity, err))
		return
	} else if err != nil {
		_ = render.Render(w, r, errResponse(http.StatusInternalServerError, err))
		return
	}

	_ = render.Render(w, r, &Response{StatusCode: http.StatusOK})
}
