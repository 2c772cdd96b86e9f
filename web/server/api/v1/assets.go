package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"go.hackfix.me/romstash/codec"
	"go.hackfix.me/romstash/store"
	"go.hackfix.me/romstash/store/deferred"
)

// AssetKeysResponse lists stored asset keys.
type AssetKeysResponse struct {
	*Response
	Keys []string `json:"keys"`
}

// AssetKeys returns the stored asset keys, optionally filtered by the prefix
// query parameter.
func (h *Handler) AssetKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.appCtx.Assets.Keys(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		_ = render.Render(w, r, errResponse(storeErrStatus(err), err))
		return
	}

	_ = render.Render(w, r, &AssetKeysResponse{
		Response: &Response{StatusCode: http.StatusOK},
		Keys:     keys,
	})
}

// AssetGet returns the decoded blob stored under the key.
func (h *Handler) AssetGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	blob, err := h.appCtx.Assets.Load(r.Context(), key)
	if err != nil {
		_ = render.Render(w, r, errResponse(storeErrStatus(err), err))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		h.appCtx.Logger.Warn("failed sending asset", "key", key, "error", err)
	}
}

func storeErrStatus(err error) int {
	var (
		uerr *deferred.StoreUnavailableError
		cerr *codec.CorruptDataError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &uerr):
		return http.StatusServiceUnavailable
	case errors.As(err, &cerr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
