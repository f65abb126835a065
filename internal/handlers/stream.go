package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/swarupplay/backend/internal/logging"
)

// StreamHandler exposes the streaming proxy. Authentication happens in
// middleware before Stream runs.
type StreamHandler struct {
	Proxy StreamProxy
}

// Stream handles GET /api/stream/{fileId}.
func (h StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.Proxy == nil {
		logging.FromContext(r.Context()).Error("stream proxy unavailable")
		respondError(r.Context(), w, http.StatusInternalServerError, "Server error")
		return
	}
	h.Proxy.Serve(w, r, mux.Vars(r)["fileId"])
}
