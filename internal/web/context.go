package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cleanse/internal/logging"
)

// runID returns the {runID} URL parameter.
func runID(r *http.Request) string {
	return chi.URLParam(r, "runID")
}

// runLogger returns the request logger tagged with the run being handled
// and the client address.
func runLogger(r *http.Request) *slog.Logger {
	return logging.WithFields(r.Context(), "run_id", runID(r), "ip", r.RemoteAddr)
}
