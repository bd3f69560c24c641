package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/web/templates"
)

var (
	errRateLimited    = errors.New("rate limit exceeded")
	errNoFile         = errors.New("no file provided")
	errFileTooLarge   = errors.New("file too large")
	errUnsupported    = errors.New("unsupported file type")
	errUnknownAction  = errors.New("unknown stage action")
	errUnknownStage   = errors.New("unknown stage")
	errLogsNotEnabled = errors.New("stage log files not configured")
)

// ErrorResponse is the body of every failed /api request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusTable is checked in order; the first matching target wins.
var statusTable = []struct {
	target error
	status int
}{
	{core.ErrRunNotFound, http.StatusNotFound},
	{core.ErrStageOrder, http.StatusConflict},
	{core.ErrTooManyRuns, http.StatusServiceUnavailable},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
	{errFileTooLarge, http.StatusRequestEntityTooLarge},
	{core.ErrMissingColumn, http.StatusBadRequest},
	{core.ErrEmptyInput, http.StatusBadRequest},
	{errNoFile, http.StatusBadRequest},
	{errUnsupported, http.StatusBadRequest},
	{errUnknownAction, http.StatusBadRequest},
	{errUnknownStage, http.StatusBadRequest},
}

func statusFor(err error) int {
	for _, e := range statusTable {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	if core.IsUserFacing(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type errorFormat int

const (
	formatText errorFormat = iota
	formatJSON
	formatFragment
)

// formatFor picks how an error is rendered: HTMX swaps get an alert
// fragment, API clients get JSON, browsers get plain text.
func formatFor(r *http.Request) errorFormat {
	switch {
	case r.Header.Get("HX-Request") == "true":
		return formatFragment
	case strings.HasPrefix(r.URL.Path, "/api/"),
		strings.Contains(r.Header.Get("Accept"), "application/json"),
		strings.Contains(r.Header.Get("Content-Type"), "application/json"):
		return formatJSON
	default:
		return formatText
	}
}

func isHTMX(r *http.Request) bool {
	return formatFor(r) == formatFragment
}

// respondError logs err with the request context and answers with its
// coded user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)
	runLogger(r).Error("request failed", "status", status, "code", msg.Code, "error", err)

	switch formatFor(r) {
	case formatFragment:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	case formatJSON:
		respondErrorJSON(w, msg, status)
	default:
		http.Error(w, msg.Message+" ("+msg.Code+")", status)
	}
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
