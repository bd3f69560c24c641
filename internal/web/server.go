// Package web provides the HTTP server and handlers for the cleaning UI.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/cleanse/internal/config"
	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/logging"
	mw "github.com/JonMunkholm/cleanse/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server serves the tabbed cleaning UI and its JSON API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	logs    *logging.StageLogs
}

func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{service: service, cfg: cfg}
	s.router = s.routes()
	return s
}

// WithStageLogs exposes the on-disk stage logs at /api/logs/{stage}.
func (s *Server) WithStageLogs(logs *logging.StageLogs) *Server {
	s.logs = logs
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		mw.TrustedRealIP(s.cfg.Security.TrustedProxies),
		mw.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
		middleware.Timeout(s.cfg.Server.RequestTimeout),
		securityHeaders(s.cfg.Security.EnableCSP),
	)
	if rate := s.cfg.Rate; rate.Enabled {
		r.Use(newRateLimiter(rate.RequestsPerMinute, time.Minute).middleware)
	}

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Get("/health", s.handleHealth)

	r.Get("/", s.handleDashboard)
	r.Post("/runs", s.handleUploadForm)
	r.Route("/runs/{runID}", func(run chi.Router) {
		run.Get("/", s.handleRunPage)
		run.Post("/{action}", s.handleStageForm)
		run.Get("/download.csv", s.handleDownloadCSV)
		run.Get("/download.xlsx", s.handleDownloadXLSX)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(mw.APIKeyAuth(&s.cfg.Security))

		api.Get("/status", s.handleStatus)
		api.Get("/countries/match", s.handleMatchCountry)
		api.Get("/logs/{stage}", s.handleStageLogFile)

		api.Route("/runs", func(runs chi.Router) {
			runs.Get("/", s.handleHistory)
			runs.Post("/", s.handleUploadAPI)
			runs.Get("/active", s.handleActiveRuns)
			runs.Get("/{runID}", s.handleGetRun)
			runs.Delete("/{runID}", s.handleDeleteRun)
			runs.Get("/{runID}/logs", s.handleRunLogs)
			runs.Post("/{runID}/{action}", s.handleStageAPI)
		})
	})
	return r
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	srv := s.cfg.Server
	s.server = &http.Server{
		Addr:         srv.Addr(),
		Handler:      s.router,
		ReadTimeout:  srv.ReadTimeout,
		WriteTimeout: srv.WriteTimeout,
		IdleTimeout:  srv.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) Router() *chi.Mux { return s.router }

const contentSecurityPolicy = "default-src 'self'; style-src 'self'; img-src 'self' data:"

func securityHeaders(csp bool) func(http.Handler) http.Handler {
	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	if csp {
		headers["Content-Security-Policy"] = contentSecurityPolicy
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range headers {
				w.Header().Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is RemoteAddr without the port. TrustedRealIP has already
// replaced RemoteAddr for proxied requests.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode error", "error", err)
	}
}
