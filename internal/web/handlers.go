package web

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/web/templates"
)

// historyLimit is how many past runs the dashboard and history API show.
const historyLimit = 50

// handleDashboard renders the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runs := s.service.List()
	cards := make([]templates.RunCard, len(runs))
	for i, run := range runs {
		cards[i] = templates.RunCard{
			ID:       run.ID,
			FileName: run.FileName,
			Rows:     run.Input.Len(),
			Next:     run.Next(),
			Age:      time.Since(run.UpdatedAt).Round(time.Second).String(),
		}
	}

	// History is informational; a failing store should not take the page down.
	history, err := s.service.History(ctx, historyLimit)
	if err != nil {
		runLogger(r).Warn("list run history failed", "error", err)
	}

	templates.Dashboard(templates.DashboardData{
		Runs:        cards,
		History:     history,
		MaxFileSize: s.cfg.Upload.MaxFileSize,
		Countries:   s.service.Pipeline().Countries().Len(),
		Limiter:     s.service.Limiter().Status(),
	}).Render(ctx, w)
}

// handleUploadForm creates a run from the dashboard form and redirects to it.
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	name, rs, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	run, err := s.service.CreateRun(name, rs)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	redirect(w, r, runURL(run.ID, templates.TabDetection))
}

// handleRunPage renders one run on the requested tab.
func (s *Server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Get(runID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	tab := r.URL.Query().Get("tab")
	if !templates.ValidTab(tab) {
		tab = defaultTab(run)
	}

	templates.RunPage(templates.RunPageData{
		Run:  run,
		Tab:  tab,
		Logs: runLogs(run),
	}).Render(r.Context(), w)
}

// handleStageForm runs a stage from a tab button and returns to the tab.
func (s *Server) handleStageForm(w http.ResponseWriter, r *http.Request) {
	id := runID(r)
	action := chi.URLParam(r, "action")

	run, err := s.stageAction(r, id, action)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	tab := r.URL.Query().Get("tab")
	if !templates.ValidTab(tab) {
		tab = defaultTab(run)
	}
	redirect(w, r, runURL(id, tab))
}

// handleDownloadCSV streams the enriched set as CSV.
func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	run, ok := s.finishedRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(run.FileName, ".csv"))
	if err := core.WriteCSV(w, run.Enriched); err != nil {
		runLogger(r).Error("csv download failed", "error", err)
	}
}

// handleDownloadXLSX writes the enriched set as an Excel workbook.
func (s *Server) handleDownloadXLSX(w http.ResponseWriter, r *http.Request) {
	run, ok := s.finishedRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment(run.FileName, ".xlsx"))
	if err := core.WriteXLSX(w, run.Enriched); err != nil {
		runLogger(r).Error("xlsx download failed", "error", err)
	}
}

// finishedRun loads the run and rejects it unless every stage has run.
func (s *Server) finishedRun(w http.ResponseWriter, r *http.Request) (core.Run, bool) {
	run, err := s.service.Get(runID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return core.Run{}, false
	}
	if !run.Completed() {
		err := fmt.Errorf("download needs enrichment: %w", core.ErrStageOrder)
		s.respondError(w, r, err, statusFor(err))
		return core.Run{}, false
	}
	return run, true
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"active_runs": s.service.ActiveRuns(),
	})
}

// defaultTab is the first tab whose stage has not run yet.
func defaultTab(run core.Run) string {
	switch run.Next() {
	case core.StageDetection:
		return templates.TabDetection
	case core.StageCorrection:
		return templates.TabCorrection
	case core.StageEnrichment:
		return templates.TabEnrichment
	default:
		return templates.TabFinal
	}
}

func runLogs(run core.Run) []templates.StageLog {
	stages := []core.Stage{core.StageDetection, core.StageCorrection, core.StageEnrichment}
	out := make([]templates.StageLog, len(stages))
	for i, st := range stages {
		out[i] = templates.StageLog{Stage: st, Lines: run.Logs(st)}
	}
	return out
}

func runURL(id, tab string) string {
	return "/runs/" + url.PathEscape(id) + "?tab=" + url.QueryEscape(tab)
}

// redirect sends the browser to target. HTMX requests get HX-Redirect
// since they do not follow 303s into a full page.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// attachment builds a Content-Disposition for the cleaned version of name.
func attachment(name, ext string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "data"
	}
	return fmt.Sprintf("attachment; filename=%q", base+"_cleaned"+ext)
}
