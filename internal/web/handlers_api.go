package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/logging"
)

// RunResponse is the JSON view of a run.
type RunResponse struct {
	ID        string            `json:"id"`
	FileName  string            `json:"file_name"`
	Rows      int               `json:"rows"`
	Next      core.Stage        `json:"next_stage,omitempty"`
	Completed bool              `json:"completed"`
	Report    *core.IssueReport `json:"report,omitempty"`
	Issues    *core.IssueCounts `json:"issues,omitempty"`
	RowsOut   int               `json:"rows_out,omitempty"`
	Columns   []string          `json:"columns"`
}

func toRunResponse(run core.Run) RunResponse {
	latest := run.Latest()
	resp := RunResponse{
		ID:        run.ID,
		FileName:  run.FileName,
		Rows:      run.Input.Len(),
		Next:      run.Next(),
		Completed: run.Completed(),
		Report:    run.Report,
		Columns:   latest.Columns,
	}
	if run.Report != nil {
		counts := run.Report.Counts()
		resp.Issues = &counts
	}
	if run.Completed() {
		resp.RowsOut = run.Enriched.Len()
	}
	return resp
}

// handleUploadAPI creates a run from a multipart upload.
func (s *Server) handleUploadAPI(w http.ResponseWriter, r *http.Request) {
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

	if r.URL.Query().Get("run") == "all" {
		run, err = s.service.RunAll(r.Context(), run.ID)
		if err != nil {
			s.respondError(w, r, err, statusFor(err))
			return
		}
	}

	writeJSON(w, http.StatusCreated, toRunResponse(run))
}

// handleGetRun returns a run's progress and issue report.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Get(runID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

// handleStageAPI runs detect, correct, enrich or all.
func (s *Server) handleStageAPI(w http.ResponseWriter, r *http.Request) {
	run, err := s.stageAction(r, runID(r), chi.URLParam(r, "action"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	runLogger(r).Info("stage requested via api", "action", chi.URLParam(r, "action"), "next", run.Next())
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

// handleDeleteRun forgets a run.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(runID(r)); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRunLogs returns the action log lines of one run, per stage.
func (s *Server) handleRunLogs(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Get(runID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	out := make(map[core.Stage][]string, 3)
	for _, l := range runLogs(run) {
		lines := l.Lines
		if lines == nil {
			lines = []string{}
		}
		out[l.Stage] = lines
	}
	writeJSON(w, http.StatusOK, out)
}

// handleStageLogFile returns the shared on-disk log of a stage.
func (s *Server) handleStageLogFile(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		s.respondError(w, r, errLogsNotEnabled, http.StatusNotFound)
		return
	}

	var file *logging.ActionLog
	switch core.Stage(chi.URLParam(r, "stage")) {
	case core.StageDetection:
		file = s.logs.Detection
	case core.StageCorrection:
		file = s.logs.Correction
	case core.StageEnrichment:
		file = s.logs.Enrichment
	default:
		s.respondError(w, r, errUnknownStage, http.StatusBadRequest)
		return
	}

	lines, err := file.Read()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": file.Path(), "lines": lines})
}

// handleHistory lists completed runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := historyLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	history, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []core.RunSummary{}
	}
	writeJSON(w, http.StatusOK, history)
}

// handleActiveRuns lists in-flight runs.
func (s *Server) handleActiveRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.service.List()
	out := make([]RunResponse, len(runs))
	for i, run := range runs {
		out[i] = toRunResponse(run)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleStatus reports processing slot usage.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"limiter":     s.service.Limiter().Status(),
		"active_runs": s.service.ActiveRuns(),
		"countries":   s.service.Pipeline().Countries().Len(),
		"threshold":   s.service.Pipeline().Threshold(),
	})
}

// MatchResponse is the result of a country lookup.
type MatchResponse struct {
	Input   string `json:"input"`
	Country string `json:"country"`
	Score   int    `json:"score"`
	Matched bool   `json:"matched"`
}

// handleMatchCountry standardizes ?q= against the reference list.
func (s *Server) handleMatchCountry(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	country := s.service.Pipeline().Corrector(nil).StandardizeCountry(q)

	resp := MatchResponse{Input: q, Country: country}
	if country != core.UnknownCountry {
		resp.Matched = true
		resp.Score = core.TokenSetRatio(q, country)
	}
	writeJSON(w, http.StatusOK, resp)
}
