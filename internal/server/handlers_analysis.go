package server

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/bobmcallan/stocklens/internal/common"
	"github.com/bobmcallan/stocklens/internal/ingest"
	"github.com/bobmcallan/stocklens/internal/projection"
	"github.com/bobmcallan/stocklens/internal/storage"
)

// maxUploadBytes caps spreadsheet uploads at 10MB.
const maxUploadBytes = 10 << 20

// requireUser resolves the authenticated user or writes a 401.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*common.UserContext, bool) {
	uc := common.UserContextFromContext(r.Context())
	if uc == nil || uc.UserID == "" {
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return uc, true
}

// handleAnalyses dispatches /api/analyses by method: POST uploads a
// spreadsheet, GET lists the caller's saved analyses.
func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAnalysisUpload(w, r)
	case http.MethodGet:
		s.handleAnalysisList(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleAnalysisUpload handles POST /api/analyses — multipart upload of a
// historical-quotes spreadsheet.
func (s *Server) handleAnalysisUpload(w http.ResponseWriter, r *http.Request) {
	uc, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	stockName := strings.TrimSpace(r.FormValue("stock_name"))
	ticker := strings.TrimSpace(r.FormValue("ticker"))
	policyName := strings.TrimSpace(r.FormValue("policy"))
	if stockName == "" || ticker == "" {
		WriteError(w, http.StatusBadRequest, "stock_name and ticker are required")
		return
	}
	if policyName != "" && policyName != "fixed" && policyName != "linear" {
		WriteError(w, http.StatusBadRequest, "policy must be fixed or linear")
		return
	}

	result, err := s.app.Analyzer.Analyze(r.Context(), uc.UserID, stockName, ticker, policyName, file)
	if err != nil {
		var merr *ingest.MalformedInputError
		var ierr *projection.InsufficientDataError
		switch {
		case errors.As(err, &merr):
			WriteErrorWithCode(w, http.StatusUnprocessableEntity, merr.Error(), "malformed_input")
		case errors.As(err, &ierr):
			WriteErrorWithCode(w, http.StatusUnprocessableEntity, ierr.Error(), "insufficient_data")
		default:
			s.logger.Error().Err(err).Str("ticker", ticker).Msg("Analysis failed")
			WriteError(w, http.StatusInternalServerError, "analysis failed")
		}
		return
	}

	status := http.StatusCreated
	if !result.Saved {
		status = http.StatusOK
	}
	WriteJSON(w, status, map[string]interface{}{
		"status": "ok",
		"data":   result,
	})
}

// handleAnalysisList handles GET /api/analyses — list the caller's analyses.
func (s *Server) handleAnalysisList(w http.ResponseWriter, r *http.Request) {
	uc, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	analyses, err := s.app.Analyzer.List(r.Context(), uc.UserID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list analyses")
		WriteError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"analyses": analyses,
			"count":    len(analyses),
		},
	})
}

// routeAnalyses dispatches /api/analyses/{ticker}/* sub-routes.
func (s *Server) routeAnalyses(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
	if path == "" {
		s.handleAnalyses(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	ticker := parts[0]
	subpath := ""
	if len(parts) > 1 {
		subpath = parts[1]
	}

	if ticker == "latest" && subpath == "" {
		s.handleAnalysisLatest(w, r)
		return
	}

	switch subpath {
	case "":
		s.handleAnalysisGet(w, r, ticker)
	case "chart":
		s.handleAnalysisChart(w, r, ticker)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleAnalysisGet handles GET /api/analyses/{ticker}.
func (s *Server) handleAnalysisGet(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	a, err := s.app.Analyzer.Get(r.Context(), uc.UserID, ticker)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "no analysis for ticker "+strings.ToUpper(ticker))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Failed to get analysis")
		WriteError(w, http.StatusInternalServerError, "failed to get analysis")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   a,
	})
}

// handleAnalysisChart handles GET /api/analyses/{ticker}/chart — serve
// the rendered PNG. Ownership is checked before reading the file.
func (s *Server) handleAnalysisChart(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if _, err := s.app.Analyzer.Get(r.Context(), uc.UserID, ticker); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "no analysis for ticker "+strings.ToUpper(ticker))
			return
		}
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Failed to check analysis ownership")
		WriteError(w, http.StatusInternalServerError, "failed to load chart")
		return
	}

	path := s.app.Analyzer.ChartPath(ticker)
	data, err := os.ReadFile(path)
	if err != nil {
		WriteError(w, http.StatusNotFound, "no chart available for ticker "+strings.ToUpper(ticker))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleAnalysisLatest handles GET /api/analyses/latest — the analysis
// with the most recent trading date.
func (s *Server) handleAnalysisLatest(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	a, err := s.app.Analyzer.Latest(r.Context(), uc.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "no analyses yet")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get latest analysis")
		WriteError(w, http.StatusInternalServerError, "failed to get latest analysis")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   a,
	})
}
