package server

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stocklens/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth. Credential endpoints share one per-IP limiter.
	limiter := newIPRateLimiter(rate.Every(2*time.Second), 5)
	mux.HandleFunc("/api/auth/signup", loginRateLimitMiddleware(limiter, s.handleAuthSignup))
	mux.HandleFunc("/api/auth/login", loginRateLimitMiddleware(limiter, s.handleAuthLogin))
	mux.HandleFunc("/api/auth/validate", s.handleAuthValidate)

	// Analyses
	mux.HandleFunc("/api/analyses/", s.routeAnalyses)
	mux.HandleFunc("/api/analyses", s.handleAnalyses)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
