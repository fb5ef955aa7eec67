package server

import (
	"net/http"
	"strings"

	"github.com/qiuyin/fundwatch/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Funds
	mux.HandleFunc("/api/funds/search", s.handleFundSearch)
	mux.HandleFunc("/api/funds/", s.routeFunds)

	// Watchlist
	mux.HandleFunc("/api/watchlist", s.handleWatchlist)
	mux.HandleFunc("/api/watchlist/", s.routeWatchlistEntry)

	// Commentary
	mux.HandleFunc("/api/commentary", s.handleCommentary)
}

// routeFunds dispatches /api/funds/{code} and /api/funds/{code}/estimate.
func (s *Server) routeFunds(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/funds/")
	switch {
	case strings.HasSuffix(rest, "/estimate"):
		s.handleFundEstimate(w, r)
	case !strings.Contains(rest, "/"):
		s.handleFundDetail(w, r)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeWatchlistEntry dispatches /api/watchlist/{code}.
func (s *Server) routeWatchlistEntry(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPatch, http.MethodPut:
		s.handleWatchlistUpdate(w, r)
	case http.MethodDelete:
		s.handleWatchlistRemove(w, r)
	default:
		w.Header().Set("Allow", "PATCH, PUT, DELETE")
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
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
