package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/qiuyin/fundwatch/internal/clients/eastmoney"
	"github.com/qiuyin/fundwatch/internal/models"
)

// handleFundSearch handles GET /api/funds/search?q={keyword}.
func (s *Server) handleFundSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		WriteError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	results, err := s.app.FundService.SearchFunds(r.Context(), keyword)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Fund search failed: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   keyword,
		"results": results,
	})
}

// handleFundDetail handles GET /api/funds/{code}. The optional
// force=true query parameter bypasses the cache.
func (s *Server) handleFundDetail(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code := PathParam(r, "/api/funds/", "")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "Fund code is required")
		return
	}
	force := r.URL.Query().Get("force") == "true"

	detail, err := s.app.FundService.GetFundDetail(r.Context(), code, force)
	if err != nil {
		if errors.Is(err, eastmoney.ErrNotFound) {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("Fund '%s' not found", code))
			return
		}
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Failed to load fund '%s': %v", code, err))
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

// handleFundEstimate handles GET /api/funds/{code}/estimate. An
// unavailable estimate is not an error: the result field is null and
// the client renders "no estimate available".
func (s *Server) handleFundEstimate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code := PathParam(r, "/api/funds/", "/estimate")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "Fund code is required")
		return
	}

	detail, err := s.app.FundService.GetFundDetail(r.Context(), code, true)
	if err != nil {
		if errors.Is(err, eastmoney.ErrNotFound) {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("Fund '%s' not found", code))
			return
		}
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Failed to load fund '%s': %v", code, err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"fund_code": detail.FundCode,
		"live":      detail.Live,
		"result":    detail.Result,
	})
}

// watchlistEntryView is a watchlist entry enriched with the cached
// estimate for display. MarketValue and DayGain are derived here in
// the handler from shares held, never inside the estimation engine.
type watchlistEntryView struct {
	models.WatchlistEntry
	Estimate    *models.EstimateResult `json:"estimate,omitempty"`
	Live        bool                   `json:"live,omitempty"`
	MarketValue float64                `json:"market_value,omitempty"`
	DayGain     float64                `json:"day_gain,omitempty"`
}

// enrichWatchlist joins each entry with its cached fund detail. Only
// the cache is consulted; a watchlist load never fans out upstream.
func (s *Server) enrichWatchlist(r *http.Request, watchlist *models.Watchlist) []watchlistEntryView {
	views := make([]watchlistEntryView, 0, len(watchlist.Entries))
	for _, entry := range watchlist.Entries {
		view := watchlistEntryView{WatchlistEntry: entry}
		if s.app.Storage != nil {
			if detail, err := s.app.Storage.FundDetailStore().GetFundDetail(r.Context(), entry.FundCode); err == nil {
				view.Estimate = detail.Result
				view.Live = detail.Live
				if detail.Result != nil && entry.Shares > 0 {
					view.MarketValue = entry.Shares * detail.Result.Nav
					if detail.Estimate != nil {
						view.DayGain = entry.Shares * (detail.Result.Nav - detail.Estimate.Nav)
					}
				} else if detail.Estimate != nil && entry.Shares > 0 {
					view.MarketValue = entry.Shares * detail.Estimate.Nav
				}
			}
		}
		views = append(views, view)
	}
	return views
}

// handleWatchlist handles GET and POST /api/watchlist.
func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		watchlist, err := s.app.WatchlistService.GetWatchlist(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load watchlist: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"entries":    s.enrichWatchlist(r, watchlist),
			"version":    watchlist.Version,
			"updated_at": watchlist.UpdatedAt,
		})

	case http.MethodPost:
		var entry models.WatchlistEntry
		if !DecodeJSON(w, r, &entry) {
			return
		}
		if entry.FundCode == "" {
			WriteError(w, http.StatusBadRequest, "Field 'fund_code' is required")
			return
		}
		watchlist, err := s.app.WatchlistService.AddEntry(r.Context(), &entry)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to add entry: %v", err))
			return
		}
		WriteJSON(w, http.StatusCreated, watchlist)

	default:
		w.Header().Set("Allow", "GET, POST")
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleWatchlistUpdate handles PATCH /api/watchlist/{code}.
func (s *Server) handleWatchlistUpdate(w http.ResponseWriter, r *http.Request) {
	code := PathParam(r, "/api/watchlist/", "")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "Fund code is required")
		return
	}

	var update models.WatchlistEntry
	if !DecodeJSON(w, r, &update) {
		return
	}

	watchlist, err := s.app.WatchlistService.UpdateEntry(r.Context(), code, &update)
	if err != nil {
		if isNotOnWatchlist(err) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to update entry: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, watchlist)
}

// handleWatchlistRemove handles DELETE /api/watchlist/{code}.
func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	code := PathParam(r, "/api/watchlist/", "")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "Fund code is required")
		return
	}

	watchlist, err := s.app.WatchlistService.RemoveEntry(r.Context(), code)
	if err != nil {
		if isNotOnWatchlist(err) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to remove entry: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, watchlist)
}

func isNotOnWatchlist(err error) bool {
	return strings.Contains(err.Error(), "not on the watchlist")
}

// commentaryRequest is the body of POST /api/commentary. When
// fund_code is set the commentary covers that fund, otherwise it
// covers macro market conditions.
type commentaryRequest struct {
	FundCode string `json:"fund_code,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

// handleCommentary handles POST /api/commentary.
func (s *Server) handleCommentary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req commentaryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	var (
		text string
		err  error
	)
	if req.FundCode != "" {
		text, err = s.app.CommentaryService.FundCommentary(r.Context(), req.FundCode, req.Prompt)
	} else {
		text, err = s.app.CommentaryService.MarketCommentary(r.Context(), req.Prompt)
	}
	if err != nil {
		// The client hanging up mid-generation is normal; there is no
		// one left to send an error to.
		if errors.Is(err, context.Canceled) {
			s.logger.Debug().Msg("Commentary request cancelled by client")
			return
		}
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Commentary failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"commentary": text})
}
