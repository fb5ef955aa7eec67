// Package interfaces defines service contracts for fundwatch
package interfaces

import (
	"context"

	"github.com/qiuyin/fundwatch/internal/models"
)

// FundService assembles fund detail and intraday estimates.
type FundService interface {
	// GetFundDetail fetches the fund's last confirmed NAV, holdings,
	// live quotes, and the estimation result. When force is false a
	// cached detail may be returned. An absent estimate is not an
	// error: Detail.Result is nil and the detail is still returned.
	GetFundDetail(ctx context.Context, fundCode string, force bool) (*models.FundDetail, error)

	// SearchFunds performs a fuzzy fund search by keyword.
	SearchFunds(ctx context.Context, keyword string) ([]models.FundSearchResult, error)
}

// WatchlistService manages the user's tracked funds.
type WatchlistService interface {
	// GetWatchlist returns the watchlist, creating an empty one when
	// none exists yet.
	GetWatchlist(ctx context.Context) (*models.Watchlist, error)

	// AddEntry adds a fund to the watchlist (upsert keyed on fund code).
	AddEntry(ctx context.Context, entry *models.WatchlistEntry) (*models.Watchlist, error)

	// UpdateEntry updates an existing entry by fund code with merge
	// semantics (only non-zero fields overwrite).
	UpdateEntry(ctx context.Context, fundCode string, update *models.WatchlistEntry) (*models.Watchlist, error)

	// RemoveEntry removes a fund from the watchlist by fund code.
	RemoveEntry(ctx context.Context, fundCode string) (*models.Watchlist, error)
}

// CommentaryService produces AI commentary on a fund or on macro
// market conditions.
type CommentaryService interface {
	// FundCommentary generates commentary for one fund, seeding the
	// prompt with the fund's current estimation output.
	FundCommentary(ctx context.Context, fundCode, userPrompt string) (string, error)

	// MarketCommentary generates macro market commentary.
	MarketCommentary(ctx context.Context, userPrompt string) (string, error)
}
