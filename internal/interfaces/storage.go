// Package interfaces defines service contracts for fundwatch
package interfaces

import (
	"context"

	"github.com/qiuyin/fundwatch/internal/models"
)

// StorageManager coordinates the storage backends.
type StorageManager interface {
	WatchlistStore() WatchlistStore
	FundDetailStore() FundDetailStore
	KeyValueStore() KeyValueStore

	Close() error
}

// WatchlistStore persists the user's watchlist.
type WatchlistStore interface {
	GetWatchlist(ctx context.Context) (*models.Watchlist, error)
	SaveWatchlist(ctx context.Context, watchlist *models.Watchlist) error
	DeleteWatchlist(ctx context.Context) error
}

// FundDetailStore caches fund details with entity-level replace
// semantics, keyed by fund code.
type FundDetailStore interface {
	GetFundDetail(ctx context.Context, fundCode string) (*models.FundDetail, error)
	SaveFundDetail(ctx context.Context, detail *models.FundDetail) error
	DeleteFundDetail(ctx context.Context, fundCode string) error
	ListFundCodes(ctx context.Context) ([]string, error)
}

// KeyValueStore holds system-level configuration values (e.g. API keys
// set at runtime).
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}
