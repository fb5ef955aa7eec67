package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/qiuyin/fundwatch/internal/common"
	"github.com/qiuyin/fundwatch/internal/models"
)

// watchlistKey is the single record key; the dashboard serves one user.
const watchlistKey = "watchlist"

type watchlistStorage struct {
	store  *Store
	logger *common.Logger
}

// NewWatchlistStorage creates a new WatchlistStore backed by BadgerHold.
func NewWatchlistStorage(store *Store, logger *common.Logger) *watchlistStorage {
	return &watchlistStorage{store: store, logger: logger}
}

func (s *watchlistStorage) GetWatchlist(_ context.Context) (*models.Watchlist, error) {
	var watchlist models.Watchlist
	err := s.store.db.Get(watchlistKey, &watchlist)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("watchlist not found")
		}
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	return &watchlist, nil
}

func (s *watchlistStorage) SaveWatchlist(_ context.Context, watchlist *models.Watchlist) error {
	// Read existing to preserve CreatedAt and increment Version
	var existing models.Watchlist
	err := s.store.db.Get(watchlistKey, &existing)
	if err == nil {
		watchlist.CreatedAt = existing.CreatedAt
		watchlist.Version = existing.Version + 1
	} else {
		watchlist.Version = 1
		if watchlist.CreatedAt.IsZero() {
			watchlist.CreatedAt = time.Now()
		}
	}

	watchlist.UpdatedAt = time.Now()

	if err := s.store.db.Upsert(watchlistKey, watchlist); err != nil {
		return fmt.Errorf("failed to save watchlist: %w", err)
	}
	s.logger.Debug().Int("entries", len(watchlist.Entries)).Int("version", watchlist.Version).Msg("Watchlist saved")
	return nil
}

func (s *watchlistStorage) DeleteWatchlist(_ context.Context) error {
	err := s.store.db.Delete(watchlistKey, models.Watchlist{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}
	s.logger.Debug().Msg("Watchlist deleted")
	return nil
}
