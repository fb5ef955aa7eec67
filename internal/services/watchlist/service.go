// Package watchlist manages the user's tracked funds.
package watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/qiuyin/fundwatch/internal/common"
	"github.com/qiuyin/fundwatch/internal/interfaces"
	"github.com/qiuyin/fundwatch/internal/models"
)

// Service implements WatchlistService.
type Service struct {
	storage   interfaces.StorageManager
	eastmoney interfaces.EastmoneyClient
	logger    *common.Logger

	now func() time.Time
}

var _ interfaces.WatchlistService = (*Service)(nil)

// NewService creates a new watchlist service.
func NewService(
	storage interfaces.StorageManager,
	eastmoney interfaces.EastmoneyClient,
	logger *common.Logger,
) *Service {
	return &Service{
		storage:   storage,
		eastmoney: eastmoney,
		logger:    logger,
		now:       time.Now,
	}
}

// GetWatchlist returns the watchlist, creating an empty one when none
// exists yet.
func (s *Service) GetWatchlist(ctx context.Context) (*models.Watchlist, error) {
	watchlist, err := s.storage.WatchlistStore().GetWatchlist(ctx)
	if err != nil {
		watchlist = &models.Watchlist{Entries: []models.WatchlistEntry{}}
		if err := s.storage.WatchlistStore().SaveWatchlist(ctx, watchlist); err != nil {
			return nil, fmt.Errorf("failed to create watchlist: %w", err)
		}
		s.logger.Info().Msg("Created empty watchlist")
	}
	return watchlist, nil
}

// AddEntry adds a fund to the watchlist. Adding a fund that is already
// tracked replaces its entry.
func (s *Service) AddEntry(ctx context.Context, entry *models.WatchlistEntry) (*models.Watchlist, error) {
	if entry == nil || entry.FundCode == "" {
		return nil, fmt.Errorf("watchlist entry requires a fund code")
	}

	watchlist, err := s.GetWatchlist(ctx)
	if err != nil {
		return nil, err
	}

	if entry.Name == "" {
		entry.Name = s.lookupFundName(ctx, entry.FundCode)
	}

	now := s.now()
	entry.UpdatedAt = now
	if existing, i := watchlist.FindByCode(entry.FundCode); existing != nil {
		entry.AddedAt = existing.AddedAt
		watchlist.Entries[i] = *entry
	} else {
		entry.AddedAt = now
		watchlist.Entries = append(watchlist.Entries, *entry)
	}

	if err := s.storage.WatchlistStore().SaveWatchlist(ctx, watchlist); err != nil {
		return nil, fmt.Errorf("failed to save watchlist: %w", err)
	}
	s.logger.Info().Str("fund", entry.FundCode).Msg("Watchlist entry added")
	return watchlist, nil
}

// UpdateEntry updates an existing entry by fund code with merge
// semantics: only non-zero fields of the update overwrite.
func (s *Service) UpdateEntry(ctx context.Context, fundCode string, update *models.WatchlistEntry) (*models.Watchlist, error) {
	if fundCode == "" {
		return nil, fmt.Errorf("fund code is required")
	}

	watchlist, err := s.GetWatchlist(ctx)
	if err != nil {
		return nil, err
	}

	existing, i := watchlist.FindByCode(fundCode)
	if existing == nil {
		return nil, fmt.Errorf("fund '%s' is not on the watchlist", fundCode)
	}

	if update != nil {
		if update.Name != "" {
			existing.Name = update.Name
		}
		if update.Shares != 0 {
			existing.Shares = update.Shares
		}
		if update.CostBasis != 0 {
			existing.CostBasis = update.CostBasis
		}
	}
	existing.UpdatedAt = s.now()
	watchlist.Entries[i] = *existing

	if err := s.storage.WatchlistStore().SaveWatchlist(ctx, watchlist); err != nil {
		return nil, fmt.Errorf("failed to save watchlist: %w", err)
	}
	s.logger.Info().Str("fund", fundCode).Msg("Watchlist entry updated")
	return watchlist, nil
}

// RemoveEntry removes a fund from the watchlist by fund code and drops
// its cached detail.
func (s *Service) RemoveEntry(ctx context.Context, fundCode string) (*models.Watchlist, error) {
	if fundCode == "" {
		return nil, fmt.Errorf("fund code is required")
	}

	watchlist, err := s.GetWatchlist(ctx)
	if err != nil {
		return nil, err
	}

	existing, i := watchlist.FindByCode(fundCode)
	if existing == nil {
		return nil, fmt.Errorf("fund '%s' is not on the watchlist", fundCode)
	}
	watchlist.Entries = append(watchlist.Entries[:i], watchlist.Entries[i+1:]...)

	if err := s.storage.WatchlistStore().SaveWatchlist(ctx, watchlist); err != nil {
		return nil, fmt.Errorf("failed to save watchlist: %w", err)
	}
	if err := s.storage.FundDetailStore().DeleteFundDetail(ctx, fundCode); err != nil {
		s.logger.Warn().Err(err).Str("fund", fundCode).Msg("Failed to drop cached fund detail")
	}
	s.logger.Info().Str("fund", fundCode).Msg("Watchlist entry removed")
	return watchlist, nil
}

// lookupFundName resolves a display name for the fund so entries added
// by code alone still render with a name. Best effort.
func (s *Service) lookupFundName(ctx context.Context, fundCode string) string {
	estimate, err := s.eastmoney.GetFundEstimate(ctx, fundCode)
	if err != nil {
		s.logger.Debug().Err(err).Str("fund", fundCode).Msg("Fund name lookup failed")
		return ""
	}
	return estimate.Name
}
