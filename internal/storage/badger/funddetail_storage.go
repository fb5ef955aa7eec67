package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/qiuyin/fundwatch/internal/common"
	"github.com/qiuyin/fundwatch/internal/models"
)

type fundDetailStorage struct {
	store  *Store
	logger *common.Logger
}

// NewFundDetailStorage creates a new FundDetailStore backed by BadgerHold.
func NewFundDetailStorage(store *Store, logger *common.Logger) *fundDetailStorage {
	return &fundDetailStorage{store: store, logger: logger}
}

func (s *fundDetailStorage) GetFundDetail(_ context.Context, fundCode string) (*models.FundDetail, error) {
	var detail models.FundDetail
	err := s.store.db.Get(fundCode, &detail)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("fund detail for '%s' not found", fundCode)
		}
		return nil, fmt.Errorf("failed to get fund detail for '%s': %w", fundCode, err)
	}
	return &detail, nil
}

// SaveFundDetail replaces the cached detail for the fund as a whole.
func (s *fundDetailStorage) SaveFundDetail(_ context.Context, detail *models.FundDetail) error {
	if detail.FundCode == "" {
		return fmt.Errorf("fund detail requires a fund code")
	}
	if detail.UpdatedAt.IsZero() {
		detail.UpdatedAt = time.Now()
	}
	if err := s.store.db.Upsert(detail.FundCode, detail); err != nil {
		return fmt.Errorf("failed to save fund detail for '%s': %w", detail.FundCode, err)
	}
	s.logger.Debug().Str("fund", detail.FundCode).Msg("Fund detail cached")
	return nil
}

func (s *fundDetailStorage) DeleteFundDetail(_ context.Context, fundCode string) error {
	err := s.store.db.Delete(fundCode, models.FundDetail{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete fund detail for '%s': %w", fundCode, err)
	}
	return nil
}

func (s *fundDetailStorage) ListFundCodes(_ context.Context) ([]string, error) {
	var details []models.FundDetail
	if err := s.store.db.Find(&details, nil); err != nil {
		return nil, fmt.Errorf("failed to list fund details: %w", err)
	}
	codes := make([]string, len(details))
	for i, d := range details {
		codes[i] = d.FundCode
	}
	return codes, nil
}
