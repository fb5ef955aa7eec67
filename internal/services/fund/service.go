// Package fund assembles fund detail snapshots: confirmed NAV,
// disclosed holdings, live quotes, and the intraday estimate.
package fund

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qiuyin/fundwatch/internal/common"
	"github.com/qiuyin/fundwatch/internal/estimator"
	"github.com/qiuyin/fundwatch/internal/interfaces"
	"github.com/qiuyin/fundwatch/internal/models"
)

// defaultCacheTTL bounds how long a cached detail is served without a
// refresh when force is false.
const defaultCacheTTL = time.Minute

// defaultCashWeight is assumed when the allocation feed discloses no
// cash position for a feeder fund.
const defaultCashWeight = 5.0

// Service implements FundService.
type Service struct {
	storage   interfaces.StorageManager
	eastmoney interfaces.EastmoneyClient
	logger    *common.Logger

	cacheTTL time.Duration
	now      func() time.Time
}

var _ interfaces.FundService = (*Service)(nil)

// NewService creates a new fund service.
func NewService(
	storage interfaces.StorageManager,
	eastmoney interfaces.EastmoneyClient,
	logger *common.Logger,
) *Service {
	return &Service{
		storage:   storage,
		eastmoney: eastmoney,
		logger:    logger,
		cacheTTL:  defaultCacheTTL,
		now:       time.Now,
	}
}

// GetFundDetail assembles the full dashboard snapshot for one fund.
// When force is false a recently cached detail is returned as-is. An
// absent estimate is not an error: the detail is returned with a nil
// Result and the caller renders "no estimate available".
func (s *Service) GetFundDetail(ctx context.Context, fundCode string, force bool) (*models.FundDetail, error) {
	if fundCode == "" {
		return nil, fmt.Errorf("fund code is required")
	}

	if !force {
		cached, err := s.storage.FundDetailStore().GetFundDetail(ctx, fundCode)
		if err == nil && s.now().Sub(cached.UpdatedAt) < s.cacheTTL {
			s.logger.Debug().Str("fund", fundCode).Msg("Serving cached fund detail")
			return cached, nil
		}
	}

	estimate, err := s.eastmoney.GetFundEstimate(ctx, fundCode)
	if err != nil {
		// The confirmed NAV is the anchor of the whole snapshot. When
		// it cannot be fetched, fall back to the cache before failing.
		if cached, cacheErr := s.storage.FundDetailStore().GetFundDetail(ctx, fundCode); cacheErr == nil {
			s.logger.Warn().Err(err).Str("fund", fundCode).Msg("Estimate fetch failed, serving stale detail")
			return cached, nil
		}
		return nil, fmt.Errorf("failed to get fund estimate for '%s': %w", fundCode, err)
	}

	holdings, allocation := s.fetchComposition(ctx, fundCode)
	if holdings != nil && holdings.FeederTarget != nil {
		s.appendSyntheticHolding(holdings, allocation)
	}

	var quotes map[string]models.InstrumentQuote
	if holdings != nil && len(holdings.Stocks) > 0 {
		codes := make([]string, 0, len(holdings.Stocks))
		for _, h := range holdings.Stocks {
			codes = append(codes, h.Code)
		}
		quotes, err = s.eastmoney.GetQuotes(ctx, codes)
		if err != nil {
			s.logger.Warn().Err(err).Str("fund", fundCode).Msg("Quote fetch failed, estimate unavailable")
			quotes = nil
		}
	}

	detail := &models.FundDetail{
		FundCode:  fundCode,
		Estimate:  estimate,
		Holdings:  holdings,
		Quotes:    quotes,
		Live:      estimator.SessionOpen(s.now()),
		UpdatedAt: s.now(),
	}

	if holdings != nil {
		result, estErr := estimator.Estimate(holdings.Stocks, quotes, estimate.Nav)
		if estErr != nil {
			s.logger.Debug().Str("fund", fundCode).Msg("No estimate could be computed")
		} else {
			detail.Result = result
		}
	}

	if err := s.storage.FundDetailStore().SaveFundDetail(ctx, detail); err != nil {
		s.logger.Warn().Err(err).Str("fund", fundCode).Msg("Failed to cache fund detail")
	}

	return detail, nil
}

// fetchComposition retrieves holdings and asset allocation
// concurrently. Either feed may fail without failing the snapshot:
// a missing allocation only degrades the synthetic feeder weight, and
// missing holdings only suppress the estimate.
func (s *Service) fetchComposition(ctx context.Context, fundCode string) (*models.HoldingsDisclosure, *models.AssetAllocation) {
	var (
		holdings   *models.HoldingsDisclosure
		allocation *models.AssetAllocation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := s.eastmoney.GetHoldings(gctx, fundCode)
		if err != nil {
			s.logger.Warn().Err(err).Str("fund", fundCode).Msg("Holdings fetch failed")
			return nil
		}
		holdings = h
		return nil
	})
	g.Go(func() error {
		a, err := s.eastmoney.GetAssetAllocation(gctx, fundCode)
		if err != nil {
			s.logger.Debug().Err(err).Str("fund", fundCode).Msg("Allocation fetch failed")
			return nil
		}
		allocation = a
		return nil
	})
	g.Wait()

	return holdings, allocation
}

// appendSyntheticHolding adds the feeder fund's target vehicle to the
// stock list so the estimator can weight it like a disclosed position.
// The weight is the best available approximation of the fund's stake
// in its target, in order of preference: the disclosed fund-asset
// ratio, the residual after cash and known stock weights, or the
// residual assuming a typical cash buffer.
func (s *Service) appendSyntheticHolding(holdings *models.HoldingsDisclosure, allocation *models.AssetAllocation) {
	weight := s.syntheticWeight(holdings, allocation)
	if weight <= 0 {
		return
	}
	holdings.Stocks = append(holdings.Stocks, models.Holding{
		Code:      holdings.FeederTarget.Code,
		Name:      holdings.FeederTarget.Name,
		Weight:    weight,
		Synthetic: true,
	})
}

func (s *Service) syntheticWeight(holdings *models.HoldingsDisclosure, allocation *models.AssetAllocation) float64 {
	sumKnown := holdings.SumStockWeights()

	if allocation != nil {
		if ratio, err := strconv.ParseFloat(allocation.FundAssetRatio, 64); err == nil && ratio > 0 && ratio < 100 {
			return ratio
		}
		if allocation.HasCashWeight {
			return clampWeight(100 - allocation.CashWeight - sumKnown)
		}
	}
	return clampWeight(100 - defaultCashWeight - sumKnown)
}

func clampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	return w
}

// SearchFunds performs a fuzzy fund search by keyword.
func (s *Service) SearchFunds(ctx context.Context, keyword string) ([]models.FundSearchResult, error) {
	if keyword == "" {
		return nil, fmt.Errorf("search keyword is required")
	}
	results, err := s.eastmoney.SearchFunds(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("fund search for '%s' failed: %w", keyword, err)
	}
	return results, nil
}
