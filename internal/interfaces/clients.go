// Package interfaces defines service contracts for fundwatch
package interfaces

import (
	"context"

	"github.com/qiuyin/fundwatch/internal/models"
)

// EastmoneyClient is the market data gateway. All operations enforce a
// bounded timeout and resolve to a typed error on transport failure,
// never hang indefinitely.
type EastmoneyClient interface {
	// GetFundEstimate retrieves the last confirmed NAV, official daily
	// change, as-of label, and name for a fund.
	GetFundEstimate(ctx context.Context, fundCode string) (*models.FundEstimate, error)

	// GetHoldings retrieves the disclosed top holdings (stocks and
	// bonds) with percentage weights.
	GetHoldings(ctx context.Context, fundCode string) (*models.HoldingsDisclosure, error)

	// GetAssetAllocation retrieves the latest asset-allocation point
	// and the precise fund-asset ratio field, both optional.
	GetAssetAllocation(ctx context.Context, fundCode string) (*models.AssetAllocation, error)

	// GetQuotes retrieves live quotes keyed by instrument code. Codes
	// with an unresolvable exchange are excluded before the request;
	// provider no-data entries are omitted or flagged, never reported
	// as zero change.
	GetQuotes(ctx context.Context, codes []string) (map[string]models.InstrumentQuote, error)

	// SearchFunds performs a fuzzy fund search by keyword.
	SearchFunds(ctx context.Context, keyword string) ([]models.FundSearchResult, error)
}

// GeminiClient generates AI commentary text.
type GeminiClient interface {
	// GenerateContent generates text from a prompt. Cancelling ctx
	// terminates the request cleanly.
	GenerateContent(ctx context.Context, prompt string) (string, error)

	Close() error
}
