package models

import "time"

// FundEstimate is the last confirmed NAV snapshot for a fund as
// published by the provider. It is mutated only by re-fetch, never
// computed locally.
type FundEstimate struct {
	FundCode  string  `json:"fund_code"`
	Name      string  `json:"name"`
	Nav       float64 `json:"nav"`        // last confirmed unit NAV
	ChangePct float64 `json:"change_p"`   // official daily change
	AsOf      string  `json:"as_of"`      // provider timestamp label
}

// Holding is one disclosed position of a fund.
type Holding struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"` // percentage of fund assets, 0-100
	Shares      float64 `json:"shares,omitempty"`
	MarketValue float64 `json:"market_value,omitempty"`
	Synthetic   bool    `json:"synthetic,omitempty"` // feeder-target pseudo-holding
}

// BondHolding is a disclosed bond position. Bonds have no live quote
// feed and never enter the estimation inputs.
type BondHolding struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// FeederTarget identifies the single index/ETF vehicle a feeder fund
// invests into, when the holdings feed discloses one.
type FeederTarget struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// HoldingsDisclosure is a fund's disclosed portfolio composition.
// Weights are not guaranteed to sum to 100.
type HoldingsDisclosure struct {
	FundCode     string        `json:"fund_code"`
	Stocks       []Holding     `json:"stocks"`
	Bonds        []BondHolding `json:"bonds,omitempty"`
	UpdateDate   string        `json:"update_date,omitempty"`
	FeederTarget *FeederTarget `json:"feeder_target,omitempty"`
}

// SumStockWeights returns the total disclosed stock weight, excluding
// synthetic entries.
func (d *HoldingsDisclosure) SumStockWeights() float64 {
	var sum float64
	for _, h := range d.Stocks {
		if !h.Synthetic {
			sum += h.Weight
		}
	}
	return sum
}

// AssetAllocation is the latest point of a fund's asset-allocation
// series plus the precise fund-asset ratio field, both optional.
type AssetAllocation struct {
	CashWeight     float64 `json:"cash_weight"`
	HasCashWeight  bool    `json:"has_cash_weight"`
	FundAssetRatio string  `json:"fund_asset_ratio,omitempty"` // raw field, parsed by the consumer
}

// EstimateResult is the output of the estimation engine. Transient:
// a pure function of (holdings, quotes, last NAV), recomputed on every
// input change and never persisted on its own.
type EstimateResult struct {
	ChangePct      float64   `json:"change_p"`
	Nav            float64   `json:"nav"`
	KnownWeightPct float64   `json:"known_weight_p"` // estimate confidence input
	ComputedAt     time.Time `json:"computed_at"`
}

// FundDetail aggregates everything the dashboard shows for one fund.
// Cached with entity-level replace semantics, keyed by fund code.
type FundDetail struct {
	FundCode  string                     `json:"fund_code"`
	Estimate  *FundEstimate              `json:"estimate,omitempty"`
	Holdings  *HoldingsDisclosure        `json:"holdings,omitempty"`
	Quotes    map[string]InstrumentQuote `json:"quotes,omitempty"`
	Result    *EstimateResult            `json:"result,omitempty"`
	Live      bool                       `json:"live"` // market session open when computed
	UpdatedAt time.Time                  `json:"updated_at"`
}

// FundSearchResult is one fuzzy-search hit.
type FundSearchResult struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}
