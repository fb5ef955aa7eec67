package models

import (
	"strings"
	"time"
)

// WatchlistEntry is one tracked fund. Created and removed only by
// explicit user action; persisted across sessions.
type WatchlistEntry struct {
	FundCode  string    `json:"fund_code"`
	Name      string    `json:"name"`
	Shares    float64   `json:"shares,omitempty"`
	CostBasis float64   `json:"cost_basis,omitempty"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Watchlist is the user's set of tracked funds.
type Watchlist struct {
	Entries   []WatchlistEntry `json:"entries"`
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// FindByCode returns the entry with the given fund code and its index,
// or nil and -1 when absent.
func (w *Watchlist) FindByCode(fundCode string) (*WatchlistEntry, int) {
	fundCode = strings.TrimSpace(fundCode)
	for i := range w.Entries {
		if w.Entries[i].FundCode == fundCode {
			return &w.Entries[i], i
		}
	}
	return nil, -1
}
