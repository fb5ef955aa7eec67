// Package models defines data structures for fundwatch
package models

import "strings"

// Exchange identifies the listing venue derived from an instrument code.
type Exchange string

const (
	ExchangeShanghai Exchange = "SH"
	ExchangeShenzhen Exchange = "SZ"
	ExchangeHongKong Exchange = "HK"
	ExchangeUnknown  Exchange = ""
)

// shenzhenPrefixes are checked longest-first so "15"/"16" win over "1".
var shenzhenPrefixes = []string{"15", "16", "0", "3", "2", "8", "4"}

// ClassifyInstrument maps an instrument code to its exchange.
// 5-digit codes are Hong Kong listings; mainland codes are classified
// by their leading digits. Anything else is unknown and must be
// excluded from quote lookups.
func ClassifyInstrument(code string) Exchange {
	code = strings.TrimSpace(code)
	if code == "" {
		return ExchangeUnknown
	}
	if len(code) == 5 {
		return ExchangeHongKong
	}
	if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "5") {
		return ExchangeShanghai
	}
	for _, p := range shenzhenPrefixes {
		if strings.HasPrefix(code, p) {
			return ExchangeShenzhen
		}
	}
	return ExchangeUnknown
}

// InstrumentQuote holds a live price snapshot for one instrument.
// Ephemeral: refreshed per request, never persisted.
type InstrumentQuote struct {
	Code      string  `json:"code"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`   // absolute change
	ChangePct float64 `json:"change_p"` // percentage change
	NoData    bool    `json:"no_data,omitempty"` // provider sentinel: suspended or unpriced
}
