// Package estimator computes intraday NAV estimates from disclosed
// holdings and live quotes. It performs no I/O and holds no state.
package estimator

import (
	"errors"
	"math"
	"time"

	"github.com/qiuyin/fundwatch/internal/models"
)

// ErrUnavailable is returned when no estimate can be computed. Callers
// must render "no estimate available" rather than a zero or stale value.
var ErrUnavailable = errors.New("estimate unavailable")

// Estimate extrapolates an intraday change percentage and NAV from the
// fund's disclosed holdings, a quote map (possibly missing entries),
// and the last confirmed NAV.
//
// Holdings without a resolvable quote, with a provider no-data sentinel,
// or with a non-numeric change contribute to neither the numerator nor
// the denominator. The weighted-average change of the remaining
// holdings is re-normalized to their own total weight rather than to
// 100%: the undisclosed portion of the portfolio is assumed to move
// identically to the known portion. That re-normalization is the
// intended behavior of the system, not an artifact.
func Estimate(holdings []models.Holding, quotes map[string]models.InstrumentQuote, lastNav float64) (*models.EstimateResult, error) {
	if len(holdings) == 0 || len(quotes) == 0 || !(lastNav > 0) {
		return nil, ErrUnavailable
	}

	var weightedChangeSum, weightSum float64
	for _, h := range holdings {
		q, ok := quotes[h.Code]
		if !ok || q.NoData {
			continue
		}
		if math.IsNaN(q.ChangePct) || math.IsInf(q.ChangePct, 0) {
			continue
		}
		if !(h.Weight > 0) {
			continue
		}
		w := h.Weight / 100
		weightedChangeSum += w * q.ChangePct
		weightSum += w
	}

	if weightSum == 0 {
		return nil, ErrUnavailable
	}

	changePct := weightedChangeSum / weightSum
	return &models.EstimateResult{
		ChangePct:      changePct,
		Nav:            lastNav * (1 + changePct/100),
		KnownWeightPct: weightSum * 100,
		ComputedAt:     time.Now(),
	}, nil
}
