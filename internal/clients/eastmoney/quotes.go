package eastmoney

import (
	"context"
	"net/url"
	"strings"

	"github.com/qiuyin/fundwatch/internal/models"
)

// quoteListResponse is the push2 batch quote envelope. f2/f3/f4 are
// price, change percent, and absolute change; a zero f2 with no f3 is
// the provider's no-data sentinel for suspended or unpriced
// instruments.
type quoteListResponse struct {
	Data *struct {
		Diff []struct {
			F2  flexFloat64 `json:"f2"`  // current price
			F3  flexFloat64 `json:"f3"`  // change percent
			F4  flexFloat64 `json:"f4"`  // absolute change
			F12 string      `json:"f12"` // instrument code
			F14 string      `json:"f14"` // display name
		} `json:"diff"`
	} `json:"data"`
}

// GetQuotes retrieves live quotes for a batch of instrument codes.
// Codes whose exchange cannot be classified are excluded from the
// request entirely. The returned map only omits codes the provider did
// not answer for; suspended instruments are present with NoData set so
// callers can distinguish "suspended" from "not requested".
func (c *Client) GetQuotes(ctx context.Context, codes []string) (map[string]models.InstrumentQuote, error) {
	secIDs := make([]string, 0, len(codes))
	for _, code := range codes {
		if secID, ok := secIDForCode(code); ok {
			secIDs = append(secIDs, secID)
		} else {
			c.logger.Debug().Str("code", code).Msg("Skipping instrument with unknown exchange")
		}
	}

	quotes := make(map[string]models.InstrumentQuote, len(secIDs))
	if len(secIDs) == 0 {
		return quotes, nil
	}

	params := url.Values{}
	params.Set("secids", strings.Join(secIDs, ","))
	params.Set("fields", "f2,f3,f4,f12,f14")

	var resp quoteListResponse
	if err := c.getJSON(ctx, c.quoteBaseURL, "/api/qt/ulist.np/get", params, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return quotes, nil
	}

	for _, d := range resp.Data.Diff {
		code := strings.TrimSpace(d.F12)
		if code == "" {
			continue
		}
		q := models.InstrumentQuote{
			Code:      code,
			Name:      d.F14,
			Price:     float64(d.F2),
			ChangePct: float64(d.F3),
			Change:    float64(d.F4),
		}
		if !(q.Price > 0) {
			q = models.InstrumentQuote{Code: code, Name: d.F14, NoData: true}
		}
		quotes[code] = q
	}

	c.logger.Debug().Int("requested", len(secIDs)).Int("returned", len(quotes)).Msg("Quote batch fetched")

	return quotes, nil
}
