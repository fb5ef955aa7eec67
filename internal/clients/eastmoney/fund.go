package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qiuyin/fundwatch/internal/models"
)

// basicInfoResponse is the mobile API envelope for fund basic
// information.
type basicInfoResponse struct {
	Datas *struct {
		FCode     string      `json:"FCODE"`
		ShortName string      `json:"SHORTNAME"`
		DWJZ      flexFloat64 `json:"DWJZ"` // last confirmed unit NAV
		RZDF      flexFloat64 `json:"RZDF"` // official daily change %
		FSRQ      string      `json:"FSRQ"` // NAV date
	} `json:"Datas"`
	ErrCode int    `json:"ErrCode"`
	ErrMsg  string `json:"ErrMsg"`
}

// estimateFeedResponse is the public JSONP estimate feed payload, used
// as a fallback when the mobile API is unavailable.
type estimateFeedResponse struct {
	FundCode string `json:"fundcode"`
	Name     string `json:"name"`
	DWJZ     string `json:"dwjz"`   // last confirmed unit NAV
	JZRQ     string `json:"jzrq"`   // NAV date
	GSZZL    string `json:"gszzl"`  // provider's own intraday change estimate
	GZTime   string `json:"gztime"` // provider estimate timestamp
}

// GetFundEstimate retrieves the last confirmed NAV and official daily
// change for a fund. The mobile API is the primary source; on failure
// the public JSONP feed is tried before giving up.
func (c *Client) GetFundEstimate(ctx context.Context, fundCode string) (*models.FundEstimate, error) {
	est, primaryErr := c.fetchBasicInfo(ctx, fundCode)
	if primaryErr == nil {
		return est, nil
	}

	c.logger.Warn().Err(primaryErr).Str("fund", fundCode).Msg("Basic info feed failed, trying JSONP estimate feed")

	est, fallbackErr := c.fetchEstimateFeed(ctx, fundCode)
	if fallbackErr != nil {
		return nil, primaryErr
	}
	return est, nil
}

func (c *Client) fetchBasicInfo(ctx context.Context, fundCode string) (*models.FundEstimate, error) {
	var resp basicInfoResponse
	if err := c.getJSON(ctx, c.mobileBaseURL, "/FundMNewApi/FundMNBasicInformation", mobileParams(fundCode), &resp); err != nil {
		return nil, err
	}
	if resp.Datas == nil || resp.Datas.FCode == "" {
		return nil, fmt.Errorf("fund '%s': %w", fundCode, ErrNotFound)
	}
	if !(float64(resp.Datas.DWJZ) > 0) {
		return nil, fmt.Errorf("fund '%s' has no published NAV: %w", fundCode, ErrNotFound)
	}
	return &models.FundEstimate{
		FundCode:  resp.Datas.FCode,
		Name:      resp.Datas.ShortName,
		Nav:       float64(resp.Datas.DWJZ),
		ChangePct: float64(resp.Datas.RZDF),
		AsOf:      resp.Datas.FSRQ,
	}, nil
}

func (c *Client) fetchEstimateFeed(ctx context.Context, fundCode string) (*models.FundEstimate, error) {
	params := url.Values{}
	params.Set("rt", strconv.FormatInt(time.Now().Unix(), 10))

	body, err := c.getRaw(ctx, c.fundBaseURL, "/js/"+fundCode+".js", params)
	if err != nil {
		return nil, err
	}

	payload := unwrapJSONP(string(body))
	if payload == "" {
		return nil, fmt.Errorf("fund '%s': empty estimate feed: %w", fundCode, ErrNotFound)
	}

	var feed estimateFeedResponse
	if err := json.Unmarshal([]byte(payload), &feed); err != nil {
		return nil, fmt.Errorf("failed to decode estimate feed: %w", err)
	}
	if feed.FundCode == "" {
		return nil, fmt.Errorf("fund '%s': %w", fundCode, ErrNotFound)
	}

	nav, err := strconv.ParseFloat(feed.DWJZ, 64)
	if err != nil || !(nav > 0) {
		return nil, fmt.Errorf("fund '%s' has no published NAV: %w", fundCode, ErrNotFound)
	}

	// The feed carries the provider's own intraday change estimate, not
	// the official daily change. Best available on this path.
	changePct, _ := strconv.ParseFloat(feed.GSZZL, 64)

	return &models.FundEstimate{
		FundCode:  feed.FundCode,
		Name:      feed.Name,
		Nav:       nav,
		ChangePct: changePct,
		AsOf:      feed.JZRQ,
	}, nil
}

// holdingsResponse is the mobile API envelope for disclosed positions.
type holdingsResponse struct {
	Datas *struct {
		FundStocks []struct {
			GPDM string `json:"GPDM"` // stock code
			GPJC string `json:"GPJC"` // stock short name
			JZBL string `json:"JZBL"` // weight in fund assets, percent
			CGS  string `json:"CGS"`  // share count (wan)
			CGSZ string `json:"CGSZ"` // market value (wan yuan)
		} `json:"fundStocks"`
		FundBonds []struct {
			ZQDM string `json:"ZQDM"`
			ZQMC string `json:"ZQMC"`
			ZQBL string `json:"ZQBL"`
		} `json:"fundboods"`
		ETFCode      string `json:"ETFCODE"`      // feeder target, when the fund tracks one vehicle
		ETFShortName string `json:"ETFSHORTNAME"` //
		Expansion    string `json:"Expansion"`    // disclosure date
	} `json:"Datas"`
	ErrCode int    `json:"ErrCode"`
	ErrMsg  string `json:"ErrMsg"`
}

// GetHoldings retrieves the disclosed top holdings for a fund. Entries
// whose weight field does not parse are kept with zero weight so the
// dashboard can still list them; the estimator skips them.
func (c *Client) GetHoldings(ctx context.Context, fundCode string) (*models.HoldingsDisclosure, error) {
	var resp holdingsResponse
	if err := c.getJSON(ctx, c.mobileBaseURL, "/FundMNewApi/FundMNInverstPosition", mobileParams(fundCode), &resp); err != nil {
		return nil, err
	}
	if resp.Datas == nil {
		return nil, fmt.Errorf("fund '%s': %w", fundCode, ErrNotFound)
	}

	disclosure := &models.HoldingsDisclosure{
		FundCode:   fundCode,
		UpdateDate: resp.Datas.Expansion,
	}

	for _, s := range resp.Datas.FundStocks {
		code := strings.TrimSpace(s.GPDM)
		if code == "" {
			continue
		}
		h := models.Holding{
			Code: code,
			Name: s.GPJC,
		}
		if w, err := strconv.ParseFloat(s.JZBL, 64); err == nil {
			h.Weight = w
		}
		if v, err := strconv.ParseFloat(s.CGS, 64); err == nil {
			h.Shares = v
		}
		if v, err := strconv.ParseFloat(s.CGSZ, 64); err == nil {
			h.MarketValue = v
		}
		disclosure.Stocks = append(disclosure.Stocks, h)
	}

	for _, b := range resp.Datas.FundBonds {
		code := strings.TrimSpace(b.ZQDM)
		if code == "" && b.ZQMC == "" {
			continue
		}
		bond := models.BondHolding{Code: code, Name: b.ZQMC}
		if w, err := strconv.ParseFloat(b.ZQBL, 64); err == nil {
			bond.Weight = w
		}
		disclosure.Bonds = append(disclosure.Bonds, bond)
	}

	if target := strings.TrimSpace(resp.Datas.ETFCode); target != "" {
		disclosure.FeederTarget = &models.FeederTarget{
			Code: target,
			Name: resp.Datas.ETFShortName,
		}
	}

	return disclosure, nil
}

// allocationResponse is the mobile API envelope for the asset
// allocation time series.
type allocationResponse struct {
	Datas *struct {
		FundETFRatio string `json:"FUNDETFRATIO"` // precise fund-asset ratio, percent
		Allocations  []struct {
			FSRQ string      `json:"FSRQ"`
			HB   flexFloat64 `json:"HB"` // cash weight, percent
		} `json:"fundAssetAllocation"`
	} `json:"Datas"`
	ErrCode int    `json:"ErrCode"`
	ErrMsg  string `json:"ErrMsg"`
}

// GetAssetAllocation retrieves the latest cash weight and the precise
// fund-asset ratio field. Both are optional; callers fall back to the
// weight heuristic when this feed degrades.
func (c *Client) GetAssetAllocation(ctx context.Context, fundCode string) (*models.AssetAllocation, error) {
	var resp allocationResponse
	if err := c.getJSON(ctx, c.mobileBaseURL, "/FundMNewApi/FundMNAssetAllocationNew", mobileParams(fundCode), &resp); err != nil {
		return nil, err
	}
	if resp.Datas == nil {
		return nil, fmt.Errorf("fund '%s': %w", fundCode, ErrNotFound)
	}

	alloc := &models.AssetAllocation{
		FundAssetRatio: strings.TrimSpace(resp.Datas.FundETFRatio),
	}
	// Series is ordered most recent first; take the latest point.
	if len(resp.Datas.Allocations) > 0 {
		alloc.CashWeight = float64(resp.Datas.Allocations[0].HB)
		alloc.HasCashWeight = true
	}
	return alloc, nil
}

// searchResponse is the fund suggest feed payload.
type searchResponse struct {
	Datas []struct {
		Code         string `json:"CODE"`
		Name         string `json:"NAME"`
		CategoryDesc string `json:"CATEGORYDESC"`
	} `json:"Datas"`
}

// SearchFunds performs a fuzzy fund search by keyword.
func (c *Client) SearchFunds(ctx context.Context, keyword string) ([]models.FundSearchResult, error) {
	params := url.Values{}
	params.Set("m", "1")
	params.Set("key", keyword)

	var resp searchResponse
	if err := c.getJSON(ctx, c.searchBaseURL, "/FundSearch/api/FundSearchAPI.ashx", params, &resp); err != nil {
		return nil, err
	}

	results := make([]models.FundSearchResult, 0, len(resp.Datas))
	for _, d := range resp.Datas {
		results = append(results, models.FundSearchResult{
			Code: d.Code,
			Name: d.Name,
			Type: d.CategoryDesc,
		})
	}
	return results, nil
}
