package fund

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/qiuyin/fundwatch/internal/common"
	"github.com/qiuyin/fundwatch/internal/interfaces"
	"github.com/qiuyin/fundwatch/internal/models"
)

// --- Mocks ---

type mockEastmoney struct {
	estimate    *models.FundEstimate
	estimateErr error

	holdings    *models.HoldingsDisclosure
	holdingsErr error

	allocation    *models.AssetAllocation
	allocationErr error

	quotes      map[string]models.InstrumentQuote
	quotesErr   error
	quotedCodes []string

	searchResults []models.FundSearchResult
	searchErr     error
}

func (m *mockEastmoney) GetFundEstimate(_ context.Context, fundCode string) (*models.FundEstimate, error) {
	if m.estimateErr != nil {
		return nil, m.estimateErr
	}
	return m.estimate, nil
}

func (m *mockEastmoney) GetHoldings(_ context.Context, fundCode string) (*models.HoldingsDisclosure, error) {
	if m.holdingsErr != nil {
		return nil, m.holdingsErr
	}
	return m.holdings, nil
}

func (m *mockEastmoney) GetAssetAllocation(_ context.Context, fundCode string) (*models.AssetAllocation, error) {
	if m.allocationErr != nil {
		return nil, m.allocationErr
	}
	return m.allocation, nil
}

func (m *mockEastmoney) GetQuotes(_ context.Context, codes []string) (map[string]models.InstrumentQuote, error) {
	m.quotedCodes = codes
	if m.quotesErr != nil {
		return nil, m.quotesErr
	}
	return m.quotes, nil
}

func (m *mockEastmoney) SearchFunds(_ context.Context, keyword string) ([]models.FundSearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResults, nil
}

type memFundDetailStore struct {
	details map[string]*models.FundDetail
	saveErr error
}

func newMemFundDetailStore() *memFundDetailStore {
	return &memFundDetailStore{details: make(map[string]*models.FundDetail)}
}

func (s *memFundDetailStore) GetFundDetail(_ context.Context, fundCode string) (*models.FundDetail, error) {
	d, ok := s.details[fundCode]
	if !ok {
		return nil, fmt.Errorf("fund detail for '%s' not found", fundCode)
	}
	return d, nil
}

func (s *memFundDetailStore) SaveFundDetail(_ context.Context, detail *models.FundDetail) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.details[detail.FundCode] = detail
	return nil
}

func (s *memFundDetailStore) DeleteFundDetail(_ context.Context, fundCode string) error {
	delete(s.details, fundCode)
	return nil
}

func (s *memFundDetailStore) ListFundCodes(_ context.Context) ([]string, error) {
	codes := make([]string, 0, len(s.details))
	for code := range s.details {
		codes = append(codes, code)
	}
	return codes, nil
}

type memStorage struct {
	fundDetails *memFundDetailStore
}

func (s *memStorage) WatchlistStore() interfaces.WatchlistStore   { return nil }
func (s *memStorage) FundDetailStore() interfaces.FundDetailStore { return s.fundDetails }
func (s *memStorage) KeyValueStore() interfaces.KeyValueStore     { return nil }
func (s *memStorage) Close() error                                { return nil }

func newTestService(client *mockEastmoney) (*Service, *memStorage) {
	storage := &memStorage{fundDetails: newMemFundDetailStore()}
	svc := NewService(storage, client, common.NewSilentLogger())
	return svc, storage
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// --- GetFundDetail ---

func TestGetFundDetail_FullSnapshot(t *testing.T) {
	client := &mockEastmoney{
		estimate: &models.FundEstimate{FundCode: "110011", Name: "E Fund Quality", Nav: 2.5},
		holdings: &models.HoldingsDisclosure{
			FundCode: "110011",
			Stocks: []models.Holding{
				{Code: "600519", Name: "Kweichow Moutai", Weight: 60},
				{Code: "000858", Name: "Wuliangye", Weight: 40},
			},
		},
		quotes: map[string]models.InstrumentQuote{
			"600519": {Code: "600519", ChangePct: 1.0},
			"000858": {Code: "000858", ChangePct: -2.0},
		},
	}
	svc, storage := newTestService(client)

	detail, err := svc.GetFundDetail(context.Background(), "110011", false)
	if err != nil {
		t.Fatalf("GetFundDetail failed: %v", err)
	}
	if detail.Result == nil {
		t.Fatal("expected an estimate result")
	}
	if !almostEqual(detail.Result.ChangePct, -0.2) {
		t.Errorf("ChangePct = %v, want -0.2", detail.Result.ChangePct)
	}
	if !almostEqual(detail.Result.Nav, 2.495) {
		t.Errorf("Nav = %v, want 2.495", detail.Result.Nav)
	}
	if len(client.quotedCodes) != 2 {
		t.Errorf("quoted codes = %v", client.quotedCodes)
	}
	if _, ok := storage.fundDetails.details["110011"]; !ok {
		t.Error("detail should be cached after assembly")
	}
}

func TestGetFundDetail_CacheHitSkipsFetch(t *testing.T) {
	client := &mockEastmoney{
		estimateErr: fmt.Errorf("upstream down"),
	}
	svc, storage := newTestService(client)
	storage.fundDetails.details["110011"] = &models.FundDetail{
		FundCode:  "110011",
		UpdatedAt: time.Now(),
	}

	detail, err := svc.GetFundDetail(context.Background(), "110011", false)
	if err != nil {
		t.Fatalf("cached detail should be served: %v", err)
	}
	if detail.FundCode != "110011" {
		t.Errorf("unexpected detail: %+v", detail)
	}
}

func TestGetFundDetail_ForceBypassesCache(t *testing.T) {
	client := &mockEastmoney{
		estimate: &models.FundEstimate{FundCode: "110011", Nav: 2.6},
	}
	svc, storage := newTestService(client)
	storage.fundDetails.details["110011"] = &models.FundDetail{
		FundCode:  "110011",
		Estimate:  &models.FundEstimate{FundCode: "110011", Nav: 2.5},
		UpdatedAt: time.Now(),
	}

	detail, err := svc.GetFundDetail(context.Background(), "110011", true)
	if err != nil {
		t.Fatalf("GetFundDetail failed: %v", err)
	}
	if detail.Estimate.Nav != 2.6 {
		t.Errorf("force should refetch, got Nav %v", detail.Estimate.Nav)
	}
}

func TestGetFundDetail_StaleCacheOnUpstreamFailure(t *testing.T) {
	client := &mockEastmoney{
		estimateErr: fmt.Errorf("upstream down"),
	}
	svc, storage := newTestService(client)
	storage.fundDetails.details["110011"] = &models.FundDetail{
		FundCode:  "110011",
		UpdatedAt: time.Now().Add(-time.Hour),
	}

	detail, err := svc.GetFundDetail(context.Background(), "110011", false)
	if err != nil {
		t.Fatalf("stale cache should be served when upstream fails: %v", err)
	}
	if detail.FundCode != "110011" {
		t.Errorf("unexpected detail: %+v", detail)
	}
}

func TestGetFundDetail_NoCacheNoUpstream(t *testing.T) {
	client := &mockEastmoney{
		estimateErr: fmt.Errorf("upstream down"),
	}
	svc, _ := newTestService(client)

	if _, err := svc.GetFundDetail(context.Background(), "110011", false); err == nil {
		t.Fatal("expected error when neither cache nor upstream is available")
	}
}

func TestGetFundDetail_HoldingsFailureDegradesToNoEstimate(t *testing.T) {
	client := &mockEastmoney{
		estimate:    &models.FundEstimate{FundCode: "110011", Nav: 2.5},
		holdingsErr: fmt.Errorf("holdings feed down"),
	}
	svc, _ := newTestService(client)

	detail, err := svc.GetFundDetail(context.Background(), "110011", false)
	if err != nil {
		t.Fatalf("holdings failure must not fail the snapshot: %v", err)
	}
	if detail.Result != nil {
		t.Error("no holdings, no estimate")
	}
	if detail.Estimate == nil || detail.Estimate.Nav != 2.5 {
		t.Errorf("confirmed NAV should still be present: %+v", detail.Estimate)
	}
}

func TestGetFundDetail_QuoteFailureDegradesToNoEstimate(t *testing.T) {
	client := &mockEastmoney{
		estimate: &models.FundEstimate{FundCode: "110011", Nav: 2.5},
		holdings: &models.HoldingsDisclosure{
			FundCode: "110011",
			Stocks:   []models.Holding{{Code: "600519", Weight: 60}},
		},
		quotesErr: fmt.Errorf("quote feed down"),
	}
	svc, _ := newTestService(client)

	detail, err := svc.GetFundDetail(context.Background(), "110011", false)
	if err != nil {
		t.Fatalf("quote failure must not fail the snapshot: %v", err)
	}
	if detail.Result != nil {
		t.Error("no quotes, no estimate")
	}
}

func TestGetFundDetail_RequiresFundCode(t *testing.T) {
	svc, _ := newTestService(&mockEastmoney{})
	if _, err := svc.GetFundDetail(context.Background(), "", false); err == nil {
		t.Fatal("expected error for empty fund code")
	}
}

// --- Synthetic feeder holding ---

func feederHoldings(knownWeights ...float64) *models.HoldingsDisclosure {
	h := &models.HoldingsDisclosure{
		FundCode:     "007339",
		FeederTarget: &models.FeederTarget{Code: "513100", Name: "Nasdaq 100 ETF"},
	}
	for i, w := range knownWeights {
		h.Stocks = append(h.Stocks, models.Holding{Code: fmt.Sprintf("60000%d", i), Weight: w})
	}
	return h
}

func syntheticOf(t *testing.T, detail *models.FundDetail) models.Holding {
	t.Helper()
	for _, h := range detail.Holdings.Stocks {
		if h.Synthetic {
			return h
		}
	}
	t.Fatal("no synthetic holding appended")
	return models.Holding{}
}

func TestSyntheticHolding_PreciseRatioWins(t *testing.T) {
	client := &mockEastmoney{
		estimate:   &models.FundEstimate{FundCode: "007339", Nav: 1.2},
		holdings:   feederHoldings(10),
		allocation: &models.AssetAllocation{FundAssetRatio: "92.35", CashWeight: 3, HasCashWeight: true},
	}
	svc, _ := newTestService(client)

	detail, err := svc.GetFundDetail(context.Background(), "007339", false)
	if err != nil {
		t.Fatalf("GetFundDetail failed: %v", err)
	}
	syn := syntheticOf(t, detail)
	if !almostEqual(syn.Weight, 92.35) {
		t.Errorf("synthetic weight = %v, want 92.35", syn.Weight)
	}
	if syn.Code != "513100" {
		t.Errorf("synthetic code = %q", syn.Code)
	}
}

func TestSyntheticHolding_CashResidual(t *testing.T) {
	client := &mockEastmoney{
		estimate:   &models.FundEstimate{FundCode: "007339", Nav: 1.2},
		holdings:   feederHoldings(20, 10),
		allocation: &models.AssetAllocation{CashWeight: 4, HasCashWeight: true},
	}
	svc, _ := newTestService(client)

	detail, err := svc.GetFundDetail(context.Background(), "007339", false)
	if err != nil {
		t.Fatalf("GetFundDetail failed: %v", err)
	}
	syn := syntheticOf(t, detail)
	// 100 - 4 cash - 30 known = 66
	if !almostEqual(syn.Weight, 66) {
		t.Errorf("synthetic weight = %v, want 66", syn.Weight)
	}
}

func TestSyntheticHolding_DefaultCashResidual(t *testing.T) {
	client := &mockEastmoney{
		estimate: &models.FundEstimate{FundCode: "007339", Nav: 1.2},
		holdings: feederHoldings(30),
	}
	svc, _ := newTestService(client)

	detail, err := svc.GetFundDetail(context.Background(), "007339", false)
	if err != nil {
		t.Fatalf("GetFundDetail failed: %v", err)
	}
	syn := syntheticOf(t, detail)
	// 95 - 30 known = 65
	if !almostEqual(syn.Weight, 65) {
		t.Errorf("synthetic weight = %v, want 65", syn.Weight)
	}
}

func TestSyntheticHolding_AllocationFailureDegrades(t *testing.T) {
	client := &mockEastmoney{
		estimate:      &models.FundEstimate{FundCode: "007339", Nav: 1.2},
		holdings:      feederHoldings(30),
		allocationErr: fmt.Errorf("allocation feed down"),
	}
	svc, _ := newTestService(client)

	detail, err := svc.GetFundDetail(context.Background(), "007339", false)
	if err != nil {
		t.Fatalf("allocation failure must not fail the snapshot: %v", err)
	}
	syn := syntheticOf(t, detail)
	if !almostEqual(syn.Weight, 65) {
		t.Errorf("synthetic weight = %v, want 65", syn.Weight)
	}
}

func TestSyntheticHolding_OutOfRangeRatioFallsThrough(t *testing.T) {
	cases := []struct {
		name  string
		ratio string
		want  float64
	}{
		{"zero ratio", "0", 66},
		{"full ratio", "100", 66},
		{"unparseable", "---", 66},
		{"empty", "", 66},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &mockEastmoney{
				estimate:   &models.FundEstimate{FundCode: "007339", Nav: 1.2},
				holdings:   feederHoldings(20, 10),
				allocation: &models.AssetAllocation{FundAssetRatio: tc.ratio, CashWeight: 4, HasCashWeight: true},
			}
			svc, _ := newTestService(client)
			detail, err := svc.GetFundDetail(context.Background(), "007339", false)
			if err != nil {
				t.Fatalf("GetFundDetail failed: %v", err)
			}
			syn := syntheticOf(t, detail)
			if !almostEqual(syn.Weight, tc.want) {
				t.Errorf("synthetic weight = %v, want %v", syn.Weight, tc.want)
			}
		})
	}
}

func TestSyntheticHolding_NegativeResidualOmitted(t *testing.T) {
	client := &mockEastmoney{
		estimate: &models.FundEstimate{FundCode: "007339", Nav: 1.2},
		holdings: feederHoldings(60, 40),
	}
	svc, _ := newTestService(client)

	detail, err := svc.GetFundDetail(context.Background(), "007339", false)
	if err != nil {
		t.Fatalf("GetFundDetail failed: %v", err)
	}
	for _, h := range detail.Holdings.Stocks {
		if h.Synthetic {
			t.Errorf("non-positive residual must not produce a synthetic holding, got %v", h.Weight)
		}
	}
}

func TestSyntheticHolding_NotAppendedWithoutFeederTarget(t *testing.T) {
	client := &mockEastmoney{
		estimate: &models.FundEstimate{FundCode: "110011", Nav: 2.5},
		holdings: &models.HoldingsDisclosure{
			FundCode: "110011",
			Stocks:   []models.Holding{{Code: "600519", Weight: 60}},
		},
		quotes: map[string]models.InstrumentQuote{
			"600519": {Code: "600519", ChangePct: 1.0},
		},
	}
	svc, _ := newTestService(client)

	detail, err := svc.GetFundDetail(context.Background(), "110011", false)
	if err != nil {
		t.Fatalf("GetFundDetail failed: %v", err)
	}
	if len(detail.Holdings.Stocks) != 1 {
		t.Errorf("no synthetic holding expected: %+v", detail.Holdings.Stocks)
	}
}

// --- SearchFunds ---

func TestSearchFunds(t *testing.T) {
	client := &mockEastmoney{
		searchResults: []models.FundSearchResult{{Code: "110011", Name: "E Fund Quality"}},
	}
	svc, _ := newTestService(client)

	results, err := svc.SearchFunds(context.Background(), "quality")
	if err != nil {
		t.Fatalf("SearchFunds failed: %v", err)
	}
	if len(results) != 1 || results[0].Code != "110011" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestSearchFunds_RequiresKeyword(t *testing.T) {
	svc, _ := newTestService(&mockEastmoney{})
	if _, err := svc.SearchFunds(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty keyword")
	}
}
