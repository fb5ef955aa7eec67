package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/qiuyin/fundwatch/internal/common"
	"github.com/qiuyin/fundwatch/internal/models"
)

// --- Test helpers ---

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	logger := common.NewSilentLogger()
	store, err := NewStore(logger, filepath.Join(dir, "badger"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}

// --- Store tests ---

func TestStore_OpenClose(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(testLogger(), filepath.Join(dir, "badger"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{}
	if err := store.Close(); err != nil {
		t.Fatalf("Close on nil DB should not error: %v", err)
	}
}

// --- Watchlist storage tests ---

func TestWatchlistStorage_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ws := NewWatchlistStorage(store, testLogger())
	ctx := context.Background()

	if _, err := ws.GetWatchlist(ctx); err == nil {
		t.Fatal("expected error for missing watchlist")
	}

	wl := &models.Watchlist{
		Entries: []models.WatchlistEntry{
			{FundCode: "110011", Name: "E Fund Quality", AddedAt: time.Now()},
		},
	}
	if err := ws.SaveWatchlist(ctx, wl); err != nil {
		t.Fatalf("SaveWatchlist failed: %v", err)
	}
	if wl.Version != 1 {
		t.Errorf("Version = %d, want 1", wl.Version)
	}

	got, err := ws.GetWatchlist(ctx)
	if err != nil {
		t.Fatalf("GetWatchlist failed: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].FundCode != "110011" {
		t.Errorf("unexpected watchlist: %+v", got)
	}
}

func TestWatchlistStorage_VersionIncrements(t *testing.T) {
	store := newTestStore(t)
	ws := NewWatchlistStorage(store, testLogger())
	ctx := context.Background()

	wl := &models.Watchlist{}
	if err := ws.SaveWatchlist(ctx, wl); err != nil {
		t.Fatalf("first save: %v", err)
	}
	created := wl.CreatedAt

	wl.Entries = append(wl.Entries, models.WatchlistEntry{FundCode: "007339"})
	if err := ws.SaveWatchlist(ctx, wl); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if wl.Version != 2 {
		t.Errorf("Version = %d, want 2", wl.Version)
	}
	if !wl.CreatedAt.Equal(created) {
		t.Error("CreatedAt should be preserved across saves")
	}
}

func TestWatchlistStorage_DeleteIdempotent(t *testing.T) {
	store := newTestStore(t)
	ws := NewWatchlistStorage(store, testLogger())
	ctx := context.Background()

	if err := ws.DeleteWatchlist(ctx); err != nil {
		t.Fatalf("delete of missing watchlist should not error: %v", err)
	}
	if err := ws.SaveWatchlist(ctx, &models.Watchlist{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := ws.DeleteWatchlist(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := ws.GetWatchlist(ctx); err == nil {
		t.Fatal("watchlist should be gone")
	}
}

// --- Fund detail storage tests ---

func TestFundDetailStorage_ReplaceSemantics(t *testing.T) {
	store := newTestStore(t)
	fs := NewFundDetailStorage(store, testLogger())
	ctx := context.Background()

	first := &models.FundDetail{
		FundCode: "110011",
		Estimate: &models.FundEstimate{FundCode: "110011", Nav: 4.3},
		Result:   &models.EstimateResult{ChangePct: 0.5, Nav: 4.32, KnownWeightPct: 55},
	}
	if err := fs.SaveFundDetail(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Entity-level replace: the second save has no Result, and the
	// cached entity must not retain the old one.
	second := &models.FundDetail{
		FundCode: "110011",
		Estimate: &models.FundEstimate{FundCode: "110011", Nav: 4.31},
	}
	if err := fs.SaveFundDetail(ctx, second); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := fs.GetFundDetail(ctx, "110011")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Result != nil {
		t.Error("replace should drop the previous estimation result")
	}
	if got.Estimate == nil || got.Estimate.Nav != 4.31 {
		t.Errorf("unexpected estimate: %+v", got.Estimate)
	}
}

func TestFundDetailStorage_RequiresCode(t *testing.T) {
	store := newTestStore(t)
	fs := NewFundDetailStorage(store, testLogger())

	if err := fs.SaveFundDetail(context.Background(), &models.FundDetail{}); err == nil {
		t.Fatal("expected error for missing fund code")
	}
}

func TestFundDetailStorage_ListFundCodes(t *testing.T) {
	store := newTestStore(t)
	fs := NewFundDetailStorage(store, testLogger())
	ctx := context.Background()

	for _, code := range []string{"110011", "007339"} {
		if err := fs.SaveFundDetail(ctx, &models.FundDetail{FundCode: code}); err != nil {
			t.Fatalf("save %s: %v", code, err)
		}
	}

	codes, err := fs.ListFundCodes(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(codes) != 2 {
		t.Errorf("expected 2 codes, got %v", codes)
	}
}

// --- KV storage tests ---

func TestKVStorage_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	kv := NewKVStorage(store, testLogger())
	ctx := context.Background()

	if _, err := kv.Get(ctx, "gemini_api_key"); err == nil {
		t.Fatal("expected error for missing key")
	}

	if err := kv.Set(ctx, "gemini_api_key", "secret"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := kv.Get(ctx, "gemini_api_key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "secret" {
		t.Errorf("value = %q", v)
	}

	all, err := kv.GetAll(ctx)
	if err != nil {
		t.Fatalf("getall: %v", err)
	}
	if all["gemini_api_key"] != "secret" {
		t.Errorf("GetAll = %v", all)
	}

	if err := kv.Delete(ctx, "gemini_api_key"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := kv.Delete(ctx, "gemini_api_key"); err != nil {
		t.Fatalf("repeat delete should not error: %v", err)
	}
}
