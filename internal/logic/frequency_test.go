package logic

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
)

func testRedis(t *testing.T) *db.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := db.InitRedis(mr.Addr())
	if err != nil {
		t.Fatalf("init redis: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestBannerFrequenciesRoundTrip(t *testing.T) {
	store := testRedis(t)

	if err := IncrementBannerFrequency(store, 7, 42); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := IncrementBannerFrequency(store, 7, 42); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := IncrementBannerFrequency(store, 7, 43); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := IncrementBannerFrequency(store, 8, 42); err != nil {
		t.Fatalf("increment other viewer: %v", err)
	}

	freqs, ok := BannerFrequencies(store, 7)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if freqs[42] != 2 || freqs[43] != 1 {
		t.Errorf("freqs = %v, want banner 42 -> 2, banner 43 -> 1", freqs)
	}
	if len(freqs) != 2 {
		t.Errorf("viewer 8's counters leaked into viewer 7's hash: %v", freqs)
	}
}

func TestBannerFrequenciesEmptyViewer(t *testing.T) {
	store := testRedis(t)
	freqs, ok := BannerFrequencies(store, 999)
	if !ok {
		t.Fatal("an empty hash is still a hit")
	}
	if len(freqs) != 0 {
		t.Errorf("freqs = %v, want empty", freqs)
	}
}

func TestBannerFrequenciesNilStore(t *testing.T) {
	if _, ok := BannerFrequencies(nil, 7); ok {
		t.Error("nil store must report a miss")
	}
	if err := IncrementBannerFrequency(nil, 7, 42); err != ErrNilRedisStore {
		t.Errorf("err = %v, want ErrNilRedisStore", err)
	}
}
