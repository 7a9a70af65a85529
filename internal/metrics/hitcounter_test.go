package metrics

import "testing"

func TestHitCounterRatiosAfterMixedTraffic(t *testing.T) {
	h := NewHitCounter()
	h.FromCache(100)
	h.FromCache(50)
	h.FromServer(200)

	stats := h.Stats()
	if stats.CacheHits != 2 {
		t.Fatalf("expected 2 cache hits, got %d", stats.CacheHits)
	}
	if stats.NbServed != 3 {
		t.Fatalf("expected 3 served, got %d", stats.NbServed)
	}
	if stats.ByteCache != 150 {
		t.Fatalf("expected byte_cache=150, got %v", stats.ByteCache)
	}
	if stats.ByteServed != 350 {
		t.Fatalf("expected byte_served=350, got %v", stats.ByteServed)
	}
	wantHitRatio := 2.0 / 3.0
	if stats.HitRatio != wantHitRatio {
		t.Fatalf("expected hit_ratio=%v, got %v", wantHitRatio, stats.HitRatio)
	}
	wantByteHitRatio := 150.0 / 350.0
	if stats.ByteHitRatio != wantByteHitRatio {
		t.Fatalf("expected byte_hit_ratio=%v, got %v", wantByteHitRatio, stats.ByteHitRatio)
	}
}

func TestHitCounterZeroStateHasZeroRatios(t *testing.T) {
	h := NewHitCounter()
	stats := h.Stats()
	if stats.HitRatio != 0 || stats.ByteHitRatio != 0 {
		t.Fatalf("expected zero ratios with no traffic, got %+v", stats)
	}
}

func TestHitCounterUnlimitedCacheEquivalence(t *testing.T) {
	// Hit-ratio monotone property (spec §8): for an unlimited cache, hits
	// should equal total requests minus distinct videos, which here means
	// every repeat request is a hit and every first request is a miss.
	h := NewHitCounter()
	requests := []string{"v1", "v2", "v1", "v3", "v1", "v2"}
	seen := map[string]bool{}
	for _, id := range requests {
		if seen[id] {
			h.FromCache(10)
		} else {
			seen[id] = true
			h.FromServer(10)
		}
	}
	stats := h.Stats()
	distinct := int64(len(seen))
	wantHits := int64(len(requests)) - distinct
	if stats.CacheHits != wantHits {
		t.Fatalf("expected %d hits, got %d", wantHits, stats.CacheHits)
	}
}
