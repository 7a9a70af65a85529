// Package metrics collects the proxy hit statistics and per-client latency
// samples of spec.md §7/§8 (grounded on the teacher's internal/logger and
// bufpool style: small, independently lockable collectors composed by the
// orchestrator rather than threaded through every call site).
package metrics

import "sync"

// HitStats is the exact field set of the original's ProxyHitCounter.get_stats
// (metrics.py), reproduced so the proxy CSV output stays schema-compatible.
type HitStats struct {
	CacheHits     int64   `csv:"cache_hits"`
	NbServed      int64   `csv:"nb_served"`
	HitRatio      float64 `csv:"hit_ratio"`
	ByteCache     float64 `csv:"byte_cache"`
	ByteServed    float64 `csv:"byte_served"`
	ByteHitRatio  float64 `csv:"byte_hit_ratio"`
}

// HitCounter accumulates cache hit/miss byte counters for a single proxy.
// All sizes are kilobits throughout (resolved Open Question a, DESIGN.md) —
// unlike the Python original, there is no /8 conversion anywhere here.
type HitCounter struct {
	mu         sync.Mutex
	cacheHits  int64
	nbServed   int64
	byteCache  float64
	byteServed float64
}

// NewHitCounter constructs an empty counter.
func NewHitCounter() *HitCounter { return &HitCounter{} }

// FromCache records a response served out of the cache (spec §4.5 request
// path, cache-hit branch): wire this as the Proxy's OnCacheHit hook.
func (h *HitCounter) FromCache(sizeKb float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byteCache += sizeKb
	h.byteServed += sizeKb
	h.cacheHits++
	h.nbServed++
}

// FromServer records a response served (and, for a caching proxy, admitted)
// from origin: wire this as the Proxy's OnCacheMiss hook.
func (h *HitCounter) FromServer(sizeKb float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byteServed += sizeKb
	h.nbServed++
}

// Stats computes the derived ratios and returns a snapshot safe to write
// out as a CSV row.
func (h *HitCounter) Stats() HitStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	var hitRatio, byteHitRatio float64
	if h.nbServed != 0 {
		hitRatio = float64(h.cacheHits) / float64(h.nbServed)
	}
	if h.byteServed != 0 {
		byteHitRatio = h.byteCache / h.byteServed
	}
	return HitStats{
		CacheHits:    h.cacheHits,
		NbServed:     h.nbServed,
		HitRatio:     hitRatio,
		ByteCache:    h.byteCache,
		ByteServed:   h.byteServed,
		ByteHitRatio: byteHitRatio,
	}
}
