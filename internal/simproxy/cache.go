// Package simproxy implements the proxy request/response state machine
// (spec §4.4) and the pluggable cache layer built on top of it (spec
// §4.5): FIFO, LRU, and Unlimited eviction policies sharing one admission/
// space-accounting core.
package simproxy

import "github.com/alxayo/videocache-sim/internal/simnet"

// Policy is the pluggable half of the cache layer (spec §4.5): admission,
// victim selection, and the two auxiliary-structure update hooks. All
// methods are called while the owning Proxy holds its proxy-wide mutex, so
// implementations need no locking of their own.
type Policy interface {
	// Admit decides whether video may enter the cache at all.
	Admit(video simnet.Video) bool
	// SelectEvict names a currently cached video id to remove, along with
	// whether one was available (false only once the cache is already
	// empty).
	SelectEvict() (videoID string, ok bool)
	// OnInsert updates auxiliary policy structures after an admission.
	OnInsert(video simnet.Video)
	// OnServe updates auxiliary policy structures after a cache hit.
	OnServe(video simnet.Video)
}

// Cache is the common admission / eviction / space-accounting layer
// shared by every concrete policy (spec §4.5: "Common operations provided
// by the layer"). It holds no lock of its own; the owning Proxy serializes
// all access with the same mutex that guards active_requests (spec §5).
type Cache struct {
	store         map[string]simnet.Video
	currentSizeKb float64
	maxSizeKb     float64
	policy        Policy
}

// NewCache constructs an empty cache bounded at maxSizeKb, delegating
// admission/eviction decisions to policy.
func NewCache(maxSizeKb float64, policy Policy) *Cache {
	return &Cache{
		store:     make(map[string]simnet.Video),
		maxSizeKb: maxSizeKb,
		policy:    policy,
	}
}

// CurrentSizeKb returns the cache's current occupancy.
func (c *Cache) CurrentSizeKb() float64 { return c.currentSizeKb }

// MaxSizeKb returns the cache's configured capacity.
func (c *Cache) MaxSizeKb() float64 { return c.maxSizeKb }

// SetMaxSizeKb changes the cache's capacity. If the new capacity is
// smaller than the current occupancy, the policy is asked to evict until
// the cache fits again, the same way a normal admission would. Supports
// live config reload of cache_size (SPEC_FULL.md §1's optional
// fsnotify-based config watch).
func (c *Cache) SetMaxSizeKb(v float64) {
	c.maxSizeKb = v
	c.makeSpace(0)
}

// Get looks up videoID. On a hit it notifies the policy via OnServe
// (spec §4.5 request path: "on_serve(video)").
func (c *Cache) Get(videoID string) (simnet.Video, bool) {
	v, ok := c.store[videoID]
	if ok {
		c.policy.OnServe(v)
	}
	return v, ok
}

// isFull reports whether adding extraKb would meet or exceed capacity
// (spec §4.5: "is_full(extra_kb) = current_size_kb + extra_kb >= max_size_kb").
func (c *Cache) isFull(extraKb float64) bool {
	return c.currentSizeKb+extraKb >= c.maxSizeKb
}

// makeSpace evicts via the policy until the cache can hold targetKb more,
// or until the policy reports the cache is empty (spec §4.5: "while
// is_full(target_kb), call select_evict").
func (c *Cache) makeSpace(targetKb float64) {
	for c.isFull(targetKb) {
		id, ok := c.policy.SelectEvict()
		if !ok {
			return
		}
		if v, exists := c.store[id]; exists {
			c.currentSizeKb -= v.SizeKb
			delete(c.store, id)
		}
	}
}

// insert adds video to the store, updates size accounting, and notifies
// the policy (spec §4.5: "insert(video): add to store, increment
// current_size_kb, call on_insert").
func (c *Cache) insert(video simnet.Video) {
	c.store[video.VideoID] = video
	c.currentSizeKb += video.SizeKb
	c.policy.OnInsert(video)
}

// MaybeAdmit implements the response-path admission check (spec §4.5):
// insert video only if it is not already cached, the policy admits it,
// and it is smaller than the cache's capacity. Returns whether it was
// inserted.
func (c *Cache) MaybeAdmit(video simnet.Video) bool {
	if _, exists := c.store[video.VideoID]; exists {
		return false
	}
	if !c.policy.Admit(video) {
		return false
	}
	if video.SizeKb >= c.maxSizeKb {
		return false
	}
	c.makeSpace(video.SizeKb)
	c.insert(video)
	return true
}
