package simproxy

import (
	"math"
	"testing"

	"github.com/alxayo/videocache-sim/internal/simnet"
)

func TestFIFOEvictsEarliestInserted(t *testing.T) {
	c := NewCache(10, NewFIFOPolicy())
	c.MaybeAdmit(simnet.Video{VideoID: "v1", SizeKb: 4})
	c.MaybeAdmit(simnet.Video{VideoID: "v2", SizeKb: 4})
	// v3 needs space; FIFO must evict v1 (earliest inserted), not v2.
	c.MaybeAdmit(simnet.Video{VideoID: "v3", SizeKb: 4})

	if _, ok := c.Get("v1"); ok {
		t.Fatalf("expected v1 to have been evicted")
	}
	if _, ok := c.Get("v2"); !ok {
		t.Fatalf("expected v2 to remain cached")
	}
	if _, ok := c.Get("v3"); !ok {
		t.Fatalf("expected v3 to have been inserted")
	}
}

func TestLRUPromotionOnAccess(t *testing.T) {
	// Cache sized for 3 videos of size 1 each (spec §8 scenario 4).
	c := NewCache(3, NewLRUPolicy())
	c.MaybeAdmit(simnet.Video{VideoID: "v1", SizeKb: 1})
	c.MaybeAdmit(simnet.Video{VideoID: "v2", SizeKb: 1})
	c.MaybeAdmit(simnet.Video{VideoID: "v3", SizeKb: 1})

	// Touch v1 again (request sequence: v1, v2, v3, v1, v4).
	c.Get("v1")

	c.MaybeAdmit(simnet.Video{VideoID: "v4", SizeKb: 1})

	if _, ok := c.Get("v2"); ok {
		t.Fatalf("expected v2 to be evicted as least-recently-used")
	}
	for _, id := range []string{"v1", "v3", "v4"} {
		if _, ok := c.Get(id); !ok {
			t.Fatalf("expected %s to remain cached", id)
		}
	}
}

func TestUnlimitedNeverEvicts(t *testing.T) {
	c := NewCache(math.Inf(1), NewUnlimitedPolicy())
	for i := 0; i < 100; i++ {
		c.MaybeAdmit(simnet.Video{VideoID: string(rune('a' + i%26)), SizeKb: 1000})
	}
	if c.CurrentSizeKb() <= 0 {
		t.Fatalf("expected videos to accumulate without eviction")
	}
}

func TestCacheSizeInvariant(t *testing.T) {
	c := NewCache(10, NewFIFOPolicy())
	c.MaybeAdmit(simnet.Video{VideoID: "v1", SizeKb: 4})
	c.MaybeAdmit(simnet.Video{VideoID: "v2", SizeKb: 4})
	c.MaybeAdmit(simnet.Video{VideoID: "v3", SizeKb: 4})

	var total float64
	for _, id := range []string{"v1", "v2", "v3"} {
		if v, ok := c.Get(id); ok {
			total += v.SizeKb
		}
	}
	if total != c.CurrentSizeKb() {
		t.Fatalf("current_size_kb (%f) does not match sum of cached sizes (%f)", c.CurrentSizeKb(), total)
	}
	if c.CurrentSizeKb() > c.MaxSizeKb() {
		t.Fatalf("cache exceeded max size: %f > %f", c.CurrentSizeKb(), c.MaxSizeKb())
	}
}

func TestAdmitRejectsVideoAtOrAboveMaxSize(t *testing.T) {
	c := NewCache(10, NewFIFOPolicy())
	admitted := c.MaybeAdmit(simnet.Video{VideoID: "too-big", SizeKb: 10})
	if admitted {
		t.Fatalf("expected a video at max_size_kb to be rejected")
	}
}
