// Package simclock implements the virtual-time engine shared by every
// simulated actor: an accelerated monotonic clock, a sleep primitive that
// scales by an effective speed factor, a fast-forward mechanism for idle
// intervals, and the process-wide active-download counter that drives
// quiescence detection.
package simclock

import (
	"sync"
	"time"
)

// Clock holds the simulation-wide time state described in spec §3/§4.1.
// A single Clock is constructed by the orchestrator and shared by every
// link, peer, and client task in a run (spec §9: "a single simulation
// context value", not scattered globals).
type Clock struct {
	start time.Time

	mu            sync.Mutex
	speed         float64
	waitAcc       float64
	baseTime      float64
	activeCount   int
	onQuiescent   func()
	quiescentOnce bool // tracks whether we've already fired for the current zero streak
}

// New creates a Clock with the given acceleration factors. speed scales
// transfer-related sleeps; waitAcc additionally scales orchestration
// sleeps (sim_sleep(d, transfer=false)).
func New(speed, waitAcc float64) *Clock {
	if speed <= 0 {
		speed = 1
	}
	if waitAcc <= 0 {
		waitAcc = 1
	}
	return &Clock{
		speed:         speed,
		waitAcc:       waitAcc,
		start:         time.Now(),
		quiescentOnce: true, // the counter starts at zero: no transition to report yet
	}
}

// OnQuiescent registers the callback invoked exactly once each time the
// active-download counter transitions to zero. Not retroactively invoked
// if the counter is already zero at registration time.
func (c *Clock) OnQuiescent(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onQuiescent = f
}

// effectiveSpeed returns the acceleration factor applicable to a sleep,
// depending on whether it represents link transfer time or orchestration
// wait time.
func (c *Clock) effectiveSpeed(transfer bool) float64 {
	c.mu.Lock()
	speed, waitAcc := c.speed, c.waitAcc
	c.mu.Unlock()
	if transfer {
		return speed
	}
	return speed * waitAcc
}

// SetSpeed changes the transfer-time acceleration factor on a running
// clock (SPEC_FULL.md §1's optional config hot-reload). Values <= 0 are
// rejected silently, matching New's defaulting behavior.
func (c *Clock) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	c.mu.Lock()
	// Re-baseline sim_now at the old speed before the new one takes effect,
	// so SimNow stays continuous across the change instead of jumping.
	wall := time.Since(c.start).Seconds()
	c.baseTime += wall * c.speed
	c.start = c.start.Add(time.Duration(wall * float64(time.Second)))
	c.speed = speed
	c.mu.Unlock()
}

// SetWaitAcc changes the orchestration-wait acceleration factor on a
// running clock. Values <= 0 are rejected silently.
func (c *Clock) SetWaitAcc(waitAcc float64) {
	if waitAcc <= 0 {
		return
	}
	c.mu.Lock()
	c.waitAcc = waitAcc
	c.mu.Unlock()
}

// SimSleep blocks the calling goroutine for d simulated seconds, scaled
// down to wall-clock time by the effective speed. transfer selects which
// acceleration factor applies (spec §4.1).
func (c *Clock) SimSleep(d float64, transfer bool) {
	if d <= 0 {
		return
	}
	eff := c.effectiveSpeed(transfer)
	wall := d / eff
	time.Sleep(time.Duration(wall * float64(time.Second)))
}

// WallDuration converts d simulated seconds into the wall-clock
// time.Duration a caller would have to wait for, under the same scaling
// SimSleep applies. Used by the orchestrator's event_lock replay mode to
// size a timed channel wait without blocking inside the Clock itself
// (spec §4.7: "wait on it with timeout = relative_delay (virtual)").
func (c *Clock) WallDuration(d float64, transfer bool) time.Duration {
	if d <= 0 {
		return 0
	}
	eff := c.effectiveSpeed(transfer)
	return time.Duration(d / eff * float64(time.Second))
}

// SimNow returns the current simulated time: monotonic wall-clock elapsed
// since the clock was created, scaled by speed, plus any accumulated
// fast-forward offset. Non-decreasing by construction (spec §8).
func (c *Clock) SimNow() float64 {
	c.mu.Lock()
	wall := time.Since(c.start).Seconds()
	base := c.baseTime
	speed := c.speed
	c.mu.Unlock()
	return wall*speed + base
}

// FastForward atomically advances base_time by delta. Only legal while the
// active-download counter is zero (spec §4.1); callers (the scheduler's
// idle-skip loop) are expected to check that invariant themselves, but we
// guard it here too and silently no-op otherwise to avoid corrupting the
// non-decreasing guarantee on sim_now.
func (c *Clock) FastForward(delta float64) {
	if delta <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeCount != 0 {
		return
	}
	c.baseTime += delta
}

// IncActive increments the active-download counter. Called on
// request_media (new_download).
func (c *Clock) IncActive() {
	c.mu.Lock()
	c.activeCount++
	c.quiescentOnce = false
	c.mu.Unlock()
}

// DecActive decrements the active-download counter. Called on
// download_complete (end_download). When the counter reaches zero, the
// registered quiescence callback fires exactly once.
func (c *Clock) DecActive() {
	c.mu.Lock()
	if c.activeCount > 0 {
		c.activeCount--
	}
	fire := c.activeCount == 0 && !c.quiescentOnce
	if fire {
		c.quiescentOnce = true
	}
	cb := c.onQuiescent
	c.mu.Unlock()

	if fire && cb != nil {
		cb()
	}
}

// ActiveCount returns a snapshot of the active-download counter.
func (c *Clock) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeCount
}

// IsQuiescent reports whether the active-download counter is currently
// zero.
func (c *Clock) IsQuiescent() bool {
	return c.ActiveCount() == 0
}
