package metrics

import "sync"

// LatencyCollector is the Go equivalent of the original's
// TwoMethodsTimerAndCounter decorator (metrics.py), applied per-client:
// it times the interval between a request for a video id and that video's
// first playback, and counts how many times playback stopped.
//
// Per spec §9's explicit-callbacks direction, this is wired by attaching
// its methods directly as a Client's observation hooks, rather than
// wrapping the Client in a decorator class.
type LatencyCollector struct {
	mu        sync.Mutex
	startedAt map[string]float64 // video id -> sim time at request
	latencies []float64
	stops     int64
}

// NewLatencyCollector constructs an empty collector.
func NewLatencyCollector() *LatencyCollector {
	return &LatencyCollector{startedAt: make(map[string]float64)}
}

// MarkRequested records the sim time a video was requested. The
// orchestrator calls it from its dispatch site, right before
// Client.RequestMedia, since Client.OnNewDownload carries no video id.
func (c *LatencyCollector) MarkRequested(videoID string, simNow float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startedAt[videoID] = simNow
}

// MarkPlaybackStarted records a playout latency sample if a matching
// request was seen; wire as Client.OnStartPlayback. Returns the measured
// latency and true when a sample was recorded, so callers (e.g. the CLI's
// per-event reporting, spec §7) can surface it without a second lookup.
func (c *LatencyCollector) MarkPlaybackStarted(videoID string, simNow float64) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start, ok := c.startedAt[videoID]
	if !ok {
		return 0, false
	}
	delete(c.startedAt, videoID)
	latency := simNow - start
	c.latencies = append(c.latencies, latency)
	return latency, true
}

// MarkStopped increments the re-buffering stop counter; wire as
// Client.OnVideoStopped.
func (c *LatencyCollector) MarkStopped(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
}

// Latencies returns a snapshot of every measured start-playback latency,
// in the order playback started, for CSV output (spec §6: "clients: CSV
// id_client,playout_latency").
func (c *LatencyCollector) Latencies() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.latencies))
	copy(out, c.latencies)
	return out
}

// StopCount returns the number of recorded playback stops.
func (c *LatencyCollector) StopCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}
