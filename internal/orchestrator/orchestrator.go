// Package orchestrator loads a trace and video catalog, wires the
// simulated topology, and drives replay in one of two modes (spec §4.7):
// a priority-queue scheduler or an event-lock wait that suspends between
// requests while the system is quiescent.
package orchestrator

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/alxayo/videocache-sim/internal/metrics"
	"github.com/alxayo/videocache-sim/internal/simclock"
	"github.com/alxayo/videocache-sim/internal/simhooks"
	"github.com/alxayo/videocache-sim/internal/simnet"
)

// Orchestrator ties the topology, replay mode, and statistics collection
// together (spec §4.7), grounded on orchestration.py's Orchestrator class.
type Orchestrator struct {
	cfg   *Config
	log   *slog.Logger
	clock *simclock.Clock
	topo  *Topology

	scheduler   *scheduler
	eventsQueue *eventQueue

	hits      *metrics.HitCounter
	latencies map[int]*metrics.LatencyCollector // per client id

	onLatency func(clientID int, videoID string, latencySeconds float64)

	hooks *simhooks.Manager

	stopPlay   chan struct{}
	playLoopWG sync.WaitGroup
}

// SetHookManager attaches an external-observer hook manager (spec §6's
// `-hook-stdio`/`-hook-webhook` CLI surface expansion). Must be called
// before SetUp so wireProxyMetrics/wireClients can fire events against it;
// a nil manager (the default) makes every TriggerEvent call a no-op.
func (o *Orchestrator) SetHookManager(m *simhooks.Manager) {
	o.hooks = m
}

// OnLatencyObserved registers a callback fired every time a playout
// latency sample is recorded, for the CLI's per-event reporting (spec §7:
// "CLI prints per-event latencies and running averages").
func (o *Orchestrator) OnLatencyObserved(f func(clientID int, videoID string, latencySeconds float64)) {
	o.onLatency = f
}

// New constructs an Orchestrator for the given configuration.
func New(cfg *Config, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		log:       log,
		clock:     simclock.New(cfg.Speed, cfg.WaitAcc),
		hits:      metrics.NewHitCounter(),
		latencies: make(map[int]*metrics.LatencyCollector),
		stopPlay:  make(chan struct{}),
	}
}

// SetUp loads the trace and catalog files, builds the topology, and wires
// metrics collection (spec §4.7: "set_up").
func (o *Orchestrator) SetUp() error {
	traceRows, err := loadTraceRows(o.cfg.TraceFile)
	if err != nil {
		return err
	}
	catalogRows, err := loadCatalogRows(o.cfg.DBFile)
	if err != nil {
		return err
	}

	o.topo = buildTopology(o.cfg, o.clock, o.log, traceRows, catalogRows)
	o.wireProxyMetrics()
	o.wireClients(traceRows)

	switch o.cfg.Method {
	case "event_lock":
		o.buildEventQueue(traceRows)
	default:
		o.buildScheduler(traceRows)
	}

	return nil
}

// wireProxyMetrics attaches the hit-stats counter to the proxy's
// observation hooks (spec §9: explicit callbacks, not inheritance).
func (o *Orchestrator) wireProxyMetrics() {
	o.topo.Proxy.OnCacheHit(func(v simnet.Video) {
		o.hits.FromCache(v.SizeKb)
		metrics.ObserveCacheHit(v.SizeKb)
		o.hooks.TriggerEvent(context.Background(), *simhooks.NewEvent(simhooks.EventCacheHit).
			WithVideoID(v.VideoID).WithData("size_kb", v.SizeKb))
	})
	o.topo.Proxy.OnCacheMiss(func(v simnet.Video) {
		o.hits.FromServer(v.SizeKb)
		metrics.ObserveOriginServed(v.SizeKb)
		o.hooks.TriggerEvent(context.Background(), *simhooks.NewEvent(simhooks.EventCacheMiss).
			WithVideoID(v.VideoID).WithData("size_kb", v.SizeKb))
	})
}

// wireClients attaches a LatencyCollector per client and, when
// skip_inactivity is enabled, wires new_download/end_download to the
// clock's active-download counter (spec §4.7: "register its
// new_download/end_download hooks to the active-download counter when
// idle-skip is enabled").
func (o *Orchestrator) wireClients(traceRows []traceRow) {
	for id, client := range o.topo.Clients {
		collector := metrics.NewLatencyCollector()
		o.latencies[id] = collector

		client.OnStartPlayback(func(videoID string) {
			latency, ok := collector.MarkPlaybackStarted(videoID, o.clock.SimNow())
			if !ok {
				return
			}
			metrics.ObservePlayoutLatency(latency)
			if o.onLatency != nil {
				o.onLatency(id, videoID, latency)
			}
			o.hooks.TriggerEvent(context.Background(), *simhooks.NewEvent(simhooks.EventPlaybackStart).
				WithClientID(strconv.Itoa(id)).WithVideoID(videoID).WithData("latency_s", latency))
		})
		client.OnVideoStopped(func(videoID string) {
			collector.MarkStopped(videoID)
			o.hooks.TriggerEvent(context.Background(), *simhooks.NewEvent(simhooks.EventVideoStop).
				WithClientID(strconv.Itoa(id)).WithVideoID(videoID))
		})

		if o.cfg.SkipInactivity {
			client.OnNewDownload(func() {
				o.clock.IncActive()
				metrics.SetActiveDownloads(o.clock.ActiveCount())
			})
			client.OnEndDownload(func() {
				o.clock.DecActive()
				metrics.SetActiveDownloads(o.clock.ActiveCount())
			})
		}

		if !o.cfg.ConsumeVideos {
			continue
		}
		stop := o.stopPlay
		o.playLoopWG.Add(1)
		go func(c *simnet.Client) {
			defer o.playLoopWG.Done()
			c.PlayLoop(stop)
		}(client)
	}
}

// markRequested records the sim time a video was requested, for the
// latency collector of the requesting client. Called by the replay
// drivers right before Client.RequestMedia, since the per-video request
// timestamp is only known at the dispatch site (Client's own
// OnNewDownload hook carries no video id — spec §9's hooks are
// deliberately minimal).
func (o *Orchestrator) markRequested(clientID int, videoID string) {
	if c, ok := o.latencies[clientID]; ok {
		c.MarkRequested(videoID, o.clock.SimNow())
	}
}

// dispatch issues one request_media call against the named client.
func (o *Orchestrator) dispatch(clientID int, videoID string, serverID int) {
	client, ok := o.topo.Clients[clientID]
	if !ok {
		if o.log != nil {
			o.log.Warn("dispatch: unknown client", "client_id", clientID)
		}
		return
	}
	o.markRequested(clientID, videoID)
	client.RequestMedia(videoID, serverID)
}

// WaitEnd blocks until the active-download counter reaches zero
// (spec §4.7: "wait_end blocks until the active-download counter is
// zero"). Implemented as a condition-variable-style blocking wait rather
// than the original's 1-second busy-poll (SPEC_FULL.md §3).
func (o *Orchestrator) WaitEnd() {
	done := make(chan struct{})
	var once sync.Once
	signal := func() { once.Do(func() { close(done) }) }

	o.clock.OnQuiescent(signal)
	if o.clock.IsQuiescent() {
		signal()
	}
	<-done

	o.hooks.TriggerEvent(context.Background(), *simhooks.NewEvent(simhooks.EventRunComplete))

	close(o.stopPlay)
	o.playLoopWG.Wait()
}

// Close releases the player-loop goroutines without waiting for
// quiescence; used by callers that abandon a run early (e.g. a
// --compare-to sibling that failed).
func (o *Orchestrator) Close() {
	select {
	case <-o.stopPlay:
	default:
		close(o.stopPlay)
	}
	o.playLoopWG.Wait()
}

// Topology exposes the wired topology, for tests and the proxy hit-stats
// CSV writer.
func (o *Orchestrator) Topology() *Topology { return o.topo }

// HitStats returns a snapshot of the proxy's hit statistics.
func (o *Orchestrator) HitStats() metrics.HitStats { return o.hits.Stats() }

// ClientLatencies returns every measured playout latency per client,
// keyed by the client's wire id (offset by clientIDOffset, matching the
// original's client.get_id() used directly as the CSV id_client column —
// spec §6).
func (o *Orchestrator) ClientLatencies() map[int][]float64 {
	out := make(map[int][]float64, len(o.latencies))
	for id, c := range o.latencies {
		out[id] = c.Latencies()
	}
	return out
}
