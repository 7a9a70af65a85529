package simnet

import (
	"container/list"
	"log/slog"
	"sync"

	simerrors "github.com/alxayo/videocache-sim/internal/errors"
	"github.com/alxayo/videocache-sim/internal/simclock"
)

// sendItem is one in-flight fragment of a payload sitting in a Link's
// queue. chunkID/remaining track how much of the original payload is left
// to emit under ModeNormal; under ModeForwardChunk the packet already
// carries its chunk framing, and under ModeDoNotChunk the whole payload
// goes out as one last chunk with id 0.
type sendItem struct {
	pkt       Packet
	mode      SendMode
	chunkID   int
	remaining float64
}

// Link is a directed, ordered, chunking byte pipe from one peer to
// exactly one other peer (spec §4.2). It owns a single logical transport
// goroutine that dequeues items, sleeps the simulated delay, and invokes
// the destination peer's Receive callback.
type Link struct {
	Name         string
	LatencyS     float64
	BandwidthKbS float64
	MaxChunkKb   float64

	clock *simclock.Clock
	log   *slog.Logger

	peer Receiver

	mu     sync.Mutex
	cond   *sync.Cond
	queue  *list.List
	closed bool
}

// NewLink creates a Link with the given delay model, delivering to peer
// (which may be set later via Connect). clock drives the simulated
// transmission delay.
func NewLink(name string, latencyS, bandwidthKbS, maxChunkKb float64, peer Receiver, clock *simclock.Clock, log *slog.Logger) *Link {
	l := &Link{
		Name:         name,
		LatencyS:     latencyS,
		BandwidthKbS: bandwidthKbS,
		MaxChunkKb:   maxChunkKb,
		clock:        clock,
		log:          log,
		peer:         peer,
		queue:        list.New(),
	}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Connect attaches the destination peer. Safe to call once before the
// link starts carrying traffic; wiring happens during topology setup.
func (l *Link) Connect(peer Receiver) {
	l.mu.Lock()
	l.peer = peer
	l.mu.Unlock()
}

// Close stops the link's transport goroutine. Links are otherwise
// daemonized for the lifetime of the process (spec §5).
func (l *Link) Close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

// Send enqueues pkt for delivery according to mode (spec §4.2). If no
// peer is connected, the send is logged and dropped, non-fatally.
func (l *Link) Send(pkt Packet, mode SendMode) {
	l.mu.Lock()
	peer := l.peer
	l.mu.Unlock()
	if peer == nil {
		if l.log != nil {
			l.log.Warn(simerrors.NoPeerConnectedError(l.Name).Error(), "link", l.Name)
		}
		return
	}

	item := sendItem{pkt: pkt, mode: mode}
	switch mode {
	case ModeForwardChunk:
		item.chunkID = pkt.ChunkID
		item.remaining = pkt.ChunkSizeKb
		if item.remaining <= 0 {
			if l.log != nil {
				l.log.Warn(simerrors.ChunkAssemblyError("missing chunk size in forward_chunk mode").Error(), "link", l.Name)
			}
			item.remaining = pkt.PayloadSizeKb
		}
	default:
		item.remaining = pkt.PayloadSizeKb
	}
	l.enqueue(item)
}

func (l *Link) enqueue(item sendItem) {
	l.mu.Lock()
	l.queue.PushBack(item)
	l.cond.Signal()
	l.mu.Unlock()
}

// dequeue blocks until an item is available or the link is closed.
func (l *Link) dequeue() (sendItem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.queue.Len() == 0 && !l.closed {
		l.cond.Wait()
	}
	if l.queue.Len() == 0 {
		return sendItem{}, false
	}
	front := l.queue.Front()
	l.queue.Remove(front)
	return front.Value.(sendItem), true
}

// run is the link's sole consumer goroutine (spec §5: one background
// transport task per link).
func (l *Link) run() {
	for {
		item, ok := l.dequeue()
		if !ok {
			return
		}
		l.step(item)
	}
}

// step applies one mode-dependent chunking decision and delivers (or
// re-enqueues the remainder) accordingly.
func (l *Link) step(item sendItem) {
	switch item.mode {
	case ModeNormal:
		if item.remaining > l.MaxChunkKb {
			chunk := item.pkt
			chunk.ChunkID = item.chunkID
			chunk.ChunkSizeKb = l.MaxChunkKb
			chunk.LastChunk = false

			next := item
			next.chunkID = item.chunkID + 1
			next.remaining = item.remaining - l.MaxChunkKb
			l.enqueue(next)

			l.deliver(chunk)
			return
		}
		chunk := item.pkt
		chunk.ChunkID = item.chunkID
		chunk.ChunkSizeKb = item.remaining
		chunk.LastChunk = true
		l.deliver(chunk)

	case ModeForwardChunk:
		chunk := item.pkt
		chunk.ChunkSizeKb = item.remaining
		l.deliver(chunk)

	case ModeDoNotChunk:
		chunk := item.pkt
		chunk.ChunkID = 0
		chunk.ChunkSizeKb = item.remaining
		chunk.LastChunk = true
		l.deliver(chunk)
	}
}

// deliver sleeps the simulated per-chunk delay (bandwidth-derived, plus
// one-time latency on the first chunk of a payload) and hands the chunk to
// the destination peer.
func (l *Link) deliver(chunk Packet) {
	delay := chunk.ChunkSizeKb / l.BandwidthKbS
	if chunk.ChunkID == 0 {
		delay += l.LatencyS
	}
	l.clock.SimSleep(delay, true)

	l.mu.Lock()
	peer := l.peer
	l.mu.Unlock()
	if peer == nil {
		return
	}
	peer.Receive(chunk)
}
