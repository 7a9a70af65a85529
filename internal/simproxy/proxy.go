package simproxy

import (
	"log/slog"
	"sync"

	simerrors "github.com/alxayo/videocache-sim/internal/errors"
	"github.com/alxayo/videocache-sim/internal/simnet"
)

// otherPayloadSizeKb is the nominal size of a proxy echo reply, mirroring
// requestPayloadSizeKb's rationale in internal/simnet: small enough to
// always fit in a single chunk, independent of serialization-length
// semantics.
const otherPayloadSizeKb = 1.0

// activeReq is one entry of the proxy's active-requests table (spec §3):
// the original sender and its original packet id, keyed externally by the
// forwarded packet id.
type activeReq struct {
	origSender   int
	origPacketID uint64
}

// Proxy implements the forward-path state machine of spec §4.4, optionally
// extended with a Cache (spec §4.5). A nil cache yields a pure
// forward-everything proxy; a non-nil cache makes it a caching proxy —
// the same Receive dispatch serves both, following spec §9's guidance to
// capture the variation as a capability (cache present or absent) rather
// than an inheritance chain.
type Proxy struct {
	simnet.Base

	mu             sync.Mutex
	links          map[int]*simnet.Link // peer id -> outgoing link
	activeRequests map[uint64]activeReq
	cache          *Cache

	onCacheHit  func(video simnet.Video)
	onCacheMiss func(video simnet.Video)
}

// NewForwardProxy constructs a proxy with no caching: every request is
// forwarded to origin (spec §4.4).
func NewForwardProxy(id int, name string, log *slog.Logger) *Proxy {
	return &Proxy{
		Base:           simnet.NewBase(id, name, log),
		links:          make(map[int]*simnet.Link),
		activeRequests: make(map[uint64]activeReq),
	}
}

// NewCachingProxy constructs a proxy that serves cache hits directly and
// runs the admission/eviction policy on origin responses (spec §4.5).
func NewCachingProxy(id int, name string, log *slog.Logger, maxSizeKb float64, policy Policy) *Proxy {
	p := NewForwardProxy(id, name, log)
	p.cache = NewCache(maxSizeKb, policy)
	return p
}

// AddLink wires the outgoing link used to reach peerID (spec §3: "a Proxy
// owns a mapping peer_id -> outgoing link").
func (p *Proxy) AddLink(peerID int, link *simnet.Link) {
	p.mu.Lock()
	p.links[peerID] = link
	p.mu.Unlock()
}

// OnCacheHit registers the observation hook fired on every cache hit,
// letting the metrics layer record hit statistics without the proxy
// depending on it directly.
func (p *Proxy) OnCacheHit(f func(video simnet.Video)) { p.onCacheHit = f }

// OnCacheMiss registers the observation hook fired whenever a response
// from origin is actually admitted into the cache.
func (p *Proxy) OnCacheMiss(f func(video simnet.Video)) { p.onCacheMiss = f }

func (p *Proxy) linkFor(peerID int) (*simnet.Link, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.links[peerID]
	return l, ok
}

// Receive classifies the incoming packet and dispatches to the
// appropriate path (spec §4.4): response path if response_to is set,
// request path for a videoRequest, otherwise the echo path.
func (p *Proxy) Receive(pkt simnet.Packet) {
	switch {
	case pkt.ResponseTo != nil:
		p.handleResponse(pkt)
	case pkt.PayloadType == simnet.PayloadVideoRequest:
		p.handleVideoRequest(pkt)
	default:
		p.handleOther(pkt)
	}
}

// handleVideoRequest serves a cache hit directly, or forwards the request
// to origin on a miss (spec §4.4, §4.5).
func (p *Proxy) handleVideoRequest(pkt simnet.Packet) {
	req, ok := pkt.Payload.(simnet.VideoRequest)
	if !ok {
		return
	}

	if p.cache != nil {
		p.mu.Lock()
		video, hit := p.cache.Get(req.VideoID)
		p.mu.Unlock()
		if hit {
			if p.onCacheHit != nil {
				p.onCacheHit(video)
			}
			packetID := pkt.PacketID
			resp := p.Pack(simnet.PayloadVideo, video, video.SizeKb, &packetID)
			if link, ok := p.linkFor(pkt.SenderID); ok {
				link.Send(resp, simnet.ModeNormal)
			}
			return
		}
	}

	p.forwardRequest(pkt, req)
}

// forwardRequest builds a new forwarded packet addressed to the origin
// server, records the active-request entry, and sends it in forward_chunk
// mode, preserving the incoming chunk framing (spec §4.4).
func (p *Proxy) forwardRequest(pkt simnet.Packet, req simnet.VideoRequest) {
	forwardPacketID := p.NextPacketID()
	fwd := simnet.Packet{
		SenderID:      p.ID(),
		PacketID:      forwardPacketID,
		PayloadType:   pkt.PayloadType,
		Payload:       pkt.Payload,
		PayloadSizeKb: pkt.PayloadSizeKb,
		ChunkID:       pkt.ChunkID,
		ChunkSizeKb:   pkt.ChunkSizeKb,
	}

	p.mu.Lock()
	p.activeRequests[forwardPacketID] = activeReq{origSender: pkt.SenderID, origPacketID: pkt.PacketID}
	p.mu.Unlock()

	if link, ok := p.linkFor(req.ServerID); ok {
		link.Send(fwd, simnet.ModeForwardChunk)
	}
}

// handleResponse relays a chunk of an origin response back to the
// original requester, running the cache admission check on caching
// proxies, and retiring the active-request entry once the last chunk has
// been relayed (spec §4.4, §4.5).
func (p *Proxy) handleResponse(pkt simnet.Packet) {
	responseTo := *pkt.ResponseTo

	p.mu.Lock()
	info, ok := p.activeRequests[responseTo]
	if !ok {
		p.mu.Unlock()
		if log := p.Logger(); log != nil {
			log.Warn(simerrors.UnexpectedResponseError(responseTo).Error(), "proxy", p.Name())
		}
		return
	}

	var admittedVideo simnet.Video
	admitted := false
	if p.cache != nil {
		if video, ok := pkt.Payload.(simnet.Video); ok {
			if p.cache.MaybeAdmit(video) {
				admitted = true
				admittedVideo = video
			}
		}
	}

	if pkt.LastChunk {
		delete(p.activeRequests, responseTo)
	}
	p.mu.Unlock()

	if admitted && p.onCacheMiss != nil {
		p.onCacheMiss(admittedVideo)
	}

	origPacketID := info.origPacketID
	relay := simnet.Packet{
		SenderID:      p.ID(),
		PacketID:      p.NextPacketID(),
		PayloadType:   pkt.PayloadType,
		Payload:       pkt.Payload,
		PayloadSizeKb: pkt.PayloadSizeKb,
		ResponseTo:    &origPacketID,
		ChunkID:       pkt.ChunkID,
		ChunkSizeKb:   pkt.ChunkSizeKb,
		LastChunk:     pkt.LastChunk,
	}
	if link, ok := p.linkFor(info.origSender); ok {
		link.Send(relay, simnet.ModeForwardChunk)
	}
}

// handleOther answers a non-request packet with a canned echo reply
// (spec §4.4).
func (p *Proxy) handleOther(pkt simnet.Packet) {
	text, _ := pkt.Payload.(string)
	packetID := pkt.PacketID
	resp := p.Pack(simnet.PayloadOther, "There you go: "+text, otherPayloadSizeKb, &packetID)
	if link, ok := p.linkFor(pkt.SenderID); ok {
		link.Send(resp, simnet.ModeNormal)
	}
}

// ActiveRequestCount reports the number of in-flight forwarded requests,
// for tests asserting the active-requests balance invariant (spec §8).
func (p *Proxy) ActiveRequestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.activeRequests)
}

// SetCacheSizeKb applies a new cache_size value to a running caching proxy,
// taking the same mutex Receive uses so a reload can't race an in-flight
// admission. A no-op on a forward proxy (no cache to resize).
func (p *Proxy) SetCacheSizeKb(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cache != nil {
		p.cache.SetMaxSizeKb(v)
	}
}

// MaxCacheSizeKb reports the proxy's current cache capacity, or 0 on a
// forward proxy with no cache.
func (p *Proxy) MaxCacheSizeKb() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cache == nil {
		return 0
	}
	return p.cache.MaxSizeKb()
}
