// Package simnet implements the network-facing building blocks of the
// simulator: packets, videos, the peer base, the chunking link, the video
// server, and the client playback state machine (spec §3, §4.2, §4.3,
// §4.6).
package simnet

// PayloadType classifies a Packet's payload for proxy/client dispatch
// (spec §4.4: response path / request path / echo path).
type PayloadType string

const (
	PayloadVideoRequest PayloadType = "videoRequest"
	PayloadVideo        PayloadType = "video"
	PayloadOther        PayloadType = "other"
)

// SendMode selects how a Link fragments a packet at dequeue time (spec
// §4.2).
type SendMode string

const (
	// ModeNormal re-fragments the payload at max_chunk boundaries,
	// re-enqueuing the remainder at the tail of the link's queue.
	ModeNormal SendMode = "normal"
	// ModeForwardChunk treats the packet as already chunked (proxy
	// relaying a server or client chunk unmodified).
	ModeForwardChunk SendMode = "forward_chunk"
	// ModeDoNotChunk delivers the payload as a single chunk regardless
	// of size.
	ModeDoNotChunk SendMode = "donotchunk"
)

// VideoRequest is the payload of a PayloadVideoRequest packet.
type VideoRequest struct {
	ServerID int
	VideoID  string
}

// Packet is the wire value carried by every Link (spec §3).
type Packet struct {
	SenderID      int
	PacketID      uint64
	PayloadType   PayloadType
	Payload       any // VideoRequest, Video, or string, depending on PayloadType
	PayloadSizeKb float64

	// ResponseTo, when non-nil, names the packet id this packet answers.
	ResponseTo *uint64

	// Chunking fields, populated by the Link at dequeue time (or by the
	// proxy when preserving an already-chunked packet in forward_chunk
	// mode).
	ChunkID     int
	ChunkSizeKb float64
	LastChunk   bool
}

// IsResponse reports whether this packet answers an earlier request.
func (p Packet) IsResponse() bool { return p.ResponseTo != nil }
