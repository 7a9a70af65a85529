package simnet

import (
	"log/slog"
	"sync"
)

// Receiver is implemented by anything a Link can deliver a chunk to: a
// Client, a VideoServer, or a Proxy (internal/simproxy).
type Receiver interface {
	Receive(pkt Packet)
}

// Base is the common identity and packet-framing state embedded by every
// concrete peer (spec §4.3: "Peer: packs outgoing data into a Packet with
// incrementing packet_id"). IDs follow the network-wide convention: 0 is
// the proxy, 1..1000 are servers, >=1001 are clients.
type Base struct {
	id   int
	name string
	log  *slog.Logger

	mu      sync.Mutex
	counter uint64
}

// NewBase constructs the shared peer identity state.
func NewBase(id int, name string, log *slog.Logger) Base {
	return Base{id: id, name: name, log: log}
}

func (b *Base) ID() int          { return b.id }
func (b *Base) Name() string     { return b.name }
func (b *Base) Logger() *slog.Logger { return b.log }

// NextPacketID returns the next per-sender monotonic packet id.
func (b *Base) NextPacketID() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.counter
	b.counter++
	return id
}

// Pack builds an outgoing Packet stamped with this peer's id and the next
// packet id in sequence.
func (b *Base) Pack(payloadType PayloadType, payload any, sizeKb float64, responseTo *uint64) Packet {
	return Packet{
		SenderID:      b.id,
		PacketID:      b.NextPacketID(),
		PayloadType:   payloadType,
		Payload:       payload,
		PayloadSizeKb: sizeKb,
		ResponseTo:    responseTo,
	}
}
