package simnet

import (
	"log/slog"
	"sync"

	simerrors "github.com/alxayo/videocache-sim/internal/errors"
)

// VideoServer hosts an immutable video catalog and answers videoRequest
// packets over its single outgoing link to the proxy (spec §4.3).
type VideoServer struct {
	Base

	link *Link

	mu      sync.RWMutex
	catalog map[string]Video
}

// NewVideoServer constructs an empty-catalog server. Connect sets the
// outgoing link once topology wiring has created it.
func NewVideoServer(id int, name string, log *slog.Logger) *VideoServer {
	return &VideoServer{
		Base:    NewBase(id, name, log),
		catalog: make(map[string]Video),
	}
}

// Connect wires the server's single outgoing link (to the proxy).
func (s *VideoServer) Connect(link *Link) { s.link = link }

// AddVideo inserts a video into the catalog (spec §4.3, §9: catalog
// entries are immutable once added).
func (s *VideoServer) AddVideo(v Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[v.VideoID] = v
}

// Lookup returns the catalog entry for videoID.
func (s *VideoServer) Lookup(videoID string) (Video, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.catalog[videoID]
	return v, ok
}

// Receive handles an incoming packet. Only videoRequest packets are
// meaningful at a server; anything else is ignored. An unknown video id is
// a fatal condition on that request path (spec §7: UnknownVideoId is
// "surfaced via absent entry" — we log and drop rather than crash the
// whole process, since one client's bad request must not take down the
// simulation).
func (s *VideoServer) Receive(pkt Packet) {
	if pkt.PayloadType != PayloadVideoRequest {
		return
	}
	req, ok := pkt.Payload.(VideoRequest)
	if !ok {
		return
	}
	video, ok := s.Lookup(req.VideoID)
	if !ok {
		if log := s.Logger(); log != nil {
			log.Error(simerrors.UnknownVideoError(req.VideoID).Error(), "server", s.Name())
		}
		return
	}

	packetID := pkt.PacketID
	resp := s.Pack(PayloadVideo, video, video.SizeKb, &packetID)
	if s.link != nil {
		s.link.Send(resp, ModeNormal)
	}
}
