package simnet

import (
	"testing"
	"time"

	"github.com/alxayo/videocache-sim/internal/simclock"
)

func TestVideoServerAnswersKnownVideo(t *testing.T) {
	clock := simclock.New(100000, 1)
	peer := newRecordingPeer(1)
	link := NewLink("server-out", 0.0, 1e9, 8000, peer, clock, nil)

	srv := NewVideoServer(1, "server-1", nil)
	srv.Connect(link)
	srv.AddVideo(Video{VideoID: "v1", SizeKb: 2048, BitrateKbS: 512})

	reqPacketID := uint64(7)
	srv.Receive(Packet{
		SenderID:      1001,
		PacketID:      reqPacketID,
		PayloadType:   PayloadVideoRequest,
		Payload:       VideoRequest{ServerID: 1, VideoID: "v1"},
		PayloadSizeKb: 1,
	})

	select {
	case <-peer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server response")
	}
	got := peer.snapshot()
	if len(got) != 1 {
		t.Fatalf("expected 1 response packet, got %d", len(got))
	}
	resp := got[0]
	if resp.PayloadType != PayloadVideo {
		t.Fatalf("expected video response, got %s", resp.PayloadType)
	}
	if resp.ResponseTo == nil || *resp.ResponseTo != reqPacketID {
		t.Fatalf("expected response_to=%d, got %v", reqPacketID, resp.ResponseTo)
	}
	v, ok := resp.Payload.(Video)
	if !ok || v.VideoID != "v1" {
		t.Fatalf("unexpected payload: %+v", resp.Payload)
	}
}

func TestVideoServerUnknownVideoLogsAndDrops(t *testing.T) {
	clock := simclock.New(100000, 1)
	peer := newRecordingPeer(1)
	link := NewLink("server-out", 0.0, 1e9, 8000, peer, clock, nil)

	srv := NewVideoServer(1, "server-1", nil)
	srv.Connect(link)

	srv.Receive(Packet{
		SenderID:      1001,
		PacketID:      1,
		PayloadType:   PayloadVideoRequest,
		Payload:       VideoRequest{ServerID: 1, VideoID: "missing"},
		PayloadSizeKb: 1,
	})

	select {
	case <-peer.done:
		t.Fatal("expected no response for an unknown video id")
	case <-time.After(50 * time.Millisecond):
	}
}
