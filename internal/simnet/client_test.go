package simnet

import (
	"testing"

	"github.com/alxayo/videocache-sim/internal/simclock"
)

func TestClientTwoInARowProtectionDropsRepeat(t *testing.T) {
	clock := simclock.New(100000, 1)
	client := NewClient(1001, "client-1", clock, nil)

	var newDownloads int
	client.OnNewDownload(func() { newDownloads++ })

	client.RequestMedia("v1", 1)
	client.RequestMedia("v1", 1) // repeated, should be dropped silently

	if newDownloads != 1 {
		t.Fatalf("expected exactly 1 new_download signal, got %d", newDownloads)
	}
}

func TestClientReceivePlaybackAndCompletion(t *testing.T) {
	clock := simclock.New(100000, 1)
	client := NewClient(1001, "client-1", clock, nil)
	client.SetBufferSizeKb(100)

	var started []string
	var completed int
	client.OnStartPlayback(func(videoID string) { started = append(started, videoID) })
	client.OnEndDownload(func() { completed++ })

	client.RequestMedia("v1", 1)

	video := Video{VideoID: "v1", SizeKb: 200, BitrateKbS: 50}
	// First chunk: not enough to start playback yet.
	client.Receive(Packet{PayloadType: PayloadVideo, Payload: video, PayloadSizeKb: 200, ChunkID: 0, ChunkSizeKb: 50})
	if len(started) != 0 {
		t.Fatalf("expected no playback start yet, got %v", started)
	}

	// Second chunk crosses the buffer threshold (100kb).
	client.Receive(Packet{PayloadType: PayloadVideo, Payload: video, PayloadSizeKb: 200, ChunkID: 1, ChunkSizeKb: 60})
	if len(started) != 1 || started[0] != "v1" {
		t.Fatalf("expected playback to start for v1, got %v", started)
	}
	state, ok := client.State("v1")
	if !ok || state != StatePlay {
		t.Fatalf("expected state=play, got %v (ok=%v)", state, ok)
	}

	// Final chunk completes the download.
	client.Receive(Packet{PayloadType: PayloadVideo, Payload: video, PayloadSizeKb: 200, ChunkID: 2, ChunkSizeKb: 90, LastChunk: true})
	if completed != 1 {
		t.Fatalf("expected download_complete to fire once, got %d", completed)
	}
}

func TestClientUnsolicitedChunkIgnored(t *testing.T) {
	clock := simclock.New(100000, 1)
	client := NewClient(1001, "client-1", clock, nil)

	var started []string
	client.OnStartPlayback(func(videoID string) { started = append(started, videoID) })

	client.Receive(Packet{PayloadType: PayloadVideo, Payload: Video{VideoID: "never-asked", SizeKb: 10}, PayloadSizeKb: 10, ChunkSizeKb: 10, LastChunk: true})
	if len(started) != 0 {
		t.Fatalf("unsolicited chunk should not start playback, got %v", started)
	}
}

func TestClientPlayerLoopDrainsBufferAndStops(t *testing.T) {
	clock := simclock.New(100000, 1)
	client := NewClient(1001, "client-1", clock, nil)
	client.SetBufferSizeKb(10)
	client.SetWaitOnRefill(true)

	client.RequestMedia("v1", 1)
	video := Video{VideoID: "v1", SizeKb: 30, BitrateKbS: 10}
	client.Receive(Packet{PayloadType: PayloadVideo, Payload: video, PayloadSizeKb: 30, ChunkID: 0, ChunkSizeKb: 20})

	state, _ := client.State("v1")
	if state != StatePlay {
		t.Fatalf("expected play state after crossing threshold, got %v", state)
	}

	var stopped []string
	client.OnVideoStopped(func(videoID string) { stopped = append(stopped, videoID) })

	// Two ticks of 10kb/s drain: 20 -> 10 -> 0, emitting a stop on the
	// second tick and transitioning back to buffer (wait-on-refill).
	client.tick()
	client.tick()

	if len(stopped) != 1 || stopped[0] != "v1" {
		t.Fatalf("expected exactly one stop event for v1, got %v", stopped)
	}
	state, _ = client.State("v1")
	if state != StateBuffer {
		t.Fatalf("expected state=buffer after underrun with wait-on-refill, got %v", state)
	}
}
