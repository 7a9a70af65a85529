package orchestrator

import "testing"

func TestEventQueueFIFOOrder(t *testing.T) {
	q := &eventQueue{}
	q.push(lockedEvent{relDelayS: 1, clientID: 1001, videoID: "v1"})
	q.push(lockedEvent{relDelayS: 2, clientID: 1002, videoID: "v2"})

	if q.empty() {
		t.Fatal("expected non-empty queue")
	}
	first := q.pop()
	if first.videoID != "v1" {
		t.Fatalf("expected v1 first, got %s", first.videoID)
	}
	second := q.pop()
	if second.videoID != "v2" {
		t.Fatalf("expected v2 second, got %s", second.videoID)
	}
	if !q.empty() {
		t.Fatal("expected queue to be empty after draining")
	}
}
