package orchestrator

import "testing"

func TestSchedulerOrdersByDelayThenInsertionOrder(t *testing.T) {
	s := newScheduler()
	s.enter(5, 1001, "v1", 1)
	s.enter(1, 1002, "v2", 1)
	s.enter(1, 1003, "v3", 1) // same delay as v2, inserted after: must stay after it

	first := s.pop()
	if first.videoID != "v2" {
		t.Fatalf("expected v2 first, got %s", first.videoID)
	}
	second := s.pop()
	if second.videoID != "v3" {
		t.Fatalf("expected v3 second (stable tie-break), got %s", second.videoID)
	}
	third := s.pop()
	if third.videoID != "v1" {
		t.Fatalf("expected v1 last, got %s", third.videoID)
	}
	if !s.empty() {
		t.Fatal("expected scheduler to be empty after draining")
	}
}

func TestSchedulerPeekDelayDoesNotRemove(t *testing.T) {
	s := newScheduler()
	s.enter(3, 1001, "v1", 1)
	d, ok := s.peekDelay()
	if !ok || d != 3 {
		t.Fatalf("expected peekDelay=3, got %v ok=%v", d, ok)
	}
	if s.empty() {
		t.Fatal("peekDelay must not remove the event")
	}
}
