package orchestrator

import "container/heap"

// schedEvent is one request-media event carried by the scheduler replay
// mode (spec §4.7): dispatch a request_media call for clientID/videoID/
// serverID at simulated time delayS after the run starts.
type schedEvent struct {
	delayS   float64
	seq      int // insertion order, to keep FIFO ties stable
	clientID int
	videoID  string
	serverID int
}

// eventHeap is a container/heap priority queue ordered by delayS, the
// idiomatic choice demonstrated by the pack's one discrete-event simulator
// (inference-sim's cluster event queue) rather than a third-party
// priority-queue library, which does not appear anywhere in the pack.
type eventHeap []*schedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].delayS != h[j].delayS {
		return h[i].delayS < h[j].delayS
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*schedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// scheduler wraps eventHeap with the monotonic sequence counter needed to
// keep insertion order stable for same-timestamp events.
type scheduler struct {
	heap eventHeap
	next int
}

func newScheduler() *scheduler {
	s := &scheduler{}
	heap.Init(&s.heap)
	return s
}

func (s *scheduler) enter(delayS float64, clientID int, videoID string, serverID int) {
	heap.Push(&s.heap, &schedEvent{delayS: delayS, seq: s.next, clientID: clientID, videoID: videoID, serverID: serverID})
	s.next++
}

func (s *scheduler) empty() bool { return s.heap.Len() == 0 }

// peekDelay returns the delay of the next event without removing it, and
// whether one exists — used by the idle-skipping loop to decide whether to
// fast-forward (spec §4.7).
func (s *scheduler) peekDelay() (float64, bool) {
	if s.heap.Len() == 0 {
		return 0, false
	}
	return s.heap[0].delayS, true
}

func (s *scheduler) pop() *schedEvent {
	return heap.Pop(&s.heap).(*schedEvent)
}
