package simproxy

import "github.com/alxayo/videocache-sim/internal/simnet"

// LRUPolicy admits everything, promotes an entry to most-recently-used on
// every hit, and evicts the least-recently-used entry (spec §4.5).
type LRUPolicy struct {
	order []string // front = least recently used, back = most recently used
}

// NewLRUPolicy constructs an empty LRU eviction policy.
func NewLRUPolicy() *LRUPolicy { return &LRUPolicy{} }

func (p *LRUPolicy) Admit(simnet.Video) bool { return true }

func (p *LRUPolicy) OnInsert(video simnet.Video) {
	p.order = append(p.order, video.VideoID)
}

// OnServe removes the id and re-appends it, promoting it to
// most-recently-used (spec §4.5: "on_insert appends; on_serve removes the
// id and re-appends it").
func (p *LRUPolicy) OnServe(video simnet.Video) {
	p.touch(video.VideoID)
}

func (p *LRUPolicy) touch(videoID string) {
	for i, id := range p.order {
		if id == videoID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.order = append(p.order, videoID)
}

func (p *LRUPolicy) SelectEvict() (string, bool) {
	if len(p.order) == 0 {
		return "", false
	}
	id := p.order[0]
	p.order = p.order[1:]
	return id, true
}
