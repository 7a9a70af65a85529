package simproxy

import "github.com/alxayo/videocache-sim/internal/simnet"

// FIFOPolicy admits everything and evicts in insertion order (spec §4.5).
type FIFOPolicy struct {
	order []string
}

// NewFIFOPolicy constructs an empty FIFO eviction policy.
func NewFIFOPolicy() *FIFOPolicy { return &FIFOPolicy{} }

func (p *FIFOPolicy) Admit(simnet.Video) bool { return true }

func (p *FIFOPolicy) OnInsert(video simnet.Video) {
	p.order = append(p.order, video.VideoID)
}

func (p *FIFOPolicy) OnServe(simnet.Video) {} // no-op: access order is irrelevant to FIFO

func (p *FIFOPolicy) SelectEvict() (string, bool) {
	if len(p.order) == 0 {
		return "", false
	}
	id := p.order[0]
	p.order = p.order[1:]
	return id, true
}
