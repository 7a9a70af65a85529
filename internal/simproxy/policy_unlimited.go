package simproxy

import "github.com/alxayo/videocache-sim/internal/simnet"

// UnlimitedPolicy admits everything and never evicts; paired with a Cache
// whose max size is math.Inf(1), it never calls make_space (spec §4.5:
// "used as a correctness oracle — never calls make_space").
type UnlimitedPolicy struct{}

// NewUnlimitedPolicy constructs the no-eviction policy.
func NewUnlimitedPolicy() *UnlimitedPolicy { return &UnlimitedPolicy{} }

func (UnlimitedPolicy) Admit(simnet.Video) bool { return true }
func (UnlimitedPolicy) OnInsert(simnet.Video)    {}
func (UnlimitedPolicy) OnServe(simnet.Video)     {}

// SelectEvict is never reachable because isFull never reports true
// against an unbounded capacity, but is implemented for interface
// completeness.
func (UnlimitedPolicy) SelectEvict() (string, bool) { return "", false }
