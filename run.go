package xdd

import (
	"sync/atomic"

	"github.com/xdd-io/xdd/pkg/target"
)

// RunConfig is the immutable process-wide configuration handed to every
// worker at construction: global option bits, the syncio period and
// anything else that does not change once a run starts.
type RunConfig struct {
	SyncioPeriod int // rendezvous period in ops; 0 disables syncio
	PageSize     int64
}

// RunState is the mutable, atomically-accessed process-wide state.
// Abort is write-once (monotone false->true); readers never need a lock.
type RunState struct {
	abort int32
}

// Abort reports whether the run has been aborted.
func (s *RunState) Abort() bool {
	return atomic.LoadInt32(&s.abort) != 0
}

// SetAbort raises the global abort flag. Safe to call from any goroutine,
// any number of times.
func (s *RunState) SetAbort() {
	atomic.StoreInt32(&s.abort, 1)
}

// Plan owns every target for a run. Cross-target references (trigger
// peers, lockstep peers) are indices into Targets, resolved through this
// shared, read-only-for-the-run handle.
type Plan struct {
	Config  *RunConfig
	State   *RunState
	Targets []*target.Target
}

// NewPlan builds an empty plan ready to receive targets.
func NewPlan(cfg *RunConfig) *Plan {
	return &Plan{
		Config: cfg,
		State:  &RunState{},
	}
}

// Target resolves a target id to its descriptor. It panics on an
// out-of-range id since target ids are assigned at plan-build time and
// are never user-supplied at the point this is called.
func (p *Plan) Target(id int) *target.Target {
	return p.Targets[id]
}

// AddTarget appends a new target to the plan and assigns it the next
// process-unique id.
func (p *Plan) AddTarget(t *target.Target) {
	t.ID = len(p.Targets)
	p.Targets = append(p.Targets, t)
}
