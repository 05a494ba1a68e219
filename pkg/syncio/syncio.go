// Package syncio implements a cross-target rendezvous: every period
// operations, every participating target blocks until all the others
// have also reached that boundary.
package syncio

import (
	"github.com/xdd-io/xdd/pkg/barrier"
	"github.com/xdd-io/xdd/pkg/target"
)

// Coordinator holds the shared barrier pair every participating target
// enters every S operations.
type Coordinator struct {
	Period     int
	NumTargets int
	bar        *barrier.Pair
}

// New builds a Coordinator for numTargets participants, each entering
// the barrier every period operations. Period <= 0 or numTargets <= 1
// disables syncio entirely (Process becomes a no-op).
func New(period, numTargets int) *Coordinator {
	c := &Coordinator{Period: period, NumTargets: numTargets}
	if c.enabled() {
		c.bar = barrier.NewPair(numTargets)
	}
	return c
}

func (c *Coordinator) enabled() bool {
	return c.Period > 0 && c.NumTargets > 1
}

// Process is called once per op, before issue. If this op falls on a
// syncio boundary, it blocks until every participating target has also
// reached that boundary, then toggles this target's barrier index so
// that the next round cannot collide with stragglers from this one.
func (c *Coordinator) Process(t *target.Target) error {
	if !c.enabled() {
		return nil
	}
	if t.CurrentOp%int64(c.Period) != 0 {
		return nil
	}
	if err := c.bar.Side(t.SyncioBarrierIndex).Enter(); err != nil {
		return err
	}
	t.SyncioBarrierIndex ^= 1
	return nil
}

// Close unblocks any target still waiting in the barrier, used on abort.
func (c *Coordinator) Close() {
	if c.bar != nil {
		c.bar.Close()
	}
}
