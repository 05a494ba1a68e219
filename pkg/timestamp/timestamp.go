// Package timestamp implements an append-only, fixed-capacity table of
// per-operation records: arm once a configured condition is met, then
// append a record per op until the table fills.
package timestamp

import (
	"github.com/xdd-io/xdd/pkg/clock"
	"github.com/xdd-io/xdd/pkg/target"
)

// Condition is one bit of the arming bitset.
type Condition uint8

const (
	CondTriggered Condition = 1 << iota // sticky once any other condition fired
	CondAll                             // arm unconditionally, every op
	CondTrigTime                        // arm once now >= trigger time
	CondTrigOp                          // arm once current_op == trigger op
)

// Record is one captured operation.
type Record struct {
	OpKind    target.OpKind
	Pass      int
	ByteLoc   int64
	Op        int64
	StartTime clock.Picoseconds
}

// Ring is a fixed-capacity, append-only table of Records.
type Ring struct {
	Conditions Condition
	TrigTime   clock.Picoseconds
	TrigOp     int64

	records []Record
	armed   bool // sticky CondTriggered latch
}

// NewRing allocates a ring with room for capacity records.
func NewRing(capacity int, conditions Condition, trigTime clock.Picoseconds, trigOp int64) *Ring {
	return &Ring{
		Conditions: conditions,
		TrigTime:   trigTime,
		TrigOp:     trigOp,
		records:    make([]Record, 0, capacity),
	}
}

// shouldArm evaluates the arm-on-any-of predicate set.
func (r *Ring) shouldArm(now clock.Picoseconds, t *target.Target) bool {
	if r.armed {
		return true
	}
	if r.Conditions&CondAll != 0 {
		return true
	}
	if r.Conditions&CondTrigTime != 0 && now >= r.TrigTime {
		return true
	}
	if r.Conditions&CondTrigOp != 0 && t.CurrentOp == r.TrigOp {
		return true
	}
	return false
}

// Arm evaluates the arming conditions for the current op and, if
// armed, appends a record. Once armed by any condition, CondTriggered
// latches sticky for the rest of the run. Appends silently stop once
// the ring reaches capacity; this is not an error condition.
func (r *Ring) Arm(now clock.Picoseconds, t *target.Target, opKind target.OpKind) {
	if !r.shouldArm(now, t) {
		return
	}
	r.armed = true
	if len(r.records) >= cap(r.records) {
		return
	}
	r.records = append(r.records, Record{
		OpKind:    opKind,
		Pass:      t.PassNumber,
		ByteLoc:   t.CurrentByteLoc,
		Op:        t.CurrentOp,
		StartTime: now,
	})
}

// Records returns the captured records, in insertion order.
func (r *Ring) Records() []Record { return r.records }

// Len reports how many records have been captured so far.
func (r *Ring) Len() int { return len(r.records) }

// Full reports whether the ring has reached capacity and is no longer
// accepting new records.
func (r *Ring) Full() bool { return len(r.records) == cap(r.records) }
