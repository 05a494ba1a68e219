// Package lockstep pairs a master target's issue rate against a slave
// target's: the master pings on an interval, the slave blocks until a
// matching number of pings has accumulated, and the master, when it
// finishes, tells the slave either to stop or to stop waiting.
package lockstep

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/xdd-io/xdd/pkg/barrier"
	"github.com/xdd-io/xdd/pkg/clock"
	"github.com/xdd-io/xdd/pkg/target"
)

// Kind tags an interval/task metric.
type Kind uint8

const (
	KindTime Kind = iota
	KindOp
	KindPercent
	KindBytes
)

// Metric is one configured interval or task predicate. Base is a
// mutable bucket counter, not a ratio: it advances on every fire, so it
// tracks "which bucket are we on" uniformly across Time/Op/Percent/Bytes.
type Metric struct {
	Kind  Kind
	Value float64
	Base  float64
}

func (m *Metric) fires(now clock.Picoseconds, t *target.Target) bool {
	threshold := (m.Base + 1) * m.Value
	switch m.Kind {
	case KindTime:
		return float64(int64(now)-t.PassStartTime) >= threshold
	case KindOp:
		return float64(t.CurrentOp) >= threshold
	case KindPercent:
		return float64(t.CurrentOp) >= threshold*float64(t.TargetOps)
	case KindBytes:
		return float64(t.BytesXfered) >= threshold
	default:
		return false
	}
}

func (m *Metric) advance() { m.Base++ }

// Flag is one bit of master/slave coordination state, mutated only
// while holding Block.mu.
type Flag uint8

const (
	FlagMasterWaiting Flag = 1 << iota
	FlagSlaveWaiting
	FlagMasterFinished
	FlagSlaveComplete
	FlagSlaveStop
)

// Result is the slave-side stage result handed back to the pipeline
// driver.
type Result uint8

const (
	ResultSuccess Result = iota
	ResultStop           // master finished and requested the slave stop
	ResultError
)

// Block is one lockstep pairing, owned by the slave target. A target
// that is simultaneously master to one target and slave to another
// holds two Blocks.
//
// masterIdx and slaveIdx each select which side of Bar the respective
// role enters next. Each is read and advanced only by calls made from
// that role (Ping/Finish for masterIdx, Check for slaveIdx), so the two
// never race: every round consumes exactly one master entry and one
// slave entry, so the two counters always agree on which side of Bar a
// round uses without either role ever reading the other's field.
type Block struct {
	mu sync.Mutex

	PairedTargetID int
	Interval       Metric // evaluated by the master
	Task           Metric // evaluated by the slave
	TaskCounter    int
	Flags          Flag

	Bar       *barrier.Pair
	masterIdx int
	slaveIdx  int
}

// NewBlock allocates a lockstep pairing's shared barrier.
func NewBlock(pairedTargetID int, interval, task Metric) *Block {
	return &Block{
		PairedTargetID: pairedTargetID,
		Interval:       interval,
		Task:           task,
		Bar:            barrier.NewPair(2),
	}
}

// enterMaster is called only from master-side functions (Ping, Finish).
// It advances masterIdx after its own entry returns, regardless of
// whether this call was the first or last to arrive at the barrier.
func (b *Block) enterMaster() error {
	idx := b.masterIdx
	if err := b.Bar.Side(idx).Enter(); err != nil {
		return err
	}
	b.masterIdx ^= 1
	return nil
}

// enterSlave is the slave-side counterpart of enterMaster, called only
// from Check.
func (b *Block) enterSlave() error {
	idx := b.slaveIdx
	if err := b.Bar.Side(idx).Enter(); err != nil {
		return err
	}
	b.slaveIdx ^= 1
	return nil
}

// Ping runs the master-side interval check. masterTarget is the
// master's own target, used to evaluate Interval.
func (b *Block) Ping(now clock.Picoseconds, masterTarget *target.Target) error {
	if !b.Interval.fires(now, masterTarget) {
		return nil
	}
	b.Interval.advance()

	b.mu.Lock()
	b.TaskCounter++
	release := b.Flags&FlagSlaveWaiting != 0
	if release {
		b.Flags &^= FlagSlaveWaiting
	}
	b.mu.Unlock()

	if !release {
		return nil
	}
	if err := b.enterMaster(); err != nil {
		return err
	}
	log.Debugf("[lockstep] master pinged slave (target %d), task_counter advanced", b.PairedTargetID)
	return nil
}

// Finish is called once by the master when it has no more ops to issue
// this pass. stop selects SLAVE_STOP (the slave should terminate its
// pass) vs SLAVE_COMPLETE (the slave should simply stop waiting and
// proceed normally).
func (b *Block) Finish(stop bool) error {
	b.mu.Lock()
	b.Flags |= FlagMasterFinished
	if stop {
		b.Flags |= FlagSlaveStop
	} else {
		b.Flags |= FlagSlaveComplete
	}
	if b.Flags&FlagSlaveWaiting != 0 {
		b.Flags &^= FlagSlaveWaiting
	} else {
		b.Flags |= FlagMasterWaiting
	}
	b.mu.Unlock()
	return b.enterMaster()
}

// Check runs the slave-side stage, returning the pipeline result and
// bumping loopCounter whenever this call drains through the barrier.
func (b *Block) Check(now clock.Picoseconds, slaveTarget *target.Target, loopCounter *int) (Result, error) {
	b.mu.Lock()

	wait := false
	if b.TaskCounter > 0 {
		if b.Task.fires(now, slaveTarget) {
			wait = true
			b.Task.advance()
			b.TaskCounter--
		}
	} else {
		wait = true
	}

	if !wait {
		b.mu.Unlock()
		return ResultSuccess, nil
	}

	switch {
	case b.Flags&FlagMasterFinished != 0 && b.Flags&FlagSlaveComplete != 0:
		b.Flags &^= FlagSlaveWaiting
		drain := b.Flags&FlagMasterWaiting != 0
		if drain {
			b.Flags &^= FlagMasterWaiting
		}
		b.mu.Unlock()
		if drain {
			if err := b.enterSlave(); err != nil {
				return ResultError, err
			}
			*loopCounter++
		}
		return ResultSuccess, nil

	case b.Flags&FlagMasterFinished != 0 && b.Flags&FlagSlaveStop != 0:
		b.Flags &^= FlagSlaveWaiting
		drain := b.Flags&FlagMasterWaiting != 0
		if drain {
			b.Flags &^= FlagMasterWaiting
		}
		b.mu.Unlock()
		if drain {
			if err := b.enterSlave(); err != nil {
				return ResultError, err
			}
			*loopCounter++
		}
		return ResultStop, nil

	default: // master still running
		b.Flags &^= FlagMasterWaiting
		b.Flags |= FlagSlaveWaiting
		b.mu.Unlock()
		if err := b.enterSlave(); err != nil {
			return ResultError, err
		}
		*loopCounter++
		return ResultSuccess, nil
	}
}

// TaskCount returns the current task counter, for tests asserting the
// lockstep safety invariant (task_counter never observed negative).
func (b *Block) TaskCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.TaskCounter
}
