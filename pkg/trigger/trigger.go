// Package trigger implements cross-target start/stop signalling: a
// small set of independent threshold predicates, each evaluated and
// OR'd, that release a paired target from a wait barrier once any one
// of them fires.
package trigger

import (
	log "github.com/sirupsen/logrus"

	"github.com/xdd-io/xdd/pkg/barrier"
	"github.com/xdd-io/xdd/pkg/clock"
	"github.com/xdd-io/xdd/pkg/target"
)

// Kind tags one threshold predicate.
type Kind uint8

const (
	KindTime Kind = iota
	KindOp
	KindPercent
	KindBytes
)

// Threshold is one configured predicate value.
type Threshold struct {
	Kind  Kind
	Value float64
}

// Result is the stage's small result discriminant: no exceptions,
// every stage returns an explicit code the driver maps to
// continue/abort/loop.
type Result uint8

const (
	ResultSuccess Result = iota
	ResultLoop           // caller should re-loop without issuing this op
	ResultError
)

// Block is one target's trigger configuration: either a triggerer
// (non-empty Thresholds, evaluated against a triggeree) or a waiter
// (the owning target has target.OptWaitForStart set). Both sides of a
// pairing share the same Bar.
type Block struct {
	Thresholds  []Threshold
	TriggererID int
	TriggereeID int

	Bar   *barrier.Pair
	index int // this block's local toggle bit, independent of the peer's
}

// NewBlock allocates a trigger pairing's shared barrier (2-party: one
// entry from the triggerer's release, one from the triggeree's wait).
func NewBlock(triggererID, triggereeID int, thresholds []Threshold) *Block {
	return &Block{
		Thresholds:  thresholds,
		TriggererID: triggererID,
		TriggereeID: triggereeID,
		Bar:         barrier.NewPair(2),
	}
}

// Process runs the start-trigger stage for local. When local is the
// configured waiter (target.OptWaitForStart, still not-started), it
// blocks in the barrier until a triggerer releases it. Otherwise, if
// local has configured thresholds, it evaluates them against its own
// counters and the triggeree's run_status, releasing the triggeree
// exactly once when a threshold first fires.
func (b *Block) Process(now clock.Picoseconds, local, triggeree *target.Target) (Result, error) {
	if local.Options.Has(target.OptWaitForStart) && local.Status == target.NotStarted {
		if err := b.Bar.Side(b.index).Enter(); err != nil {
			return ResultError, err
		}
		b.index ^= 1
		local.Status = target.Running
		return ResultLoop, nil
	}

	if len(b.Thresholds) == 0 {
		return ResultSuccess, nil
	}
	// Edge-triggered: once the triggeree has left not-started, further
	// threshold evaluation is suppressed. A non-firing pass is SUCCESS,
	// not an error.
	if triggeree == nil || triggeree.Status != target.NotStarted {
		return ResultSuccess, nil
	}

	for _, th := range b.Thresholds {
		if !b.fires(th, now, local) {
			continue
		}
		if err := b.Bar.Side(b.index).Enter(); err != nil {
			return ResultError, err
		}
		b.index ^= 1
		log.Debugf("[trigger %d->%d] released at op %d", b.TriggererID, b.TriggereeID, local.CurrentOp)
		return ResultSuccess, nil
	}
	return ResultSuccess, nil
}

func (b *Block) fires(th Threshold, now clock.Picoseconds, local *target.Target) bool {
	switch th.Kind {
	case KindTime:
		return int64(now) > int64(th.Value)+local.PassStartTime
	case KindOp:
		return float64(local.CurrentOp) > th.Value
	case KindPercent:
		return float64(local.CurrentOp) > th.Value*float64(local.TargetOps)
	case KindBytes:
		return float64(local.BytesXfered) > th.Value
	default:
		return false
	}
}
