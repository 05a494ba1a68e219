// Package pipeline implements the pre-issue pipeline driver: the fixed,
// ordered sequence of stages a worker runs before issuing each
// operation. Each stage returns an explicit status that the driver
// folds into its own decision; no exceptions cross goroutine boundaries.
package pipeline

import (
	log "github.com/sirupsen/logrus"

	xdd "github.com/xdd-io/xdd"
	"github.com/xdd-io/xdd/pkg/clock"
	"github.com/xdd-io/xdd/pkg/e2e"
	"github.com/xdd-io/xdd/pkg/lockstep"
	"github.com/xdd-io/xdd/pkg/raw"
	"github.com/xdd-io/xdd/pkg/syncio"
	"github.com/xdd-io/xdd/pkg/target"
	"github.com/xdd-io/xdd/pkg/throttle"
	"github.com/xdd-io/xdd/pkg/timestamp"
	"github.com/xdd-io/xdd/pkg/trigger"
	"github.com/xdd-io/xdd/pkg/worker"
)

// Result is the stage-9 outcome the worker's outer loop consumes.
type Result uint8

const (
	ResultSuccess Result = iota
	ResultFailed
	ResultLoop // caller should re-run the pipeline for this op without issuing I/O
)

// Stages bundles the optional, per-worker stage collaborators. A
// worker with none configured just flows straight through; the driver
// treats a nil field as "this stage does not apply".
type Stages struct {
	Syncio *syncio.Coordinator // shared across all targets in the plan

	Trigger     *trigger.Block // present if this target triggers or awaits start
	TriggeePeer *target.Target // the triggeree, when this target is a triggerer

	Lockstep           *lockstep.Block
	LockstepIsMaster   bool
	LockstepPeerTarget *target.Target // the master's own target, for Ping's interval check
	LockstepLoopCount  int

	Raw *raw.Block
	E2E *e2e.Block

	Timestamp *timestamp.Ring
	Throttle  *throttle.Throttle
}

// Pipeline runs the pre-issue stages for workers of one plan.
type Pipeline struct {
	Config *xdd.RunConfig
	State  *xdd.RunState
}

// New builds a pipeline driver bound to a run's config and state.
func New(cfg *xdd.RunConfig, state *xdd.RunState) *Pipeline {
	return &Pipeline{Config: cfg, State: state}
}

// Process runs every applicable stage, in fixed order, for worker w's
// upcoming operation. On any hard failure it sets w.ErrorBreak and
// returns ResultFailed; soft failures are logged and absorbed instead
// of aborting the op.
func (p *Pipeline) Process(w *worker.Worker, s *Stages) (Result, error) {
	t := w.Target

	// 1. Syncio
	if s.Syncio != nil {
		if err := s.Syncio.Process(t); err != nil {
			return p.fail(w, err)
		}
	}

	// 2. Start trigger
	if s.Trigger != nil {
		res, err := s.Trigger.Process(clock.Now(), t, s.TriggeePeer)
		if err != nil {
			return p.fail(w, err)
		}
		if res == trigger.ResultLoop {
			return ResultLoop, nil
		}
	}

	// 3. Lockstep
	if s.Lockstep != nil {
		if s.LockstepIsMaster {
			if err := s.Lockstep.Ping(clock.Now(), s.LockstepPeerTarget); err != nil {
				return p.fail(w, err)
			}
		} else {
			res, err := s.Lockstep.Check(clock.Now(), t, &s.LockstepLoopCount)
			if err != nil {
				return p.fail(w, err)
			}
			if res == lockstep.ResultStop {
				w.PassRing = true
				return ResultSuccess, xdd.ErrLockstepStop
			}
		}
	}

	// 4. Seek resolution
	w.CurrentByteLoc = t.CurrentByteLocation()
	w.CurrentIOSize = t.IOSize()

	// 5. DIO check (soft: logs and continues on its own, hard-aborts the
	// run only via State.SetAbort, never fails this op directly)
	if err := p.checkDIO(w); err != nil {
		log.Warnf("[pipeline] target %d worker %d: dio check: %v", t.ID, w.Index, err)
	}

	// 6. RAW wait
	if s.Raw != nil {
		if err := s.Raw.Wait(w.CurrentByteLoc, w.CurrentIOSize); err != nil {
			log.Warnf("[pipeline] target %d worker %d: raw wait: %v", t.ID, w.Index, err)
		}
	}

	// 7. E2E receive
	if s.E2E != nil {
		size, loc, passRing, res := s.E2E.Receive(w.CurrentIOSize, t.IsLastOp(w.CurrentOp))
		if res == e2e.ResultFailed {
			return p.fail(w, xdd.ErrProtocol)
		}
		w.CurrentIOSize = size
		w.CurrentByteLoc = loc
		if passRing {
			w.PassRing = true
		}
	}

	// 8. Timestamp arm
	if s.Timestamp != nil {
		s.Timestamp.Arm(clock.Now(), t, t.OpKindAt(w.CurrentOp))
	}

	// 9. Throttle
	if s.Throttle != nil {
		s.Throttle.Pace(clock.Now(), clock.Picoseconds(t.PassStartTime), w.CurrentOp)
	}

	return ResultSuccess, nil
}

func (p *Pipeline) fail(w *worker.Worker, err error) (Result, error) {
	w.ErrorBreak = true
	return ResultFailed, err
}
