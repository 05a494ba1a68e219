// Package worker holds the one-in-flight-operation actor that executes
// inside a target.
package worker

import (
	"github.com/xdd-io/xdd/pkg/target"
	"github.com/xdd-io/xdd/pkg/transport"
)

// Worker is one in-flight I/O within a target.
type Worker struct {
	Target *target.Target
	Index  int // in [0, queue_depth)

	Handle transport.Handle
	Path   string // retained so the DIO stage can reopen without DIO
	Socket int

	CurrentOp      int64
	CurrentByteLoc int64
	CurrentIOSize  int64
	LastIOSize     int64 // for tail operations

	ErrorBreak bool
	PassRing   bool // request to end the pass

	// per-worker lockstep loop counter. The pipeline driver does not
	// update it; it counts lockstep barrier drains in
	// pipeline.Stages.LockstepLoopCount instead.
	LockstepLoops int
}

// New creates a worker bound to target t at queue position idx.
func New(t *target.Target, idx int) *Worker {
	return &Worker{Target: t, Index: idx}
}

// Reset prepares the worker for a fresh pass.
func (w *Worker) Reset() {
	w.CurrentOp = 0
	w.CurrentByteLoc = w.Target.CurrentByteLocation()
	w.CurrentIOSize = w.Target.IOSize()
	w.ErrorBreak = false
	w.PassRing = false
}
