// Direct-I/O alignment check for the tail op of a pass.
package pipeline

import (
	"context"

	log "github.com/sirupsen/logrus"

	xdd "github.com/xdd-io/xdd"
	"github.com/xdd-io/xdd/pkg/target"
	"github.com/xdd-io/xdd/pkg/transport"
	"github.com/xdd-io/xdd/pkg/worker"
)

// checkDIO enforces direct-I/O alignment on the last op of a pass.
// Applies only when DIO is set and SGIO is not. On ineligibility it
// clears DIO, closes and reopens the handle without O_DIRECT, and (if
// more passes remain) re-arms DIO for the next pass. A reopen failure
// raises the global abort flag rather than erroring this op alone,
// since a broken handle makes every subsequent op on this target
// impossible.
func (p *Pipeline) checkDIO(w *worker.Worker) error {
	t := w.Target
	if !t.Options.Has(target.OptDIO) || t.Options.Has(target.OptSGIO) {
		return nil
	}
	if !t.IsLastOp(w.CurrentOp) {
		return nil
	}

	tailSize := w.CurrentIOSize
	if w.LastIOSize > 0 {
		tailSize = w.LastIOSize
	}
	if xdd.DioEligible(w.CurrentByteLoc, tailSize, p.Config.PageSize) {
		return nil
	}

	log.Warnf("[dio] target %d op %d: tail io_size=%d loc=%d not page-aligned, dropping DIO",
		t.ID, w.CurrentOp, tailSize, w.CurrentByteLoc)

	t.Options &^= target.OptDIO
	if w.Handle != nil {
		if err := w.Handle.Close(); err != nil {
			log.Warnf("[dio] close before reopen failed: %v", err)
		}

		handle, err := transport.Reopen(context.Background(), w.Path, false)
		if err != nil {
			p.State.SetAbort()
			return xdd.ErrDioRealign
		}
		w.Handle = handle
	}

	if t.PassNumber+1 < t.Passes {
		t.Options |= target.OptDIO
	}
	return nil
}
