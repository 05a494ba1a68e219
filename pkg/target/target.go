// Package target holds the static configuration and mutable per-pass
// counters for one I/O target.
package target

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Option is a bit in a target's option flag set.
type Option uint32

const (
	OptDIO Option = 1 << iota
	OptSGIO
	OptRawReader
	OptRawWriter
	OptE2ESource
	OptE2EDestination
	OptWaitForStart
)

func (o Option) Has(bit Option) bool { return o&bit != 0 }

// RunStatus is one target's lifecycle state.
type RunStatus uint8

const (
	NotStarted RunStatus = iota
	Running
	Finished
)

// SeekEntry is one row of the per-op seek table: which op kind to issue
// and at what block location.
type SeekEntry struct {
	OpKind        OpKind
	BlockLocation int64
}

type OpKind uint8

const (
	OpRead OpKind = iota
	OpWrite
	OpNoOp
)

// Target is a unit of work against one storage endpoint.
type Target struct {
	ID           int
	BlockSize    int64
	RequestSize  int64 // blocks per op
	TargetOps    int64
	BytesPerPass int64
	QueueDepth   int
	StartOffset  int64
	TargetNumber int64
	Options      Option
	Path         string // backing file/device path, opened through pkg/transport

	Passes int

	// mutable per-pass state
	PassNumber         int
	PassStartTime      int64 // picoseconds, set by NextPass
	CurrentOp          int64
	CurrentByteLoc     int64
	BytesXfered        int64
	Status             RunStatus
	Abort              bool
	NoSeek             bool
	Seek               []SeekEntry
	SyncioBarrierIndex int
}

// IOSize returns request_size * block_size, which must be positive for
// a target to be runnable.
func (t *Target) IOSize() int64 {
	return t.RequestSize * t.BlockSize
}

// Validate checks the target's static invariants.
func (t *Target) Validate() error {
	iosize := t.IOSize()
	if iosize <= 0 {
		return fmt.Errorf("target %d: io_size = request_size * block_size must be > 0, got %d", t.ID, iosize)
	}
	if t.TargetOps*iosize < t.BytesPerPass {
		return fmt.Errorf("target %d: target_ops * io_size (%d) must be >= bytes_to_xfer_per_pass (%d)", t.ID, t.TargetOps*iosize, t.BytesPerPass)
	}
	return nil
}

// CurrentByteLocation computes the byte offset of the current op:
// (target_number * target_offset + seek[current_op].block_location) * block_size.
// When NoSeek is set the seek table is ignored and ops are sequential.
func (t *Target) CurrentByteLocation() int64 {
	blockLoc := t.CurrentOp * t.RequestSize
	if !t.NoSeek && int(t.CurrentOp) < len(t.Seek) {
		blockLoc = t.Seek[t.CurrentOp].BlockLocation
	}
	return (t.TargetNumber*t.StartOffset + blockLoc) * t.BlockSize
}

// OpKindAt returns the kind of op scheduled at index op (read/write),
// defaulting to OpWrite if no seek table is configured.
func (t *Target) OpKindAt(op int64) OpKind {
	if !t.NoSeek && int(op) < len(t.Seek) {
		return t.Seek[op].OpKind
	}
	return OpWrite
}

// IsLastOp reports whether op is the last operation of the pass.
func (t *Target) IsLastOp(op int64) bool {
	return op == t.TargetOps-1
}

// NextPass resets per-pass counters between passes, since a worker
// loops over multiple passes of the same target.
func (t *Target) NextPass(startTime int64) {
	t.PassNumber++
	t.PassStartTime = startTime
	t.CurrentOp = 0
	t.CurrentByteLoc = t.CurrentByteLocation()
	t.BytesXfered = 0
	t.Status = NotStarted
	log.Debugf("[target %d] starting pass %d", t.ID, t.PassNumber)
}
