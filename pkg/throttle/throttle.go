// Package throttle implements the pacing stage: a monotonic "now"
// compared against a precomputed deadline, sleeping the remainder.
package throttle

import (
	"time"

	"github.com/xdd-io/xdd/pkg/clock"
)

// Mode selects the pacing algorithm.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeDelay
	ModeSchedule // IOPS or bandwidth-derived per-op schedule
)

// minTick is the smallest sleep this stage bothers to perform, so a
// schedule that is only microseconds ahead doesn't pay a full
// scheduler round-trip for nothing.
const minTick = time.Millisecond

// Throttle paces operation issue according to Mode.
type Throttle struct {
	Mode  Mode
	Delay clock.Picoseconds // fixed per-op sleep, ModeDelay

	// Schedule[i] is the picosecond offset from pass start at which op i
	// should be issued, ModeSchedule. Built by the plan loader from the
	// target's configured IOPS or bandwidth limit.
	Schedule []clock.Picoseconds
}

// NewDelay builds a fixed-delay throttle.
func NewDelay(delay clock.Picoseconds) *Throttle {
	return &Throttle{Mode: ModeDelay, Delay: delay}
}

// NewSchedule builds a schedule-based throttle (IOPS or bandwidth
// pacing, whichever the caller used to derive schedule).
func NewSchedule(schedule []clock.Picoseconds) *Throttle {
	return &Throttle{Mode: ModeSchedule, Schedule: schedule}
}

// Pace blocks the calling goroutine as needed for op, relative to
// passStart. now is supplied by the caller so tests can use a
// consistent, repeatable clock reading around the decision.
func (t *Throttle) Pace(now clock.Picoseconds, passStart clock.Picoseconds, op int64) {
	switch t.Mode {
	case ModeDelay:
		if t.Delay > 0 {
			clock.SleepUntil(now + t.Delay)
		}
	case ModeSchedule:
		if op < 0 || int(op) >= len(t.Schedule) {
			return
		}
		deadline := passStart + t.Schedule[op]
		if deadline <= now {
			return
		}
		if (deadline - now).Duration() < minTick {
			return
		}
		clock.SleepUntil(deadline)
	}
}
