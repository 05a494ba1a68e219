// Package barrier implements the N-party rendezvous primitive the
// pipeline uses for syncio, start triggers and lockstep. Pair gives
// callers a double-buffered index so that two consecutive uses of the
// same logical barrier can never race: one buffer is in use while the
// other is reset, and callers toggle which one they address after every
// release.
package barrier

import (
	"errors"
	"sync"
)

var errBarrierClosed = errors.New("barrier: closed while waiting")

// Barrier is a single N-party rendezvous: N calls to Enter block until
// all N have arrived, then all N are released together. A Barrier
// releases once per round and rearms itself for the next round when the
// last party of a round arrives.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	n       int
	arrived int
	round   int
	closed  bool
}

// New returns a Barrier that releases once n parties have called Enter.
func New(n int) *Barrier {
	b := &Barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Enter blocks until n parties (including this caller) have entered the
// current round, then returns. Safe for concurrent use by up to n
// goroutines per round; a round is only released once, by the last
// arriver, who also rearms the barrier for the following round.
func (b *Barrier) Enter() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errBarrierClosed
	}
	round := b.round
	b.arrived++
	if b.arrived == b.n {
		// Last arriver releases everyone and rearms for the next round.
		b.arrived = 0
		b.round++
		b.cond.Broadcast()
		return nil
	}
	for round == b.round && !b.closed {
		b.cond.Wait()
	}
	if b.closed {
		return errBarrierClosed
	}
	return nil
}

// Close unblocks every waiter with an error. Used when the run aborts.
func (b *Barrier) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
}

// Pair is a toggling pair of barriers: at most one of the pair is in
// use at any instant, and consecutive rounds alternate between the two
// so a late arriver from round N cannot collide with an early arriver
// of round N+1.
type Pair struct {
	bars [2]*Barrier
}

// NewPair returns a Pair of n-party barriers.
func NewPair(n int) *Pair {
	return &Pair{bars: [2]*Barrier{New(n), New(n)}}
}

// Side returns the barrier addressed by index (0 or 1).
func (p *Pair) Side(index int) *Barrier {
	return p.bars[index&1]
}

// Close closes both sides, used on abort.
func (p *Pair) Close() {
	p.bars[0].Close()
	p.bars[1].Close()
}
