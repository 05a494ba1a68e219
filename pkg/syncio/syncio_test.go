package syncio_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xdd-io/xdd/pkg/syncio"
	"github.com/xdd-io/xdd/pkg/target"
)

// Scenario 1 from spec.md 8: syncio period 4, two targets, 10 ops each.
// Expect 3 rendezvous (ops 0, 4, 8), each target's barrier index
// toggles exactly 3 times.
func TestSyncioPeriodFourTwoTargets(t *testing.T) {
	const numOps = 10
	const period = 4

	targets := []*target.Target{
		{ID: 0, TargetOps: numOps, NoSeek: true},
		{ID: 1, TargetOps: numOps, NoSeek: true},
	}
	coord := syncio.New(period, len(targets))

	var wg sync.WaitGroup
	for _, tg := range targets {
		wg.Add(1)
		go func(tg *target.Target) {
			defer wg.Done()
			for op := int64(0); op < numOps; op++ {
				tg.CurrentOp = op
				assert.NoError(t, coord.Process(tg))
			}
		}(tg)
	}
	wg.Wait()

	for _, tg := range targets {
		// 3 toggles starting from 0 (0 -> 1 -> 0 -> 1) leave the index at 1
		assert.Equal(t, 1, tg.SyncioBarrierIndex)
	}
}

func TestSyncioDisabledSingleTarget(t *testing.T) {
	tg := &target.Target{ID: 0, TargetOps: 10, NoSeek: true}
	coord := syncio.New(4, 1)
	for op := int64(0); op < 10; op++ {
		tg.CurrentOp = op
		assert.NoError(t, coord.Process(tg))
	}
	assert.Equal(t, 0, tg.SyncioBarrierIndex)
}
