package trigger_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xdd-io/xdd/pkg/clock"
	"github.com/xdd-io/xdd/pkg/target"
	"github.com/xdd-io/xdd/pkg/trigger"
)

// Scenario 2 from spec.md 8: start trigger on op count. Target A has
// start_trigger_op = 5, triggeree B. B is created with WAIT-FOR-START.
// After A completes op 6, B's start barrier is released; B's run_status
// becomes running; B only proceeds after A's op 6.
func TestStartTriggerOnOpCount(t *testing.T) {
	a := &target.Target{ID: 0}
	b := &target.Target{ID: 1, Options: target.OptWaitForStart, Status: target.NotStarted}

	block := trigger.NewBlock(a.ID, b.ID, []trigger.Threshold{{Kind: trigger.KindOp, Value: 5}})

	var mu sync.Mutex
	var order []string

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		res, err := block.Process(clock.Now(), b, nil)
		assert.NoError(t, err)
		assert.Equal(t, trigger.ResultLoop, res)
		mu.Lock()
		order = append(order, "b-released")
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		for op := int64(0); op <= 6; op++ {
			a.CurrentOp = op
			mu.Lock()
			order = append(order, "a-op")
			mu.Unlock()
			res, err := block.Process(clock.Now(), a, b)
			assert.NoError(t, err)
			assert.Equal(t, trigger.ResultSuccess, res)
		}
	}()

	wg.Wait()

	assert.Equal(t, target.Running, b.Status)
	// each "a-op" entry is recorded before A runs that op's stage, so
	// b-released must follow the 7th entry (A's op 6) and no earlier one
	released := -1
	aOps := 0
	for i, e := range order {
		if e == "a-op" {
			aOps++
		}
		if e == "b-released" {
			released = i
			assert.Equal(t, 7, aOps, "b must be released only after A's op 6")
			break
		}
	}
	assert.NotEqual(t, -1, released)
}

func TestStartTriggerSuppressedOnceTriggeeRunning(t *testing.T) {
	a := &target.Target{ID: 0}
	b := &target.Target{ID: 1, Status: target.Running}
	block := trigger.NewBlock(a.ID, b.ID, []trigger.Threshold{{Kind: trigger.KindOp, Value: 0}})
	a.CurrentOp = 5
	res, err := block.Process(clock.Now(), a, b)
	assert.NoError(t, err)
	assert.Equal(t, trigger.ResultSuccess, res)
}
