package planfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	xdd "github.com/xdd-io/xdd"
	"github.com/xdd-io/xdd/pkg/planfile"
	"github.com/xdd-io/xdd/pkg/target"
)

const samplePlan = `
[target 0]
block_size = 4096
request_size = 2
target_ops = 100
bytes_per_pass = 819200
dio = true
wait_for_start = false

[target 1]
block_size = 512
request_size = 1
target_ops = 50
bytes_per_pass = 25600
raw_reader = true
`

func writeTempPlan(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.ini")
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadPlanParsesTargetSections(t *testing.T) {
	path := writeTempPlan(t, samplePlan)
	plan, err := planfile.LoadPlan(path, &xdd.RunConfig{PageSize: 4096})
	assert.NoError(t, err)
	assert.Len(t, plan.Targets, 2)

	t0 := plan.Target(0)
	assert.Equal(t, int64(4096), t0.BlockSize)
	assert.Equal(t, int64(2), t0.RequestSize)
	assert.True(t, t0.Options.Has(target.OptDIO))

	t1 := plan.Target(1)
	assert.True(t, t1.Options.Has(target.OptRawReader))
}

func TestTargetRejectsInvalidIOSize(t *testing.T) {
	path := writeTempPlan(t, "[target 0]\nblock_size = 0\nrequest_size = 1\ntarget_ops = 1\n")
	c, err := planfile.Load(path)
	assert.NoError(t, err)
	_, err = c.Target("target 0")
	assert.Error(t, err)
}
