package xdd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	xdd "github.com/xdd-io/xdd"
)

func TestPageAligned(t *testing.T) {
	assert.True(t, xdd.PageAligned(0, 4096))
	assert.True(t, xdd.PageAligned(8192, 4096))
	assert.False(t, xdd.PageAligned(100, 4096))
	assert.False(t, xdd.PageAligned(4096, 0))
}

func TestDioEligible(t *testing.T) {
	assert.True(t, xdd.DioEligible(4096, 4096, 4096))
	assert.False(t, xdd.DioEligible(100, 4096, 4096), "misaligned offset")
	assert.False(t, xdd.DioEligible(4096, 100, 4096), "misaligned tail size")
}
