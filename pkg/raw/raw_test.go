package raw_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xdd-io/xdd/pkg/raw"
)

// Scenario 6 from spec.md 8: reader holds prev_loc = 10000, receives a
// message with location = 9000. The message is stale and discarded:
// sequence expectation and data_ready stay unchanged.
func TestMessagePassingStaleDrop(t *testing.T) {
	const ioSize = 1000

	var wire bytes.Buffer
	assert.NoError(t, raw.NotifyWriter(&wire, 0, 10000, 0))     // init prev_loc=10000
	assert.NoError(t, raw.NotifyWriter(&wire, 5, 9000, ioSize)) // stale, discarded
	assert.NoError(t, raw.NotifyWriter(&wire, 1, 10001, 999))   // prev_loc+prev_len (10000) -> 11000

	conn := &loopConn{r: &wire}
	block := raw.NewMessagePassing(conn)

	assert.NoError(t, block.Wait(0, ioSize))
	// exactly ioSize of new data was credited and fully consumed by this op
	assert.Equal(t, int64(0), block.DataReady())
}

// Two back-to-back ops, each gated by its own writer notification,
// never observe a negative data_ready credit.
func TestMessagePassingAcceptsMonotoneSequence(t *testing.T) {
	const ioSize = 4096

	var wire bytes.Buffer
	assert.NoError(t, raw.NotifyWriter(&wire, 0, -1, 0)) // sentinel: no data confirmed yet
	assert.NoError(t, raw.NotifyWriter(&wire, 1, 0, ioSize))
	assert.NoError(t, raw.NotifyWriter(&wire, 2, ioSize, ioSize))

	conn := &loopConn{r: &wire}
	block := raw.NewMessagePassing(conn)

	assert.NoError(t, block.Wait(0, ioSize))
	assert.GreaterOrEqual(t, block.DataReady(), int64(0))
	assert.NoError(t, block.Wait(ioSize, ioSize))
	assert.GreaterOrEqual(t, block.DataReady(), int64(0))
}

// loopConn adapts a bytes.Buffer (read-only in these tests) to
// io.ReadWriteCloser, since Block only ever reads in MESSAGE-PASSING
// mode from the reader side.
type loopConn struct {
	r *bytes.Buffer
}

func (l *loopConn) Read(p []byte) (int, error)  { return l.r.Read(p) }
func (l *loopConn) Write(p []byte) (int, error) { return len(p), nil }
func (l *loopConn) Close() error                { return nil }
