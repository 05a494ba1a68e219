package transport_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xdd-io/xdd/pkg/transport"
)

func TestVirtualBackendRoundTrip(t *testing.T) {
	h, err := transport.Open(context.Background(), "virtual", transport.OpenOptions{Path: t.Name()})
	assert.NoError(t, err)
	defer h.Close()

	n, err := h.WriteAt([]byte("hello"), 10)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = h.ReadAt(buf, 10)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	st, err := h.Stat()
	assert.NoError(t, err)
	assert.EqualValues(t, 15, st.Size)
}

func TestUnknownScheme(t *testing.T) {
	_, err := transport.Open(context.Background(), "nope", transport.OpenOptions{})
	assert.Error(t, err)
}
