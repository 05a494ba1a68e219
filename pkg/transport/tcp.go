package transport

import (
	"context"
	"net"
)

func init() {
	RegisterBackend("tcp", func() Backend { return &tcpBackend{} })
}

// tcpBackend dials a network peer target. Offsets are advisory only: a
// TCP stream has no random access, so ReadAt/WriteAt here behave as
// sequential reads/writes regardless of off, matching how a network
// peer target is actually driven by the pipeline (sequential E2E/RAW
// streaming, not seeked file I/O).
type tcpBackend struct{}

func (tcpBackend) Open(ctx context.Context, opts OpenOptions) (Handle, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", opts.Path)
	if err != nil {
		return nil, err
	}
	return &tcpHandle{conn: conn}, nil
}

type tcpHandle struct {
	conn net.Conn
}

func (h *tcpHandle) ReadAt(buf []byte, _ int64) (int, error)  { return h.conn.Read(buf) }
func (h *tcpHandle) WriteAt(buf []byte, _ int64) (int, error) { return h.conn.Write(buf) }
func (h *tcpHandle) Sync() error                              { return nil }
func (h *tcpHandle) Close() error                             { return h.conn.Close() }
func (h *tcpHandle) Stat() (Stat, error)                       { return Stat{}, nil }
