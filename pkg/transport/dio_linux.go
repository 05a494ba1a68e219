//go:build linux

package transport

import (
	"context"

	"golang.org/x/sys/unix"
)

func init() {
	RegisterBackend("dio", func() Backend { return &dioBackend{} })
}

// dioBackend opens targets with O_DIRECT when OpenOptions.DIO is set,
// bypassing the page cache. The DIO alignment-check stage reopens a
// target through Reopen without O_DIRECT when a tail op cannot honour
// page alignment; this backend itself does no alignment policing.
type dioBackend struct{}

func (dioBackend) Open(_ context.Context, opts OpenOptions) (Handle, error) {
	flags := unix.O_RDWR | unix.O_CREAT
	if opts.DIO {
		flags |= unix.O_DIRECT
	}
	fd, err := unix.Open(opts.Path, flags, 0o644)
	if err != nil {
		return nil, err
	}
	return &dioHandle{fd: fd}, nil
}

type dioHandle struct {
	fd int
}

func (h *dioHandle) ReadAt(buf []byte, off int64) (int, error) {
	return unix.Pread(h.fd, buf, off)
}

func (h *dioHandle) WriteAt(buf []byte, off int64) (int, error) {
	return unix.Pwrite(h.fd, buf, off)
}

func (h *dioHandle) Sync() error {
	return unix.Fsync(h.fd)
}

func (h *dioHandle) Close() error {
	return unix.Close(h.fd)
}

func (h *dioHandle) Stat() (Stat, error) {
	var st unix.Stat_t
	if err := unix.Fstat(h.fd, &st); err != nil {
		return Stat{}, err
	}
	return Stat{Size: st.Size}, nil
}

// Reopen opens path again through the dio backend, with O_DIRECT only
// when dio is true, for the DIO-ineligible-tail path. It does not close
// any existing handle: the caller closes the old one and supplies the
// path it retained, since dioHandle does not keep it.
func Reopen(ctx context.Context, path string, dio bool) (Handle, error) {
	return dioBackend{}.Open(ctx, OpenOptions{Path: path, DIO: dio})
}
