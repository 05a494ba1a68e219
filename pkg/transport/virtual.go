package transport

import (
	"context"
	"sync"
)

func init() {
	RegisterBackend("virtual", func() Backend { return &virtualBackend{} })
}

var virtualFiles sync.Map // path -> *virtualFile

// virtualBackend is an in-memory backend used by tests in place of a
// real file or block device.
type virtualBackend struct{}

func (virtualBackend) Open(_ context.Context, opts OpenOptions) (Handle, error) {
	v, _ := virtualFiles.LoadOrStore(opts.Path, &virtualFile{})
	return &virtualHandle{vf: v.(*virtualFile)}, nil
}

type virtualFile struct {
	mu   sync.Mutex
	data []byte
}

type virtualHandle struct {
	vf *virtualFile
}

func (h *virtualHandle) ReadAt(buf []byte, off int64) (int, error) {
	h.vf.mu.Lock()
	defer h.vf.mu.Unlock()
	if off >= int64(len(h.vf.data)) {
		return 0, nil
	}
	n := copy(buf, h.vf.data[off:])
	return n, nil
}

func (h *virtualHandle) WriteAt(buf []byte, off int64) (int, error) {
	h.vf.mu.Lock()
	defer h.vf.mu.Unlock()
	need := off + int64(len(buf))
	if need > int64(len(h.vf.data)) {
		grown := make([]byte, need)
		copy(grown, h.vf.data)
		h.vf.data = grown
	}
	copy(h.vf.data[off:], buf)
	return len(buf), nil
}

func (h *virtualHandle) Sync() error  { return nil }
func (h *virtualHandle) Close() error { return nil }

func (h *virtualHandle) Stat() (Stat, error) {
	h.vf.mu.Lock()
	defer h.vf.mu.Unlock()
	return Stat{Size: int64(len(h.vf.data))}, nil
}
