package transport

import (
	"context"
	"os"
)

func init() {
	RegisterBackend("file", func() Backend { return &fileBackend{} })
}

// fileBackend opens plain, buffered-cache files. It is the default
// target backend when DIO is not requested.
type fileBackend struct{}

func (fileBackend) Open(_ context.Context, opts OpenOptions) (Handle, error) {
	f, err := os.OpenFile(opts.Path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileHandle{f: f}, nil
}

type fileHandle struct {
	f *os.File
}

func (h *fileHandle) ReadAt(buf []byte, off int64) (int, error)  { return h.f.ReadAt(buf, off) }
func (h *fileHandle) WriteAt(buf []byte, off int64) (int, error) { return h.f.WriteAt(buf, off) }
func (h *fileHandle) Sync() error                                { return h.f.Sync() }
func (h *fileHandle) Close() error                               { return h.f.Close() }

func (h *fileHandle) Stat() (Stat, error) {
	info, err := h.f.Stat()
	if err != nil {
		return Stat{}, err
	}
	return Stat{Size: info.Size()}, nil
}
