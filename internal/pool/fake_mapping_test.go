package pool

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/diskio/fileviewpool/pkg/openmode"
)

// fakeMapping is an in-memory FileMapping used by tests so the pool's
// dedup, eviction, and flush-selection logic can be exercised without
// touching the filesystem.
type fakeMapping struct {
	mu       sync.Mutex
	data     []byte
	closed   bool
	closeErr error
	flushErr error
	flushes  int
}

func newFakeMapping(size int64) *fakeMapping {
	return &fakeMapping{data: make([]byte, size)}
}

func (f *fakeMapping) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off < 0 || off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *fakeMapping) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off < 0 || off+int64(len(p)) > int64(len(f.data)) {
		return 0, io.ErrShortWrite
	}
	return copy(f.data[off:], p), nil
}

func (f *fakeMapping) Len() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.data))
}

func (f *fakeMapping) Flush(offset, length int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return f.flushErr
}

func (f *fakeMapping) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *fakeMapping) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeMapping) flushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

// fakeMapper is a Mapper that counts invocations and can optionally block
// until released, to force concurrent OpenFile callers to race against a
// single in-flight open.
type fakeMapper struct {
	openCount atomic.Int64
	err       error
	release   chan struct{} // if non-nil, MapFile blocks on it before returning
	mappings  sync.Map      // path -> *fakeMapping, for tests that open the same path twice
}

func (fm *fakeMapper) mapper() Mapper {
	return func(path string, size int64, mode openmode.Mode, unmapLock sync.Locker) (FileMapping, error) {
		fm.openCount.Add(1)
		if fm.release != nil {
			<-fm.release
		}
		if fm.err != nil {
			return nil, fm.err
		}
		m := newFakeMapping(size)
		fm.mappings.Store(path, m)
		return m, nil
	}
}
