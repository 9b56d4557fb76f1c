package pool

import (
	"sync"
	"sync/atomic"

	"github.com/diskio/fileviewpool/pkg/openmode"
)

// FileMapping owns one OS file handle and its memory mapping for a given
// (path, size, mode). It is the external capability the pool orchestrates
// but never implements itself directly against the OS.
type FileMapping interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Len() int64
	Flush(offset, length int64) error
	Close() error
}

// Mapper creates a FileMapping for path, sized to size bytes, opened per
// mode. unmapLock is the platform open_unmap_lock capability;
// implementations that don't need it may ignore it.
type Mapper func(path string, size int64, mode openmode.Mode, unmapLock sync.Locker) (FileMapping, error)

// SharedMapping is the pool's shared-ownership wrapper around a
// FileMapping. One reference belongs to the cache entry for as long as it
// is present in FilesIndex; one more reference is handed out per View
// acquired. The mapping is destroyed the moment the reference count
// reaches zero, which may happen well after eviction if a caller is still
// holding a View.
type SharedMapping struct {
	id        FileID
	impl      FileMapping
	unmapLock sync.Locker

	mu     sync.Mutex
	refs   int
	closed bool
}

func newSharedMapping(id FileID, impl FileMapping, unmapLock sync.Locker) *SharedMapping {
	return &SharedMapping{id: id, impl: impl, unmapLock: unmapLock, refs: 1}
}

// ID returns the file identity this mapping backs.
func (sm *SharedMapping) ID() FileID { return sm.id }

// Len returns the mapped region's length in bytes.
func (sm *SharedMapping) Len() int64 { return sm.impl.Len() }

// Flush synchronizes the given byte range back to the backing file.
func (sm *SharedMapping) Flush(offset, length int64) error {
	return sm.impl.Flush(offset, length)
}

// Acquire hands out a new View, incrementing the reference count. Every
// view returned from FileViewPool.OpenFile is produced this way.
func (sm *SharedMapping) Acquire() *View {
	sm.mu.Lock()
	sm.refs++
	sm.mu.Unlock()
	return &View{shared: sm}
}

// Release drops one reference to the mapping, the one the cache itself
// held while the entry was present in FilesIndex. It is called once per
// entry, exactly when that entry leaves the cache (overflow eviction,
// release*, resize, close_oldest, or a mode-upgrade supersede). It must be
// called outside the pool's primary mutex: it may perform the OS unmap
// and close, which must never happen while the critical section is held.
func (sm *SharedMapping) Release() error {
	return sm.drop()
}

func (sm *SharedMapping) drop() error {
	sm.mu.Lock()
	sm.refs--
	destroy := sm.refs == 0 && !sm.closed
	if destroy {
		sm.closed = true
	}
	sm.mu.Unlock()

	if !destroy {
		return nil
	}

	sm.unmapLock.Lock()
	defer sm.unmapLock.Unlock()
	return sm.impl.Close()
}

// View is a borrowed handle onto a SharedMapping's mapped region. It keeps
// the underlying FileMapping alive for as long as it is open, even if the
// pool has already evicted the cache entry that produced it.
type View struct {
	shared *SharedMapping
	closed atomic.Bool
}

// ReadAt reads from the mapped region at the given offset.
func (v *View) ReadAt(p []byte, off int64) (int, error) {
	return v.shared.impl.ReadAt(p, off)
}

// WriteAt writes into the mapped region at the given offset. Concurrent
// writers touching disjoint offsets is the caller's responsibility.
func (v *View) WriteAt(p []byte, off int64) (int, error) {
	return v.shared.impl.WriteAt(p, off)
}

// Len returns the mapped region's length in bytes.
func (v *View) Len() int64 {
	return v.shared.impl.Len()
}

// Close releases this view's reference to the underlying mapping. It is
// safe to call more than once; only the first call has any effect.
func (v *View) Close() error {
	if !v.closed.CompareAndSwap(false, true) {
		return nil
	}
	return v.shared.drop()
}
