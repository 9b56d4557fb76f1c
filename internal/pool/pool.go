// Package pool implements the file view pool: a bounded, concurrent cache
// of memory-mapped file handles shared by many parallel disk I/O workers.
package pool

import (
	"os"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	poolerrors "github.com/diskio/fileviewpool/pkg/errors"
	"github.com/diskio/fileviewpool/pkg/logger"
	"github.com/diskio/fileviewpool/pkg/openmode"
	"github.com/diskio/fileviewpool/pkg/options"
)

// FileViewPool owns FilesIndex and the opening registry behind a single
// primary mutex, and is safe for concurrent use by any number of I/O
// worker goroutines.
type FileViewPool struct {
	mu sync.Mutex

	limit     int
	pageSize  int64
	unmapLock sync.Locker
	mapper    Mapper

	index   *FilesIndex
	opening *openingRegistry

	log *zap.SugaredLogger
}

// New creates a file view pool configured by opts, defaulting to the
// package's DefaultOptions (size_limit = 40, no-op open_unmap_lock).
func New(log *zap.SugaredLogger, opts ...options.OptionFunc) *FileViewPool {
	o := options.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if log == nil {
		log = logger.New("fileviewpool")
	}

	log.Infow("initializing file view pool", "sizeLimit", o.SizeLimit)

	return &FileViewPool{
		limit:     o.SizeLimit,
		pageSize:  int64(os.Getpagesize()),
		unmapLock: o.OpenUnmapLock,
		mapper:    MapFile,
		index:     newFilesIndex(),
		opening:   newOpeningRegistry(),
		log:       log,
	}
}

// NewWithMapper is New, but lets callers substitute the FileMapping
// factory. Used by tests that want to exercise OpenFile's dedup and
// eviction logic without touching the filesystem.
func NewWithMapper(log *zap.SugaredLogger, mapper Mapper, opts ...options.OptionFunc) *FileViewPool {
	p := New(log, opts...)
	p.mapper = mapper
	return p
}

// SizeLimit returns the current cache size limit.
func (p *FileViewPool) SizeLimit() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limit
}

// Len returns the number of entries currently cached.
func (p *FileViewPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index.Len()
}

// OpenFile returns a view onto the file at path, identified by
// (storageID, fileIndex), opened with size and mode. Concurrent callers
// for an absent key cause exactly one OS open; the rest are delivered the
// same mapping (or the same error) via the waiter registry.
func (p *FileViewPool) OpenFile(
	storageID, fileIndex uint32, path string, size int64, mode openmode.Mode,
) (*View, error) {
	if size < 0 {
		return nil, poolerrors.NewPoolError(nil, poolerrors.ErrInvalidSize, "size must not be negative").
			WithFileID(storageID, fileIndex).
			WithPath(path).
			WithOperation("open_file")
	}

	key := FileID{StorageID: storageID, FileIndex: fileIndex}

	p.mu.Lock()

	if e, ok := p.index.Get(key); ok {
		if e.Mode.Covers(mode) {
			e.LastUse = time.Now()
			p.index.Touch(e)
			view := e.Mapping.Acquire()
			p.mu.Unlock()

			p.log.Infow("file view pool hit", "storage", storageID, "file", fileIndex, "mode", mode.String())
			return view, nil
		}

		// Mode upgrade required: the cached entry can't serve this
		// request. Evict it (its mapping lives on for any view still
		// holding it) and fall through to the miss path below.
		p.index.Remove(e)
		superseded := e.Mapping
		p.mu.Unlock()

		if err := superseded.Release(); err != nil {
			p.log.Warnw("failed releasing superseded mapping", "storage", storageID, "file", fileIndex, "error", err)
		}

		p.mu.Lock()
	}

	if of := p.opening.find(key, mode); of != nil {
		w := newWaiter()
		of.attach(w)
		p.mu.Unlock()

		p.log.Infow("joining in-flight open", "storage", storageID, "file", fileIndex, "mode", mode.String())
		mapping, err := w.wait()
		if err != nil {
			return nil, err
		}
		return mapping.Acquire(), nil
	}

	of := p.opening.start(key, mode)
	p.mu.Unlock()

	// The OS open/mmap call is the only long operation the pool performs
	// outside the primary mutex.
	mapping, openErr := p.openMapping(key, path, size, mode)

	p.mu.Lock()
	waiters := p.opening.finish(of)

	var view *View
	var evicted []*SharedMapping
	resultErr := openErr
	if openErr == nil {
		entry := &FileEntry{Key: key, Mapping: mapping, LastUse: time.Now(), Mode: mode, heapIdx: -1}
		// A second, parallel opener for the same key (one narrow, one wide
		// mode) can win its own OS open after this one already inserted.
		// Insert supersedes rather than leaving two live entries under one
		// key, and hands back whichever mapping lost so it gets released
		// alongside any overflow eviction below.
		if superseded := p.index.Insert(entry); superseded != nil {
			evicted = append(evicted, superseded.Mapping)
		}
		view = mapping.Acquire()
		evicted = append(evicted, p.evictOverflowLocked()...)
	}
	p.mu.Unlock()

	for _, m := range evicted {
		if err := m.Release(); err != nil {
			p.log.Warnw("failed releasing evicted mapping", "error", err)
		}
	}

	for _, w := range waiters {
		if resultErr != nil {
			w.deliver(nil, resultErr)
		} else {
			w.deliver(mapping, nil)
		}
	}

	return view, resultErr
}

// openMapping performs the OS open + mapping creation for key, outside
// the primary mutex, and wraps the result for shared ownership.
func (p *FileViewPool) openMapping(
	key FileID, path string, size int64, mode openmode.Mode,
) (*SharedMapping, error) {
	impl, err := p.mapper(path, size, mode, p.unmapLock)
	if err != nil {
		p.log.Errorw("open failed", "storage", key.StorageID, "file", key.FileIndex, "path", path, "error", err)
		return nil, poolerrors.NewPoolError(err, poolerrors.ErrOpenFailed, "failed to open and map file").
			WithFileID(key.StorageID, key.FileIndex).
			WithPath(path).
			WithOperation("open_file")
	}

	p.log.Infow("file opened and mapped", "storage", key.StorageID, "file", key.FileIndex, "path", path, "mode", mode.String())
	return newSharedMapping(key, impl, p.unmapLock), nil
}

// evictOverflowLocked removes LRU entries until the index is within
// limit, collecting their mappings so the caller can destroy them outside
// the primary mutex. p.mu must already be held.
func (p *FileViewPool) evictOverflowLocked() []*SharedMapping {
	var evicted []*SharedMapping
	for p.index.Len() > p.limit {
		oldest := p.index.Oldest()
		if oldest == nil {
			break
		}
		p.index.Remove(oldest)
		evicted = append(evicted, oldest.Mapping)
	}
	return evicted
}

// Release removes every cached entry.
func (p *FileViewPool) Release() {
	p.releaseMatching(func(FileID) bool { return true })
}

// ReleaseStorage removes every cached entry belonging to storageID.
func (p *FileViewPool) ReleaseStorage(storageID uint32) {
	p.releaseMatching(func(k FileID) bool { return k.StorageID == storageID })
}

// ReleaseFile removes the cached entry for (storageID, fileIndex), if any.
func (p *FileViewPool) ReleaseFile(storageID, fileIndex uint32) {
	key := FileID{StorageID: storageID, FileIndex: fileIndex}
	p.releaseMatching(func(k FileID) bool { return k == key })
}

func (p *FileViewPool) releaseMatching(match func(FileID) bool) {
	p.mu.Lock()
	removed := p.index.RemoveMatching(match)
	p.mu.Unlock()

	for _, e := range removed {
		if err := e.Mapping.Release(); err != nil {
			p.log.Warnw("failed releasing mapping", "storage", e.Key.StorageID, "file", e.Key.FileIndex, "error", err)
		}
	}
}

// Resize updates the cache's size limit and evicts from the LRU end until
// the new limit is satisfied.
func (p *FileViewPool) Resize(n int) error {
	if n < 0 {
		return poolerrors.NewPoolError(nil, poolerrors.ErrInvalidSize, "size limit must not be negative").
			WithOperation("resize")
	}

	p.mu.Lock()
	p.limit = n
	evicted := p.evictOverflowLocked()
	p.mu.Unlock()

	for _, m := range evicted {
		if err := m.Release(); err != nil {
			p.log.Warnw("failed releasing mapping during resize", "error", err)
		}
	}
	return nil
}

// CloseOldest removes the single least-recently-used entry, if any, and
// transfers ownership of its mapping to the caller: unlike the automatic
// eviction paths, CloseOldest does not release the mapping itself. The
// caller must, after doing whatever slow teardown it needs outside any
// lock of its own.
func (p *FileViewPool) CloseOldest() *SharedMapping {
	p.mu.Lock()
	oldest := p.index.Oldest()
	if oldest == nil {
		p.mu.Unlock()
		return nil
	}
	p.index.Remove(oldest)
	mapping := oldest.Mapping
	p.mu.Unlock()

	return mapping
}

// GetStatus snapshots every cached entry belonging to storageID.
func (p *FileViewPool) GetStatus(storageID uint32) []OpenFileState {
	p.mu.Lock()
	entries := p.index.Snapshot(func(k FileID) bool { return k.StorageID == storageID })
	p.mu.Unlock()

	out := make([]OpenFileState, len(entries))
	for i, e := range entries {
		out[i] = OpenFileState{FileIndex: e.Key.FileIndex, OpenMode: e.Mode}
	}
	return out
}

// RecordFileWrite increases the dirty-byte count for (storageID,
// fileIndex) by pages * the platform page size, for platforms that need
// explicit flush scheduling. It is a no-op if the file isn't cached.
func (p *FileViewPool) RecordFileWrite(storageID, fileIndex uint32, pages uint64) {
	key := FileID{StorageID: storageID, FileIndex: fileIndex}

	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.index.Get(key)
	if !ok {
		return
	}
	p.index.AddDirty(e, pages*uint64(p.pageSize))
}

// FlushNextFile flushes the cached entry with the largest positive
// dirty-byte count, if any. The flush itself runs outside the primary
// mutex; if the entry was evicted while it was in flight, the flush still
// completes but the dirty-byte reset is skipped, since there is no longer
// a cache entry to reset.
func (p *FileViewPool) FlushNextFile() error {
	p.mu.Lock()
	e := p.index.MaxDirty()
	if e == nil {
		p.mu.Unlock()
		return nil
	}
	key := e.Key
	mapping := e.Mapping
	p.mu.Unlock()

	if err := mapping.Flush(0, mapping.Len()); err != nil {
		p.log.Errorw("flush failed", "storage", key.StorageID, "file", key.FileIndex, "error", err)
		return poolerrors.NewPoolError(err, poolerrors.ErrFlushFailed, "flush failed").
			WithFileID(key.StorageID, key.FileIndex).
			WithOperation("flush_next_file")
	}

	p.mu.Lock()
	if current, ok := p.index.Get(key); ok && current == e {
		p.index.ResetDirty(current)
	}
	p.mu.Unlock()

	return nil
}

// Close releases every cached entry, aggregating any errors encountered
// while destroying their mappings.
func (p *FileViewPool) Close() error {
	p.mu.Lock()
	all := p.index.RemoveMatching(func(FileID) bool { return true })
	p.mu.Unlock()

	var err error
	for _, e := range all {
		if releaseErr := e.Mapping.Release(); releaseErr != nil {
			err = multierr.Append(err, poolerrors.NewPoolError(releaseErr, poolerrors.ErrCloseFailed, "failed to close mapping").
				WithFileID(e.Key.StorageID, e.Key.FileIndex).
				WithOperation("close"))
		}
	}
	return err
}
