package pool

import (
	"container/heap"
	"container/list"
)

// FilesIndex is the pool's multi-indexed cache: by key for
// O(1) lookup, by LRU order (front = MRU, back = LRU) for O(1) MRU refresh
// and oldest-eviction, and by dirty bytes for O(log n) flush-candidate
// selection. All three views are kept in lockstep; callers are expected to
// hold the pool's primary mutex around every method here.
type FilesIndex struct {
	byKey map[FileID]*FileEntry
	lru   *list.List
	dirty dirtyHeap
}

func newFilesIndex() *FilesIndex {
	return &FilesIndex{
		byKey: make(map[FileID]*FileEntry),
		lru:   list.New(),
	}
}

// Len returns the number of cached entries.
func (fi *FilesIndex) Len() int { return len(fi.byKey) }

// Get looks up the entry for key, if cached.
func (fi *FilesIndex) Get(key FileID) (*FileEntry, bool) {
	e, ok := fi.byKey[key]
	return e, ok
}

// Touch moves e to the MRU end of the LRU index. Ties among entries that
// are never touched again resolve in insertion order, since list.PushFront
// only reorders what is explicitly moved.
func (fi *FilesIndex) Touch(e *FileEntry) {
	if e.lruElem == nil {
		e.lruElem = fi.lru.PushFront(e)
		return
	}
	fi.lru.MoveToFront(e.lruElem)
}

// Insert adds e to all three indexes, at the MRU end of the LRU index,
// and returns whatever entry previously occupied e.Key, or nil if the key
// was absent. Two concurrent openers can both win an OS open for the same
// key (one narrow, one wide mode); whichever call reaches Insert second
// supersedes the first rather than leaving both linked under one key, so
// every key stays unique across FilesIndex. The caller owns releasing the
// returned entry's mapping.
func (fi *FilesIndex) Insert(e *FileEntry) *FileEntry {
	prev, existed := fi.byKey[e.Key]
	if existed {
		fi.Remove(prev)
	}

	fi.byKey[e.Key] = e
	e.lruElem = fi.lru.PushFront(e)
	heap.Push(&fi.dirty, e)

	if existed {
		return prev
	}
	return nil
}

// Remove deletes e from all three indexes. It does not touch e.Mapping;
// the caller decides when and where (inside or outside the primary mutex)
// to release it.
func (fi *FilesIndex) Remove(e *FileEntry) {
	delete(fi.byKey, e.Key)
	if e.lruElem != nil {
		fi.lru.Remove(e.lruElem)
		e.lruElem = nil
	}
	if e.heapIdx >= 0 && e.heapIdx < len(fi.dirty) {
		heap.Remove(&fi.dirty, e.heapIdx)
	}
	e.heapIdx = -1
}

// Oldest returns the LRU entry, or nil if the index is empty.
func (fi *FilesIndex) Oldest() *FileEntry {
	back := fi.lru.Back()
	if back == nil {
		return nil
	}
	return back.Value.(*FileEntry)
}

// MaxDirty returns the entry with the largest positive DirtyBytes, or nil
// if none has any dirty bytes outstanding.
func (fi *FilesIndex) MaxDirty() *FileEntry {
	if len(fi.dirty) == 0 {
		return nil
	}
	top := fi.dirty[0]
	if top.DirtyBytes == 0 {
		return nil
	}
	return top
}

// AddDirty increases e's dirty-byte count and restores heap order.
func (fi *FilesIndex) AddDirty(e *FileEntry, delta uint64) {
	e.DirtyBytes += delta
	heap.Fix(&fi.dirty, e.heapIdx)
}

// ResetDirty zeroes e's dirty-byte count and restores heap order. Called
// once a flush of e completes successfully.
func (fi *FilesIndex) ResetDirty(e *FileEntry) {
	e.DirtyBytes = 0
	if e.heapIdx >= 0 && e.heapIdx < len(fi.dirty) {
		heap.Fix(&fi.dirty, e.heapIdx)
	}
}

// Snapshot returns every cached entry whose key matches pred, without
// removing them.
func (fi *FilesIndex) Snapshot(pred func(FileID) bool) []*FileEntry {
	var out []*FileEntry
	for key, e := range fi.byKey {
		if pred(key) {
			out = append(out, e)
		}
	}
	return out
}

// RemoveMatching removes and returns every entry whose key matches pred.
func (fi *FilesIndex) RemoveMatching(pred func(FileID) bool) []*FileEntry {
	var matched []*FileEntry
	for key, e := range fi.byKey {
		if pred(key) {
			matched = append(matched, e)
		}
	}
	for _, e := range matched {
		fi.Remove(e)
	}
	return matched
}
