package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(storage, file uint32) *FileEntry {
	impl := newFakeMapping(8)
	key := FileID{StorageID: storage, FileIndex: file}
	return &FileEntry{
		Key:     key,
		Mapping: newSharedMapping(key, impl, &sync.Mutex{}),
		heapIdx: -1,
	}
}

func TestFilesIndex_InsertGetRemove(t *testing.T) {
	fi := newFilesIndex()
	e := newTestEntry(0, 0)

	fi.Insert(e)
	require.Equal(t, 1, fi.Len())

	got, ok := fi.Get(e.Key)
	require.True(t, ok)
	assert.Same(t, e, got)

	fi.Remove(e)
	assert.Equal(t, 0, fi.Len())
	_, ok = fi.Get(e.Key)
	assert.False(t, ok)
}

// Two entries inserted under the same key must never coexist: the second
// Insert supersedes the first rather than leaving two nodes linked in the
// LRU list and the dirty heap under one key.
func TestFilesIndex_InsertSupersedesSameKey(t *testing.T) {
	fi := newFilesIndex()
	key := FileID{StorageID: 0, FileIndex: 0}
	first := newTestEntry(0, 0)
	second := newTestEntry(0, 0)

	require.Nil(t, fi.Insert(first))

	superseded := fi.Insert(second)
	require.Same(t, first, superseded)

	assert.Equal(t, 1, fi.Len())
	got, ok := fi.Get(key)
	require.True(t, ok)
	assert.Same(t, second, got)

	// The superseded entry must be fully unlinked, not just shadowed in
	// byKey: it must not still be reachable from Oldest/MaxDirty.
	assert.Nil(t, first.lruElem)
	assert.Equal(t, -1, first.heapIdx)
}

func TestFilesIndex_LRUOrderAndTieBreak(t *testing.T) {
	fi := newFilesIndex()
	e0 := newTestEntry(0, 0)
	e1 := newTestEntry(0, 1)
	e2 := newTestEntry(0, 2)

	fi.Insert(e0)
	fi.Insert(e1)
	fi.Insert(e2)

	// None touched since insertion: e0 was inserted first, so it is the
	// stable-order loser and must be the oldest.
	assert.Same(t, e0, fi.Oldest())

	// Touching e0 moves it to the MRU end; e1 becomes oldest.
	fi.Touch(e0)
	assert.Same(t, e1, fi.Oldest())
}

func TestFilesIndex_OverflowEviction(t *testing.T) {
	fi := newFilesIndex()
	e0 := newTestEntry(0, 0)
	e1 := newTestEntry(0, 1)
	e2 := newTestEntry(0, 2)

	fi.Insert(e0)
	fi.Insert(e1)
	fi.Insert(e2)

	// Simulate pool size 2: evict until Len() <= 2.
	limit := 2
	var evicted []*FileEntry
	for fi.Len() > limit {
		oldest := fi.Oldest()
		fi.Remove(oldest)
		evicted = append(evicted, oldest)
	}

	require.Len(t, evicted, 1)
	assert.Same(t, e0, evicted[0])
	assert.Equal(t, 2, fi.Len())

	_, stillThere1 := fi.Get(e1.Key)
	_, stillThere2 := fi.Get(e2.Key)
	assert.True(t, stillThere1)
	assert.True(t, stillThere2)
}

func TestFilesIndex_DirtyHeapSelection(t *testing.T) {
	fi := newFilesIndex()
	e0 := newTestEntry(0, 0)
	e1 := newTestEntry(0, 1)
	e2 := newTestEntry(0, 2)

	fi.Insert(e0)
	fi.Insert(e1)
	fi.Insert(e2)

	fi.AddDirty(e0, 10)
	fi.AddDirty(e1, 50)
	fi.AddDirty(e2, 20)

	assert.Same(t, e1, fi.MaxDirty())
	fi.ResetDirty(e1)

	assert.Same(t, e2, fi.MaxDirty())
	fi.ResetDirty(e2)

	assert.Same(t, e0, fi.MaxDirty())
	fi.ResetDirty(e0)

	assert.Nil(t, fi.MaxDirty())
}

func TestFilesIndex_RemoveMatching(t *testing.T) {
	fi := newFilesIndex()
	s0f0 := newTestEntry(0, 0)
	s0f1 := newTestEntry(0, 1)
	s1f0 := newTestEntry(1, 0)

	fi.Insert(s0f0)
	fi.Insert(s0f1)
	fi.Insert(s1f0)

	removed := fi.RemoveMatching(func(k FileID) bool { return k.StorageID == 0 })
	assert.Len(t, removed, 2)
	assert.Equal(t, 1, fi.Len())

	_, ok := fi.Get(s1f0.Key)
	assert.True(t, ok)
}
