package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diskio/fileviewpool/pkg/openmode"
)

func TestOpeningRegistry_FindCoversMode(t *testing.T) {
	r := newOpeningRegistry()
	key := FileID{StorageID: 0, FileIndex: 0}

	of := r.start(key, openmode.Read|openmode.Write)

	found := r.find(key, openmode.Read)
	assert.Same(t, of, found, "a read-write open covers a plain read request")

	notFound := r.find(FileID{StorageID: 0, FileIndex: 1}, openmode.Read)
	assert.Nil(t, notFound)
}

func TestOpeningRegistry_NarrowerOpenDoesNotCoverWiderRequest(t *testing.T) {
	r := newOpeningRegistry()
	key := FileID{StorageID: 0, FileIndex: 0}

	r.start(key, openmode.Read)

	found := r.find(key, openmode.Read|openmode.Write)
	assert.Nil(t, found, "a read-only in-flight open must not satisfy a read-write request")
}

func TestOpeningRegistry_FinishRemovesOnlyThatEntry(t *testing.T) {
	r := newOpeningRegistry()
	key := FileID{StorageID: 0, FileIndex: 0}

	narrow := r.start(key, openmode.Read)
	wide := r.start(key, openmode.Read|openmode.Write)

	r.finish(narrow)

	assert.Same(t, wide, r.find(key, openmode.Read), "the finished narrow open no longer answers a read request")
	assert.Same(t, wide, r.find(key, openmode.Read|openmode.Write))

	r.finish(wide)
	assert.Empty(t, r.byKey[key])
}

func TestWaiter_DeliverUnblocksWait(t *testing.T) {
	impl := newFakeMapping(8)
	sm := newSharedMapping(FileID{}, impl, &sync.Mutex{})

	w := newWaiter()
	done := make(chan struct{})

	var gotMapping *SharedMapping
	var gotErr error
	go func() {
		gotMapping, gotErr = w.wait()
		close(done)
	}()

	w.deliver(sm, nil)
	<-done

	require.NoError(t, gotErr)
	assert.Same(t, sm, gotMapping)
}

func TestWaiter_DeliverPropagatesError(t *testing.T) {
	w := newWaiter()
	sentinel := assert.AnError

	done := make(chan struct{})
	var gotErr error
	go func() {
		_, gotErr = w.wait()
		close(done)
	}()

	w.deliver(nil, sentinel)
	<-done

	assert.ErrorIs(t, gotErr, sentinel)
}
