package pool

import "github.com/diskio/fileviewpool/pkg/openmode"

// waiter is the record a caller attaches to an in-flight open so the
// opener can deliver the exact mapping or error it produced, without the
// waiter ever re-querying FilesIndex. A channel close stands in for a
// condition-variable wakeup: since each waiter owns its own channel, there
// is no shared wait queue to race against, and so no spurious-wakeup
// window to loop against either.
type waiter struct {
	done    chan struct{}
	mapping *SharedMapping
	err     error
}

func newWaiter() *waiter {
	return &waiter{done: make(chan struct{})}
}

// wait blocks until the opener populates mapping or err.
func (w *waiter) wait() (*SharedMapping, error) {
	<-w.done
	return w.mapping, w.err
}

// deliver sets the waiter's result and wakes it. Called exactly once by
// the opener, after the opening entry has already been unlinked from the
// registry.
func (w *waiter) deliver(mapping *SharedMapping, err error) {
	w.mapping = mapping
	w.err = err
	close(w.done)
}

// openingFile tracks one in-flight OS open for a (FileID, Mode) pair. A
// key can have more than one openingFile live at once: a caller needing a
// wider mode than whatever is currently being opened starts a second,
// parallel entry rather than waiting on the narrower one.
type openingFile struct {
	key     FileID
	mode    openmode.Mode
	waiters []*waiter
}

func (of *openingFile) attach(w *waiter) {
	of.waiters = append(of.waiters, w)
}

// openingRegistry is the pool's "files currently being opened" tracker.
// Lookup is linear, since the number of concurrent opens is bounded in
// practice by the I/O worker count.
type openingRegistry struct {
	byKey map[FileID][]*openingFile
}

func newOpeningRegistry() *openingRegistry {
	return &openingRegistry{byKey: make(map[FileID][]*openingFile)}
}

// find returns an in-flight open for key whose mode covers want, if any.
func (r *openingRegistry) find(key FileID, want openmode.Mode) *openingFile {
	for _, of := range r.byKey[key] {
		if of.mode.Covers(want) {
			return of
		}
	}
	return nil
}

// start registers a brand-new in-flight open for (key, mode). Callers
// reach start() only when no cached entry and no in-flight open covers
// mode. key can still show up in FilesIndex while this open is in flight:
// a parallel open of another mode for the same key may finish first, and
// FilesIndex.Insert then supersedes whichever entry is there.
func (r *openingRegistry) start(key FileID, mode openmode.Mode) *openingFile {
	of := &openingFile{key: key, mode: mode}
	r.byKey[key] = append(r.byKey[key], of)
	return of
}

// finish removes of from the registry and returns its waiters. The caller
// must do this under the same lock acquisition that inserts the resulting
// FileEntry into FilesIndex.
func (r *openingRegistry) finish(of *openingFile) []*waiter {
	list := r.byKey[of.key]
	for i, candidate := range list {
		if candidate == of {
			r.byKey[of.key] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(r.byKey[of.key]) == 0 {
		delete(r.byKey, of.key)
	}
	return of.waiters
}
