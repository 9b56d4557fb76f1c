package pool

import (
	"container/list"
	"time"

	"github.com/diskio/fileviewpool/pkg/openmode"
)

// FileEntry is the pool's cached record for one open file.
// It is created only by the opener thread that owns the matching
// OpeningFile slot, and destroyed only by eviction (overflow, explicit
// release, resize, or close_oldest).
type FileEntry struct {
	Key        FileID
	Mapping    *SharedMapping
	LastUse    time.Time
	Mode       openmode.Mode
	DirtyBytes uint64

	lruElem *list.Element // this entry's node in FilesIndex.lru; nil until inserted.
	heapIdx int           // this entry's slot in FilesIndex.dirty; -1 when absent.
}
