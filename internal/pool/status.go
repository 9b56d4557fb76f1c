package pool

import "github.com/diskio/fileviewpool/pkg/openmode"

// OpenFileState is a snapshot of one cached entry, returned by GetStatus
// for introspection only.
type OpenFileState struct {
	FileIndex uint32
	OpenMode  openmode.Mode
}
