package pool

// FileID names a file uniquely across the pool: a dense StorageID
// (one torrent's set of files) paired with a dense FileIndex within that
// storage.
type FileID struct {
	StorageID uint32
	FileIndex uint32
}
