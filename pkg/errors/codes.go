package errors

type ErrorCode string

const (
	// ErrOpenFailed is the OS-level failure to open or map a file.
	ErrOpenFailed ErrorCode = "POOL_OPEN_FAILED"

	// ErrFlushFailed is a failure returned from a mapping's flush call.
	ErrFlushFailed ErrorCode = "POOL_FLUSH_FAILED"

	// ErrCloseFailed is a failure while destroying an evicted mapping.
	ErrCloseFailed ErrorCode = "POOL_CLOSE_FAILED"

	// ErrInvalidSize is returned for a negative or otherwise nonsensical resize/open size.
	ErrInvalidSize ErrorCode = "POOL_INVALID_SIZE"
)
