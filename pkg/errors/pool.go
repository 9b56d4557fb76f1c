package errors

// PoolError is a specialized error type for file-view-pool operations. It
// carries the file identity and the filesystem path involved.
type PoolError struct {
	*baseError
	storageID uint32
	fileIndex uint32
	path      string
	operation string
}

// NewPoolError creates a new pool-specific error with the provided context.
func NewPoolError(err error, code ErrorCode, msg string) *PoolError {
	return &PoolError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message.
func (pe *PoolError) WithMessage(msg string) *PoolError {
	pe.baseError.WithMessage(msg)
	return pe
}

// WithCode sets the error code.
func (pe *PoolError) WithCode(code ErrorCode) *PoolError {
	pe.baseError.WithCode(code)
	return pe
}

// WithDetail adds contextual information.
func (pe *PoolError) WithDetail(key string, value any) *PoolError {
	pe.baseError.WithDetail(key, value)
	return pe
}

// WithFileID records which (storage, file index) pair the error concerns.
func (pe *PoolError) WithFileID(storageID, fileIndex uint32) *PoolError {
	pe.storageID = storageID
	pe.fileIndex = fileIndex
	return pe
}

// WithPath captures the filesystem path being opened or mapped.
func (pe *PoolError) WithPath(path string) *PoolError {
	pe.path = path
	return pe
}

// WithOperation records which pool operation produced the error.
func (pe *PoolError) WithOperation(op string) *PoolError {
	pe.operation = op
	return pe
}

// StorageID returns the storage identifier the error concerns.
func (pe *PoolError) StorageID() uint32 { return pe.storageID }

// FileIndex returns the file index within the storage the error concerns.
func (pe *PoolError) FileIndex() uint32 { return pe.fileIndex }

// Path returns the filesystem path involved in the error.
func (pe *PoolError) Path() string { return pe.path }

// Operation returns the name of the pool operation that failed.
func (pe *PoolError) Operation() string { return pe.operation }
