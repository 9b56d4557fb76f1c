package errors

import (
	stdErrors "errors"
)

// AsPoolError unwraps err looking for a *PoolError.
func AsPoolError(err error) (*PoolError, bool) {
	var pe *PoolError
	if stdErrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
