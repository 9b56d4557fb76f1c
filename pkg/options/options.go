// Package options provides data structures and functions for configuring
// the file view pool, following the same OptionFunc builder pattern the
// rest of this codebase uses for its subsystems.
package options

import "sync"

// noopLocker is the default OpenUnmapLock capability for platforms that
// don't need to serialize open/unmap against each other.
type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Options defines the configuration parameters for the file view pool.
type Options struct {
	// SizeLimit is the maximum number of cached entries the pool retains
	// before evicting the least-recently-used one.
	// SizeLimit == 0 is a valid degenerate mode: every open evicts itself.
	SizeLimit int `json:"sizeLimit"`

	// OpenUnmapLock is acquired around OS open calls and mapping
	// destruction on platforms whose mapping API forbids concurrent
	// open/unmap. Defaults to a no-op lock.
	OpenUnmapLock sync.Locker `json:"-"`
}

type OptionFunc func(*Options)

// WithDefaultOptions resets Options to the package defaults.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := DefaultOptions()
		o.SizeLimit = opts.SizeLimit
		o.OpenUnmapLock = opts.OpenUnmapLock
	}
}

// WithSizeLimit sets the maximum number of cached entries.
func WithSizeLimit(n int) OptionFunc {
	return func(o *Options) {
		if n >= 0 {
			o.SizeLimit = n
		}
	}
}

// WithOpenUnmapLock installs a capability serializing OS open/unmap calls.
// Pass this on platforms whose mapping API (e.g. MapViewOfFile) forbids
// concurrent open and unmap.
func WithOpenUnmapLock(lock sync.Locker) OptionFunc {
	return func(o *Options) {
		if lock != nil {
			o.OpenUnmapLock = lock
		}
	}
}
