package options

const (
	// DefaultSizeLimit is the number of cached file views the pool keeps
	// before LRU eviction kicks in.
	DefaultSizeLimit = 40
)

var defaultOptions = Options{
	SizeLimit:     DefaultSizeLimit,
	OpenUnmapLock: noopLocker{},
}

// DefaultOptions returns the pool's default configuration.
func DefaultOptions() Options {
	return defaultOptions
}
