package objcache

import "errors"

// Sentinel errors for selector resolution, checkable with errors.Is().
var (
	// ErrStaleSelection indicates an index selector applied after a
	// listing of a different kind/namespace superseded the one the index
	// referred to.
	ErrStaleSelection = errors.New("index selection is stale; list again")

	// ErrIndexOutOfRange indicates an index selector past the end of the
	// last listing.
	ErrIndexOutOfRange = errors.New("index out of range of the last listing")

	// ErrNoMatch indicates a selector that resolved to zero objects.
	ErrNoMatch = errors.New("selector matched no objects")

	// ErrBadSelector indicates a selector that could not be parsed.
	ErrBadSelector = errors.New("malformed selector")
)
