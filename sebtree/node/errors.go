package node

import "errors"

// Errors returned to callers. Each corresponds to one of the documented
// failure modes a node can signal without crashing the process.
var (
	// ErrTooLargeEntry is returned when a prospective entry's full encoded
	// size exceeds MAX_ENTRY_SIZE; no split could ever accommodate it.
	ErrTooLargeEntry = errors.New("node: entry size exceeds maximum possible size for this page")

	// ErrVersionMismatch is returned when the on-page encoders version is
	// not supported by the configured key/value/position/pointer providers.
	ErrVersionMismatch = errors.New("node: on-page encoders version is not supported")
)

// Panic-class assertions. These signal programming contract breaches, not
// runtime conditions a caller can reasonably recover from: a marker access
// on a leaf, a left-pointer access on a leaf, an out-of-range index, or a
// read session closed with unwritten dirty fields. Callers that can hit
// these through untrusted input must validate before calling in; they are
// not returned as errors because violating them is always a bug.
var (
	ErrMarkerOnLeaf      = errors.New("node: marker operation attempted on a leaf node")
	ErrLeftPointerOnLeaf = errors.New("node: left-pointer operation attempted on a leaf node")
	ErrDirtyOnReadClose  = errors.New("node: read session closed with dirty header fields")
	ErrIndexOutOfRange   = errors.New("node: index out of range")
	ErrNoLeftmostMarker  = errors.New("node: no non-empty marker found scanning to the leftmost marker")
)
