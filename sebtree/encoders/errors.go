package encoders

import "errors"

// ErrVersionMismatch is returned by a Provider when asked for an encoder
// version it does not support.
var ErrVersionMismatch = errors.New("encoders: unsupported encoder version")
