package engine

import "errors"

// ErrClosed is returned by Submit once the pool has been closed.
var ErrClosed = errors.New("engine: worker pool closed")
