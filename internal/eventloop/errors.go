package eventloop

import "errors"

// ErrAlreadyRunning indicates Run was called while the loop is running.
var ErrAlreadyRunning = errors.New("event loop already running")
