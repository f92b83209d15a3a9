package realtime

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by send and subscribe operations while no
// session is open. This is the only transport failure that surfaces to
// the user; connection loss itself is recovered silently.
var ErrNotConnected = errors.New("realtime: not connected")

// ConnectionError reports a failed attempt to open the socket. Callers
// may retry; once a session is established, reopening after an
// unexpected close is handled internally instead.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("realtime: connect %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
