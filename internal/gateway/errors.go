package gateway

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for 401/403 responses. Callers treat it as
// a session-expiry signal and force the session back to anonymous.
var ErrUnauthorized = errors.New("unauthorized")

// RemoteError is a non-2xx business failure. The server's message is
// carried verbatim so the UI can surface it unchanged.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error: status %d", e.Status)
	}
	return fmt.Sprintf("remote error (%d): %s", e.Status, e.Message)
}

// NetworkError is a transport-level failure: the request never produced
// a response. State on both sides is unchanged.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
