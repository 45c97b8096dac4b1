package toolcall

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when no matching tool_result arrives before the
// dispatch deadline, or when the background sweep force-cancels a request.
var ErrTimeout = errors.New("timed out waiting for client response")

// ErrChannelUnavailable is returned when the outbound transport cannot be
// reached (no client connected, write failure).
var ErrChannelUnavailable = errors.New("client channel unavailable")

// RemoteError carries an explicit failure reported by the client
// application. It is surfaced to the conversation, never fatal.
type RemoteError struct {
	Tool    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("client error from %s: %s", e.Tool, e.Message)
}
