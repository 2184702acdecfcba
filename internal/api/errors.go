package api

import (
	"errors"
	"fmt"
	"strings"
)

// Tagged error kinds for remote operations. Callers classify with errors.Is;
// no call ever panics or returns an unwrapped transport error.
var (
	// ErrNotFound indicates the referenced item does not exist on the server.
	ErrNotFound = errors.New("item not found")
	// ErrConflict indicates the server-side state diverged from what the
	// client believed when it issued the operation.
	ErrConflict = errors.New("conflicting change on server")
	// ErrTransport indicates a network or server failure.
	ErrTransport = errors.New("transport failure")
	// ErrNotification indicates the best-effort mention send failed.
	ErrNotification = errors.New("notification send failed")
)

// classify wraps a raw GraphQL/transport error with the matching tagged kind.
// The service reports rejections in error messages; conflict and not-found
// markers take precedence over the generic transport tag.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "conflict"), strings.Contains(msg, "stale"), strings.Contains(msg, "version mismatch"):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case strings.Contains(msg, "not found"):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}
