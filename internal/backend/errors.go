package backend

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by Client wraps exactly one of these.
var (
	ErrTransport = errors.New("backend unreachable")
	ErrStatus    = errors.New("backend returned non-success status")
	ErrMalformed = errors.New("malformed backend response")
)

// Error describes a failed backend call.
type Error struct {
	Op         string // "chat" or "search"
	Kind       error  // one of ErrTransport, ErrStatus, ErrMalformed
	StatusCode int    // set for ErrStatus
	Body       string // truncated response body, for logs
	Cause      error  // underlying error, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// maxErrorBody caps the response body kept on an Error.
const maxErrorBody = 512

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
