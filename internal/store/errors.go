package store

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Kind classifies remote failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindServerError
	KindNetworkError
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindNetworkError:
		return "network_error"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound           = errors.New("bill not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Error is a remote failure. Message is the diagnostic text the remote gave and
// is what Error returns, so it can be shown to the user as is.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Op + " failed"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Structured errors carry their kind; anything else goes
// through the message-matching fallback kept for remotes that only expose text.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var se *Error
	if errors.As(err, &se) && se.Kind != KindUnknown {
		return se.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return KindNetworkError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetworkError
	}
	return classifyMessage(err.Error())
}

func classifyMessage(msg string) Kind {
	switch {
	case strings.Contains(msg, "404"):
		return KindNotFound
	case strings.Contains(msg, "500"):
		return KindServerError
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"):
		return KindUnauthorized
	default:
		return KindUnknown
	}
}
