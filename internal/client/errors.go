package client

import (
	"errors"
	"fmt"
)

// Kind is the closed classification of remote call failures. The
// orchestrator switches exhaustively on it: PermissionDenied is fatal for
// the attempt, Timeout and TransportFailure are retryable on a later sync
// pass.
type Kind int

const (
	// PermissionDenied: the remote store rejected the call for
	// authorization or configuration reasons (401/403). Retrying without
	// user action cannot help.
	PermissionDenied Kind = iota

	// Timeout: the call exceeded its hard ceiling.
	Timeout

	// TransportFailure: anything else, including malformed responses.
	TransportFailure
)

func (k Kind) String() string {
	switch k {
	case PermissionDenied:
		return "permission_denied"
	case Timeout:
		return "timeout"
	default:
		return "transport_failure"
	}
}

// Error is a classified remote persistence failure.
type Error struct {
	Kind   Kind
	Status int // HTTP status when one was received, 0 otherwise
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("remote store: %s: %v", e.Kind, e.cause)
	}
	if e.Status != 0 {
		return fmt.Sprintf("remote store: %s (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("remote store: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether a later sync pass may succeed without user
// intervention.
func (e *Error) Retryable() bool { return e.Kind != PermissionDenied }

// errMissingToken marks a token grant response without usable credentials.
var errMissingToken = errors.New("token response missing access token or user id")

// KindOf extracts the classification from err, defaulting to
// TransportFailure for unclassified errors.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return TransportFailure
}
