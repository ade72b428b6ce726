package secrets

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound classifies reads of a path that does not exist.
	ErrNotFound = errors.New("secrets not found")
	// ErrTransport classifies network and server failures.
	ErrTransport = errors.New("secrets transport error")
	// ErrUnauthorized classifies an invalid or expired session.
	ErrUnauthorized = errors.New("secrets unauthorized")
)

func secretsError(kind error, message string) error {
	if message == "" {
		return kind
	}
	return fmt.Errorf("%w: %s", kind, message)
}

// NotFoundError wraps ErrNotFound with the offending path.
func NotFoundError(path string) error {
	return secretsError(ErrNotFound, path)
}

// TransportError wraps a network or server failure as ErrTransport.
func TransportError(cause error) error {
	if cause == nil {
		return ErrTransport
	}
	return fmt.Errorf("%w: %v", ErrTransport, cause)
}

// UnauthorizedError wraps a session failure as ErrUnauthorized.
func UnauthorizedError(cause error) error {
	if cause == nil {
		return ErrUnauthorized
	}
	return fmt.Errorf("%w: %v", ErrUnauthorized, cause)
}

// IsNotFound reports whether err classifies as a missing path.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err classifies as a session failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
