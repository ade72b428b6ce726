package container

import (
	"errors"
	"fmt"
)

var (
	// ErrDestroyed classifies operations on a destroyed container.
	ErrDestroyed = errors.New("container destroyed")
	// ErrWrongMode classifies manual renew/rotate calls against a
	// secret registered with an incompatible mode.
	ErrWrongMode = errors.New("wrong secret mode")
)

func containerError(kind error, message string) error {
	if message == "" {
		return kind
	}
	return fmt.Errorf("%w: %s", kind, message)
}
