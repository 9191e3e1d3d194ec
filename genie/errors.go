package genie

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-genie/protocol"
)

var (
	// ErrNak is returned when the display rejects a command.
	ErrNak = errors.New("genie: display replied NAK")

	// ErrTimeout is returned when the display does not answer in time.
	ErrTimeout = errors.New("genie: timed out waiting for display")

	// ErrClosed is returned once the session has been closed or its reader
	// has stopped.
	ErrClosed = errors.New("genie: session closed")

	// ErrNotResponding is returned by Sync when no probe is answered.
	ErrNotResponding = errors.New("genie: display not responding")
)

// CommandError reports which command failed and why.
type CommandError struct {
	// Op is the operation that failed, e.g. "write object"
	Op string

	// Object and Index identify the target, when the command has one
	Object protocol.ObjectType
	Index  byte

	// HasTarget is false for commands without an object (contrast, sync)
	HasTarget bool

	Err error
}

func (e *CommandError) Error() string {
	if e.HasTarget {
		return fmt.Sprintf("%s %s[%d]: %v", e.Op, e.Object, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsNak reports whether err is or wraps ErrNak.
func IsNak(err error) bool {
	return errors.Is(err, ErrNak)
}

// IsTimeout reports whether err is or wraps ErrTimeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
