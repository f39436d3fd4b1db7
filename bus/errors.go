package bus

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sarchlab/busharness/sim"
)

var (
	// ErrProtocolViolation is matched by errors raised when a response
	// cannot be correlated with an outstanding request.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrCapacityExceeded is matched by errors raised when the outstanding
	// request table would grow beyond its capacity.
	ErrCapacityExceeded = errors.New("outstanding request capacity exceeded")

	// ErrDuplicateTag is matched by errors raised when a tag is inserted
	// while it is still outstanding.
	ErrDuplicateTag = errors.New("tag already outstanding")

	// ErrTagOutOfRange is matched by errors raised when a request carries a
	// tag that the tag wire cannot represent.
	ErrTagOutOfRange = errors.New("tag outside the tag space")
)

// ProtocolViolationError reports a response whose tag matches no
// outstanding request.
type ProtocolViolationError struct {
	Tag  Tag
	Time sim.VTime
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("%s: response tag %d at time %d matches no "+
		"outstanding request", ErrProtocolViolation, e.Tag, e.Time)
}

// Unwrap returns ErrProtocolViolation.
func (e *ProtocolViolationError) Unwrap() error {
	return ErrProtocolViolation
}

// CapacityExceededError reports an insertion into a full table.
type CapacityExceededError struct {
	Capacity int
	Tag      Tag
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("%s: cannot insert tag %d, %d entries pending",
		ErrCapacityExceeded, e.Tag, e.Capacity)
}

// Unwrap returns ErrCapacityExceeded.
func (e *CapacityExceededError) Unwrap() error {
	return ErrCapacityExceeded
}
