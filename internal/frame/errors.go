package frame

import (
	"errors"
	"fmt"
)

// ErrMAVLink2Only is returned when encoding a message whose ID exceeds 255
// (v1's single message-id byte) using the v1 writer.
var ErrMAVLink2Only = errors.New("frame: message requires mavlink2")

// UnknownMessageError is returned when a message id is absent from the
// dialect's MessageSet.
type UnknownMessageError struct {
	ID uint32
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("frame: unknown message id %d", e.ID)
}

// InvalidEnumError is returned when a field's raw value does not match any
// entry of its declared enum type.
type InvalidEnumError struct {
	EnumType string
	Value    uint64
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("frame: invalid enum value for %q: %d", e.EnumType, e.Value)
}

// InvalidFlagError is returned when a field's raw value sets bits outside
// its declared bitmask enum type.
type InvalidFlagError struct {
	FlagType string
	Value    uint64
}

func (e *InvalidFlagError) Error() string {
	return fmt.Sprintf("frame: invalid flag value for %q: %d", e.FlagType, e.Value)
}
