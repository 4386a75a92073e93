package stable

import (
	"errors"
	"strconv"
)

var (
	ErrNilSupplier    = errors.New("stable: supplier is nil")
	ErrSlotOutOfRange = errors.New("stable: arena slot out of range")
)

// NullFactoryResultError is returned when a supplier produced no value. The cell stays empty.
type NullFactoryResultError struct {
	Cell string
}

func (e *NullFactoryResultError) Error() string {
	return "stable: supplier for cell " + strconv.Quote(e.Cell) + " returned no value"
}

// ReentrantInitializationError is returned when a cell's supplier, directly or through other
// cells, asks the same cell for its value while it is being initialized.
type ReentrantInitializationError struct {
	Cell string
}

func (e *ReentrantInitializationError) Error() string {
	return "stable: cell " + strconv.Quote(e.Cell) + " re-entered from its own initializer"
}
