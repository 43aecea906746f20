package apperror

import (
	"errors"
	"fmt"
)

// Error kinds. Every engine error wraps exactly one of them.
var (
	// ErrRejected - the operation is legal but refused, state is unchanged.
	ErrRejected = errors.New("operation rejected")
	// ErrInvalidIndex - the caller passed an index outside the allowed range.
	ErrInvalidIndex = errors.New("invalid index")
)

var (
	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrRejected)
	ErrGameFinished = fmt.Errorf("%w: game is already finished", ErrRejected)

	ErrInvalidCell = fmt.Errorf("%w: cell", ErrInvalidIndex)
	ErrInvalidMove = fmt.Errorf("%w: move", ErrInvalidIndex)

	ErrCorruptHistory = errors.New("corrupt game history")
)

func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

func IsInvalidIndex(err error) bool {
	return errors.Is(err, ErrInvalidIndex)
}
