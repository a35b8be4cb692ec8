package gpu

import (
	"errors"

	"github.com/TheSunCat/Celsior/translate"
)

var f = translate.From

var ErrCoordinateRange = errors.New(f("coordinate out of range"))

// ErrCoordinate reports a draw outside of the framebuffer.
// It is never fatal: the draw is skipped.
type ErrCoordinate struct {
	X, Y int
	Char bool // Set for character cell writes.
}

func (err ErrCoordinate) Error() string {
	if err.Char {
		return f("character cell (%d, %d) out of range", err.X, err.Y)
	}
	return f("pixel (%d, %d) out of range", err.X, err.Y)
}

func (err ErrCoordinate) Is(target error) bool {
	return target == ErrCoordinateRange
}
