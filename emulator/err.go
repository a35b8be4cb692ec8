package emulator

import (
	"github.com/TheSunCat/Celsior/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     int // Address of the faulting instruction.
	LineNo int // Source line, 0 if the program has no listing.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("pc 0x%04X %v", err.Pc, err.Err)
	}
	return f("line %d (pc 0x%04X) %v", err.LineNo, err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
