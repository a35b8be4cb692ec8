package alu

import (
	"errors"

	"github.com/TheSunCat/Celsior/translate"
)

var f = translate.From

var ErrAluOp = errors.New(f("alu op"))

// ErrOp reports an unknown ALU operation.
type ErrOp Op

func (err ErrOp) Error() string {
	return f("unknown alu op %d", int(err))
}

func (err ErrOp) Is(target error) bool {
	return target == ErrAluOp
}
