// Package alu implements the Celsior 8-bit arithmetic and logic unit.
//
// Operands are staged into the A and B latches, an operation is invoked,
// and the result is left in the Out latch. All arithmetic wraps modulo 256.
package alu

import (
	"fmt"
	"iter"
	"maps"

	"github.com/TheSunCat/Celsior/internal"
)

// Flag bit indices of the word produced by Compare.
const (
	FLAG_EQUAL         = 0
	FLAG_GREATER       = 1
	FLAG_LESS          = 2
	FLAG_GREATER_EQUAL = 3
	FLAG_LESS_EQUAL    = 4
	FLAG_NOT_EQUAL     = 5
)

var _alu_defines = map[string]string{
	"FLAG_EQUAL":         fmt.Sprintf("%d", FLAG_EQUAL),
	"FLAG_GREATER":       fmt.Sprintf("%d", FLAG_GREATER),
	"FLAG_LESS":          fmt.Sprintf("%d", FLAG_LESS),
	"FLAG_GREATER_EQUAL": fmt.Sprintf("%d", FLAG_GREATER_EQUAL),
	"FLAG_LESS_EQUAL":    fmt.Sprintf("%d", FLAG_LESS_EQUAL),
	"FLAG_NOT_EQUAL":     fmt.Sprintf("%d", FLAG_NOT_EQUAL),
}

// Defines for the flag bits.
func Defines() iter.Seq2[string, string] {
	return maps.All(_alu_defines)
}

// Op is an ALU operation selector.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_ADD     = Op(iota) // add
	OP_SUB                // sub
	OP_MUL                // mul
	OP_XOR                // xor
	OP_OR                 // or
	OP_AND                // and
	OP_NOT                // not
	OP_RSHIFT             // rshift
	OP_COMPARE            // compare
)

// Alu holds the two input latches and the output latch.
type Alu struct {
	A   byte // Input latch 0.
	B   byte // Input latch 1.
	Out byte // Output latch.
}

// Reset clears all latches.
func (alu *Alu) Reset() {
	*alu = Alu{}
}

// Execute invokes op on the latched operands.
func (alu *Alu) Execute(op Op) (err error) {
	switch op {
	case OP_ADD:
		alu.Add()
	case OP_SUB:
		alu.Sub()
	case OP_MUL:
		alu.Mul()
	case OP_XOR:
		alu.Xor()
	case OP_OR:
		alu.Or()
	case OP_AND:
		alu.And()
	case OP_NOT:
		alu.Not()
	case OP_RSHIFT:
		alu.RShift()
	case OP_COMPARE:
		alu.Compare()
	default:
		err = ErrOp(op)
	}
	return
}

func (alu *Alu) Add() { alu.Out = alu.A + alu.B }
func (alu *Alu) Sub() { alu.Out = alu.A - alu.B }
func (alu *Alu) Mul() { alu.Out = alu.A * alu.B }
func (alu *Alu) Xor() { alu.Out = alu.A ^ alu.B }
func (alu *Alu) Or()  { alu.Out = alu.A | alu.B }
func (alu *Alu) And() { alu.Out = alu.A & alu.B }

// Not complements A; B is ignored.
func (alu *Alu) Not() { alu.Out = ^alu.A }

// RShift is a zero filling shift of A by B. Shifts of 8 or more yield 0.
func (alu *Alu) RShift() { alu.Out = alu.A >> alu.B }

func (alu *Alu) set(cond bool) {
	alu.Out = 0
	if cond {
		alu.Out = 1
	}
}

// Sub-comparisons. Each leaves 1 or 0 in Out; operands are unsigned.
func (alu *Alu) Equal()        { alu.set(alu.A == alu.B) }
func (alu *Alu) Greater()      { alu.set(alu.A > alu.B) }
func (alu *Alu) Less()         { alu.set(alu.A < alu.B) }
func (alu *Alu) GreaterEqual() { alu.set(alu.A >= alu.B) }
func (alu *Alu) LessEqual()    { alu.set(alu.A <= alu.B) }

// Compare runs each sub-comparison and packs the results into Out
// using the FLAG_* bit layout. Bits 6 and 7 are always clear.
func (alu *Alu) Compare() {
	alu.Equal()
	equal := alu.Out == 1

	alu.Greater()
	greater := alu.Out == 1

	alu.Less()
	less := alu.Out == 1

	alu.GreaterEqual()
	greaterEqual := alu.Out == 1

	alu.LessEqual()
	lessEqual := alu.Out == 1

	alu.Out = internal.ComposeByte(equal, greater, less, greaterEqual, lessEqual, !equal)
}
