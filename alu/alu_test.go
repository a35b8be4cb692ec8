package alu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TheSunCat/Celsior/internal"
)

func TestAlu_Arithmetic(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op   Op
		a, b byte
		out  byte
	}){
		{OP_ADD, 200, 100, 44},
		{OP_ADD, 1, 2, 3},
		{OP_SUB, 5, 7, 254},
		{OP_SUB, 7, 5, 2},
		{OP_MUL, 16, 17, 16},
		{OP_MUL, 3, 5, 15},
		{OP_XOR, 0xf0, 0xff, 0x0f},
		{OP_OR, 0xf0, 0x0f, 0xff},
		{OP_AND, 0xf0, 0x3c, 0x30},
		{OP_NOT, 0x0f, 0xaa, 0xf0},
		{OP_RSHIFT, 128, 1, 64},
		{OP_RSHIFT, 0xff, 4, 0x0f},
		{OP_RSHIFT, 0xff, 8, 0},
		{OP_RSHIFT, 0xff, 200, 0},
	}

	alu := &Alu{}
	for _, entry := range table {
		alu.A = entry.a
		alu.B = entry.b
		err := alu.Execute(entry.op)
		assert.NoError(err)
		assert.Equal(entry.out, alu.Out, "%v %d %d", entry.op, entry.a, entry.b)
		// Inputs are untouched.
		assert.Equal(entry.a, alu.A)
		assert.Equal(entry.b, alu.B)
	}
}

func TestAlu_Wrap(t *testing.T) {
	assert := assert.New(t)

	alu := &Alu{}
	for a := range 256 {
		for b := range 256 {
			alu.A = byte(a)
			alu.B = byte(b)

			alu.Add()
			if alu.Out != byte((a+b)%256) {
				assert.Fail("add", "%d + %d = %d", a, b, alu.Out)
			}
			alu.Sub()
			if alu.Out != byte((a-b+256)%256) {
				assert.Fail("sub", "%d - %d = %d", a, b, alu.Out)
			}
			alu.Mul()
			if alu.Out != byte((a*b)%256) {
				assert.Fail("mul", "%d * %d = %d", a, b, alu.Out)
			}
		}
	}
}

func TestAlu_Compare(t *testing.T) {
	assert := assert.New(t)

	alu := &Alu{}
	for a := range 256 {
		for b := range 256 {
			alu.A = byte(a)
			alu.B = byte(b)
			alu.Compare()
			flags := alu.Out

			eq := internal.BitAt(flags, FLAG_EQUAL)
			gt := internal.BitAt(flags, FLAG_GREATER)
			lt := internal.BitAt(flags, FLAG_LESS)
			ge := internal.BitAt(flags, FLAG_GREATER_EQUAL)
			le := internal.BitAt(flags, FLAG_LESS_EQUAL)
			ne := internal.BitAt(flags, FLAG_NOT_EQUAL)

			ok := true
			count := 0
			for _, bit := range []bool{eq, gt, lt} {
				if bit {
					count++
				}
			}
			ok = ok && count == 1
			ok = ok && ge == (gt || eq)
			ok = ok && le == (lt || eq)
			ok = ok && ne == !eq
			ok = ok && eq == (a == b)
			ok = ok && gt == (a > b)
			ok = ok && flags&0xc0 == 0
			if !ok {
				assert.Fail("compare", "%d <=> %d = %08b", a, b, flags)
			}
		}
	}
}

func TestAlu_SubComparisons(t *testing.T) {
	assert := assert.New(t)

	alu := &Alu{A: 3, B: 9}

	alu.Equal()
	assert.Equal(byte(0), alu.Out)
	alu.Greater()
	assert.Equal(byte(0), alu.Out)
	alu.Less()
	assert.Equal(byte(1), alu.Out)
	alu.GreaterEqual()
	assert.Equal(byte(0), alu.Out)
	alu.LessEqual()
	assert.Equal(byte(1), alu.Out)

	alu.Compare()
	assert.Equal(byte(0b110100), alu.Out)

	alu.A = 9
	alu.Compare()
	assert.Equal(byte(0b011001), alu.Out)
}

func TestAlu_Unsigned(t *testing.T) {
	assert := assert.New(t)

	alu := &Alu{A: 0x80, B: 0x7f}
	alu.Greater()
	assert.Equal(byte(1), alu.Out)
}

func TestAlu_BadOp(t *testing.T) {
	assert := assert.New(t)

	alu := &Alu{}
	err := alu.Execute(Op(99))
	assert.ErrorIs(err, ErrAluOp)
	assert.Equal("Op(99)", Op(99).String())
	assert.Equal("rshift", OP_RSHIFT.String())

	alu.A, alu.B, alu.Out = 1, 2, 3
	alu.Reset()
	assert.Equal(Alu{}, *alu)
}
