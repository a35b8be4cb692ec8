package cpu

import (
	"fmt"

	"github.com/TheSunCat/Celsior/internal"
)

// Register ids usable as instruction operands.
const (
	REG_R0    = byte(0)
	REG_R1    = byte(1)
	REG_R2    = byte(2)
	REG_R3    = byte(3)
	REG_R4    = byte(4)
	REG_R5    = byte(5)
	REG_R6    = byte(6)
	REG_R7    = byte(7)
	REG_INPUT = byte(8)  // Input button mask, read only.
	REG_STACK = byte(10) // Reading pops, writing pushes.
)

// Input mask bit indices.
const (
	INPUT_LEFT  = 0
	INPUT_RIGHT = 1
	INPUT_UP    = 2
	INPUT_DOWN  = 3
	INPUT_A     = 4
	INPUT_D     = 5
	INPUT_W     = 6
	INPUT_S     = 7
)

// Ids of the internal registers, only used for inspection.
const (
	id_pc0     = 8
	id_pc1     = 9
	id_flags   = 10
	id_alu_a   = 11
	id_alu_b   = 12
	id_alu_out = 13
	id_abr     = 14
	id_scratch = 15
	id_input   = 17
)

// RegisterName returns the assembler name of a register operand.
func RegisterName(id byte) string {
	switch {
	case id <= REG_R7:
		return fmt.Sprintf("r%d", id)
	case id == REG_INPUT:
		return "input"
	case id == REG_STACK:
		return "stack"
	}
	return fmt.Sprintf("?0x%02x", id)
}

// InputMask composes an input register value from button states.
func InputMask(left, right, up, down, a, d, w, s bool) byte {
	return internal.ComposeByte(left, right, up, down, a, d, w, s)
}

// Register is an 8-bit cell. Id is only meaningful to a debugger.
type Register struct {
	Id    int
	Value byte
}

func (reg Register) String() string {
	return fmt.Sprintf("ID: %d, val: %d", reg.Id, reg.Value)
}

// Bit returns 1 if bit n of the register is set.
func (reg Register) Bit(n int) int {
	if internal.BitAt(reg.Value, n) {
		return 1
	}
	return 0
}

// WideRegister is a 16-bit cell used to stage an address.
type WideRegister struct {
	Id    int
	Value uint16
}

// High returns bits 8-15.
func (reg WideRegister) High() byte {
	return internal.HighByte(reg.Value)
}

// Low returns bits 0-7.
func (reg WideRegister) Low() byte {
	return internal.LowByte(reg.Value)
}

// SetHigh replaces bits 8-15.
func (reg *WideRegister) SetHigh(hi byte) {
	reg.Value = internal.Word(hi, reg.Low())
}

// SetLow replaces bits 0-7.
func (reg *WideRegister) SetLow(lo byte) {
	reg.Value = internal.Word(reg.High(), lo)
}
