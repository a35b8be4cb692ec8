package cpu

import (
	"errors"

	"github.com/TheSunCat/Celsior/translate"
)

var f = translate.From

var (
	// Fatal faults
	ErrBusFault       = errors.New(f("bus fault"))
	ErrUnknownOpcode  = errors.New(f("unknown opcode"))
	ErrNop            = errors.New(f("encountered NOP"))
	ErrStackOverflow  = errors.New(f("stack overflow"))
	ErrStackUnderflow = errors.New(f("stack underflow"))
	ErrHalted         = errors.New(f("cpu halted"))

	// Decode errors
	ErrOperandMissing = errors.New(f("operand missing"))
)

// ErrRegister reports an access to a register id that has no meaning
// in that direction.
type ErrRegister struct {
	Id    byte
	Write bool
}

func (err ErrRegister) Error() string {
	if err.Write {
		return f("writing to nonexistent register 0x%02x", err.Id)
	}
	return f("reading from nonexistent register 0x%02x", err.Id)
}

func (err ErrRegister) Is(target error) bool {
	return target == ErrBusFault
}

// ErrOpcodeUnknown reports an opcode byte missing from the opcode table.
type ErrOpcodeUnknown byte

func (err ErrOpcodeUnknown) Error() string {
	return f("unknown instruction 0x%02x", byte(err))
}

func (err ErrOpcodeUnknown) Is(target error) bool {
	return target == ErrUnknownOpcode
}

// ErrFault is the fatal abort that halts the CPU.
type ErrFault struct {
	Pc     int    // Address of the faulting instruction.
	Opcode Opcode // Opcode being executed.
	Err    error
}

func (err *ErrFault) Error() string {
	return f("%v at 0x%04X (%v)", err.Err, err.Pc, err.Opcode)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}
