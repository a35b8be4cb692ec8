package cpu

import (
	"github.com/TheSunCat/Celsior/alu"
)

var aluOps = map[Opcode]alu.Op{
	OP_ADD: alu.OP_ADD,
	OP_SUB: alu.OP_SUB,
	OP_MUL: alu.OP_MUL,
	OP_AND: alu.OP_AND,
	OP_OR:  alu.OP_OR,
	OP_XOR: alu.OP_XOR,
}

// Execute runs a decoded instruction as a sequence of bus transfers.
// The program counter must already point past the operands.
func (cpu *Cpu) Execute(inst Instruction) (err error) {
	info, ok := inst.Opcode.Info()
	if !ok {
		err = ErrOpcodeUnknown(inst.Opcode)
		return
	}
	if len(inst.Operands) < len(info.Args) {
		err = ErrOperandMissing
		return
	}

	ops := inst.Operands

	switch inst.Opcode {
	case OP_NOP:
		err = ErrNop
	case OP_ADD, OP_SUB, OP_MUL, OP_AND, OP_OR, OP_XOR:
		err = cpu.binary(aluOps[inst.Opcode], ops[0], ops[1], ops[2])
	case OP_NOT:
		err = cpu.registerToAlu(ops[0], 0)
		if err != nil {
			return
		}
		cpu.Alu.Not()
		cpu.aluOut()
		err = cpu.registerWrite(ops[1])
	case OP_RSHIFT:
		err = cpu.shiftRight(ops[0], ops[1], ops[2])
	case OP_LSHIFT:
		err = cpu.shiftLeft(ops[0], ops[1], ops[2])
	case OP_LBL:
		cpu.Bus = cpu.Bus.Compose(ops[1], ops[2]).Put(ops[0])
		err = cpu.headerWrite()
	case OP_JMP:
		err = cpu.jump(ops[0])
	case OP_JIF:
		if cpu.Flags.Bit(int(ops[1])) == 1 {
			err = cpu.jump(ops[0])
		}
	case OP_MOV:
		err = cpu.pcToAddress()
		if err != nil {
			return
		}
		cpu.advance()
		err = cpu.memoryEnable()
		if err != nil {
			return
		}
		err = cpu.registerWrite(ops[0])
	case OP_PUSH:
		err = cpu.registerEnable(ops[0])
		if err != nil {
			return
		}
		err = cpu.Stack.Push(cpu.Bus.Data)
	case OP_RTR:
		err = cpu.registerEnable(ops[0])
		if err != nil {
			return
		}
		err = cpu.registerWrite(ops[1])
	case OP_MTR:
		cpu.Bus = cpu.Bus.Compose(ops[0], ops[1])
		err = cpu.memoryEnable()
		if err != nil {
			return
		}
		err = cpu.registerWrite(ops[2])
	case OP_RTM:
		cpu.Bus = cpu.Bus.Compose(ops[1], ops[2])
		err = cpu.registerEnable(ops[0])
		if err != nil {
			return
		}
		err = cpu.memoryWrite()
	case OP_MTM:
		cpu.Bus = cpu.Bus.Compose(ops[0], ops[1])
		err = cpu.memoryEnable()
		if err != nil {
			return
		}
		cpu.scratchWrite()
		cpu.Bus = cpu.Bus.Compose(ops[2], ops[3])
		cpu.scratchEnable()
		err = cpu.memoryWrite()
	case OP_VTR:
		cpu.variable(ops[0])
		err = cpu.memoryEnable()
		if err != nil {
			return
		}
		err = cpu.registerWrite(ops[1])
	case OP_RTV:
		cpu.variable(ops[1])
		err = cpu.registerEnable(ops[0])
		if err != nil {
			return
		}
		err = cpu.memoryWrite()
	case OP_FTR:
		cpu.flagsEnable()
		err = cpu.registerWrite(ops[0])
	case OP_CMP:
		err = cpu.compare(ops[0], ops[1])
	case OP_PXL, OP_LINE, OP_PRT:
		err = cpu.draw(inst.Opcode, ops)
	case OP_GMT:
		if cpu.Display != nil {
			cpu.Display.ToggleMode()
		}
	default:
		err = ErrOpcodeUnknown(inst.Opcode)
	}

	return
}

// binary runs a two operand ALU operation: out = op(a, b).
func (cpu *Cpu) binary(op alu.Op, a, b, out byte) (err error) {
	err = cpu.registerToAlu(a, 0)
	if err != nil {
		return
	}
	err = cpu.registerToAlu(b, 1)
	if err != nil {
		return
	}
	err = cpu.Alu.Execute(op)
	if err != nil {
		return
	}
	cpu.aluOut()
	return cpu.registerWrite(out)
}

// shiftRight stores r >> n into out. n is a literal.
func (cpu *Cpu) shiftRight(r, n, out byte) (err error) {
	err = cpu.registerToAlu(r, 0)
	if err != nil {
		return
	}
	cpu.Bus = cpu.Bus.Put(n)
	cpu.aluLatchB()
	cpu.Alu.RShift()
	cpu.aluOut()
	return cpu.registerWrite(out)
}

// shiftLeft stores r << n into out. The ALU has no left shift, so the
// multiplier 1 << n is built as 0x80 >> (7 - n) and r is multiplied by it.
// Shifts of 8 or more underflow the subtraction and yield 0.
func (cpu *Cpu) shiftLeft(r, n, out byte) (err error) {
	cpu.Bus = cpu.Bus.Put(7)
	cpu.aluLatchA()
	cpu.Bus = cpu.Bus.Put(n)
	cpu.aluLatchB()
	cpu.Alu.Sub()
	cpu.aluOut()
	cpu.aluLatchB()
	cpu.Bus = cpu.Bus.Put(0x80)
	cpu.aluLatchA()
	cpu.Alu.RShift()
	cpu.aluOut()
	cpu.aluLatchB()

	err = cpu.registerToAlu(r, 0)
	if err != nil {
		return
	}
	cpu.Alu.Mul()
	cpu.aluOut()
	return cpu.registerWrite(out)
}

// jump loads the program counter from header table entry index.
func (cpu *Cpu) jump(index byte) (err error) {
	cpu.Bus = cpu.Bus.Put(index)
	err = cpu.headerRead()
	if err != nil {
		return
	}
	cpu.Bus = cpu.Bus.Drive()
	cpu.addressToPc()
	return
}

// variable drives the address of variable slot id onto the address bus.
func (cpu *Cpu) variable(id byte) {
	cpu.Bus = cpu.Bus.Compose(0xff, 0xff).Decrement(id)
}

// compare stores the packed comparison of a and b in the flags register.
func (cpu *Cpu) compare(a, b byte) (err error) {
	err = cpu.registerToAlu(a, 0)
	if err != nil {
		return
	}
	err = cpu.registerToAlu(b, 1)
	if err != nil {
		return
	}
	cpu.Alu.Compare()
	cpu.aluOut()
	cpu.flagsWrite()
	return
}

// draw resolves the register operands and forwards them to the display.
// Register faults are fatal; display faults are only reported.
func (cpu *Cpu) draw(op Opcode, ids []byte) (err error) {
	values, err := cpu.resolve(ids...)
	if err != nil {
		return
	}

	if cpu.Display == nil {
		return
	}

	var fault error
	switch op {
	case OP_PXL:
		fault = cpu.Display.DrawPixel(values[0], values[1], values[2])
	case OP_LINE:
		fault = cpu.Display.DrawLine(values[0], values[1], values[2], values[3], values[4])
	case OP_PRT:
		fault = cpu.Display.DrawChar(values[0], values[1], values[2])
	}
	if fault != nil {
		cpu.warn(fault)
	}

	return
}
