package cpu

import (
	"fmt"
	"strings"
)

// Opcode is the first byte of an instruction.
type Opcode byte

const (
	OP_NOP    = Opcode(0x00)
	OP_ADD    = Opcode(0x01)
	OP_SUB    = Opcode(0x02)
	OP_MUL    = Opcode(0x03)
	OP_RSHIFT = Opcode(0x04)
	OP_LSHIFT = Opcode(0x05)
	OP_LBL    = Opcode(0x06)
	OP_JMP    = Opcode(0x07)
	OP_JIF    = Opcode(0x08)
	OP_MOV    = Opcode(0x09)
	OP_PUSH   = Opcode(0x0A)
	OP_RTR    = Opcode(0x0B)
	OP_MTR    = Opcode(0x0C)
	OP_RTM    = Opcode(0x0D)
	OP_MTM    = Opcode(0x0E)
	OP_VTR    = Opcode(0x0F)
	OP_RTV    = Opcode(0x10)
	OP_FTR    = Opcode(0x11)
	OP_CMP    = Opcode(0x12)
	OP_AND    = Opcode(0x13)
	OP_NOT    = Opcode(0x14)
	OP_OR     = Opcode(0x15)
	OP_XOR    = Opcode(0x16)
	OP_PXL    = Opcode(0x50)
	OP_LINE   = Opcode(0x51)
	OP_PRT    = Opcode(0x52)
	OP_GMT    = Opcode(0x53)
)

// Arg is the kind of an operand byte.
type Arg int

// Register id, literal byte, header table index, flag bit index, the two
// halves of a memory address, and a variable slot id.
//
//go:generate go tool stringer -linecomment -type=Arg
const (
	ARG_REG     = Arg(iota) // reg
	ARG_VALUE               // value
	ARG_LABEL               // label
	ARG_CMP                 // cmp
	ARG_ADDR_HI             // addrhi
	ARG_ADDR_LO             // addrlo
	ARG_VAR                 // var
)

// OpcodeInfo describes the encoding of an opcode.
type OpcodeInfo struct {
	Name      string
	Args      []Arg
	Immediate bool // A literal byte follows the operands (MOV).
}

// Length is the number of bytes the instruction occupies.
func (info OpcodeInfo) Length() int {
	n := 1 + len(info.Args)
	if info.Immediate {
		n++
	}
	return n
}

var (
	reg3   = []Arg{ARG_REG, ARG_REG, ARG_REG}
	shift  = []Arg{ARG_REG, ARG_VALUE, ARG_REG}
	noArgs = []Arg{}
)

var opcodeTable = map[Opcode]OpcodeInfo{
	OP_NOP:    {Name: "nop", Args: noArgs},
	OP_ADD:    {Name: "add", Args: reg3},
	OP_SUB:    {Name: "sub", Args: reg3},
	OP_MUL:    {Name: "mul", Args: reg3},
	OP_RSHIFT: {Name: "rshift", Args: shift},
	OP_LSHIFT: {Name: "lshift", Args: shift},
	OP_LBL:    {Name: "lbl", Args: []Arg{ARG_LABEL, ARG_ADDR_HI, ARG_ADDR_LO}},
	OP_JMP:    {Name: "jmp", Args: []Arg{ARG_LABEL}},
	OP_JIF:    {Name: "jif", Args: []Arg{ARG_LABEL, ARG_CMP}},
	OP_MOV:    {Name: "mov", Args: []Arg{ARG_REG}, Immediate: true},
	OP_PUSH:   {Name: "push", Args: []Arg{ARG_REG}},
	OP_RTR:    {Name: "rtr", Args: []Arg{ARG_REG, ARG_REG}},
	OP_MTR:    {Name: "mtr", Args: []Arg{ARG_ADDR_HI, ARG_ADDR_LO, ARG_REG}},
	OP_RTM:    {Name: "rtm", Args: []Arg{ARG_REG, ARG_ADDR_HI, ARG_ADDR_LO}},
	OP_MTM:    {Name: "mtm", Args: []Arg{ARG_ADDR_HI, ARG_ADDR_LO, ARG_ADDR_HI, ARG_ADDR_LO}},
	OP_VTR:    {Name: "vtr", Args: []Arg{ARG_VAR, ARG_REG}},
	OP_RTV:    {Name: "rtv", Args: []Arg{ARG_REG, ARG_VAR}},
	OP_FTR:    {Name: "ftr", Args: []Arg{ARG_REG}},
	OP_CMP:    {Name: "cmp", Args: []Arg{ARG_REG, ARG_REG}},
	OP_AND:    {Name: "and", Args: reg3},
	OP_NOT:    {Name: "not", Args: []Arg{ARG_REG, ARG_REG}},
	OP_OR:     {Name: "or", Args: reg3},
	OP_XOR:    {Name: "xor", Args: reg3},
	OP_PXL:    {Name: "pxl", Args: reg3},
	OP_LINE:   {Name: "line", Args: []Arg{ARG_REG, ARG_REG, ARG_REG, ARG_REG, ARG_REG}},
	OP_PRT:    {Name: "prt", Args: reg3},
	OP_GMT:    {Name: "gmt", Args: noArgs},
}

// Info returns the encoding of an opcode.
func (op Opcode) Info() (info OpcodeInfo, ok bool) {
	info, ok = opcodeTable[op]
	return
}

func (op Opcode) String() string {
	info, ok := opcodeTable[op]
	if !ok {
		return fmt.Sprintf("0x%02x", byte(op))
	}
	return strings.ToUpper(info.Name)
}

// LookupOpcode finds an opcode by mnemonic.
func LookupOpcode(name string) (op Opcode, ok bool) {
	name = strings.ToLower(name)
	for op, info := range opcodeTable {
		if info.Name == name {
			return op, true
		}
	}
	return
}

// CmpName is the assembler name of each flag bit, indexed by bit.
var CmpName = []string{"eq", "gt", "lt", "ge", "le", "ne"}

// Instruction is a decoded opcode and its operand bytes.
type Instruction struct {
	Addr     int // Address of the opcode byte.
	Opcode   Opcode
	Operands []byte
}

// Decode reads the operands of op using next, which returns successive
// instruction bytes.
func Decode(op byte, next func() (byte, error)) (inst Instruction, err error) {
	inst.Opcode = Opcode(op)
	info, ok := inst.Opcode.Info()
	if !ok {
		err = ErrOpcodeUnknown(op)
		return
	}

	inst.Operands = make([]byte, len(info.Args))
	for n := range info.Args {
		inst.Operands[n], err = next()
		if err != nil {
			return
		}
	}

	return
}

// String returns the assembly language form of the instruction.
// A MOV carrying its immediate as a final operand prints it.
func (inst Instruction) String() string {
	info, ok := inst.Opcode.Info()
	if !ok {
		return fmt.Sprintf(".byte 0x%02x", byte(inst.Opcode))
	}

	var words []string
	ops := inst.Operands
	for n := 0; n < len(info.Args) && n < len(ops); n++ {
		value := ops[n]
		switch info.Args[n] {
		case ARG_REG:
			words = append(words, RegisterName(value))
		case ARG_CMP:
			if int(value) < len(CmpName) {
				words = append(words, CmpName[value])
			} else {
				words = append(words, fmt.Sprintf("%d", value))
			}
		case ARG_ADDR_HI:
			if n+1 < len(ops) {
				words = append(words, fmt.Sprintf("0x%02x%02x", value, ops[n+1]))
				n++
			} else {
				words = append(words, fmt.Sprintf("0x%02x", value))
			}
		case ARG_ADDR_LO:
			words = append(words, fmt.Sprintf("0x%02x", value))
		default:
			words = append(words, fmt.Sprintf("%d", value))
		}
	}
	if info.Immediate && len(ops) > len(info.Args) {
		words = append(words, fmt.Sprintf("%d", ops[len(info.Args)]))
	}

	if len(words) == 0 {
		return info.Name
	}
	return info.Name + " " + strings.Join(words, " ")
}

// Disassemble decodes count instructions starting at addr.
// Decoding stops early at the end of memory or an unknown opcode,
// which is returned as a one byte instruction.
func Disassemble(read func(addr int) (byte, error), addr int, count int) (insts []Instruction) {
	for range count {
		op, err := read(addr)
		if err != nil {
			return
		}
		pc := addr + 1
		next := func() (value byte, err error) {
			value, err = read(pc)
			pc++
			return
		}
		inst, err := Decode(op, next)
		inst.Addr = addr
		if err != nil {
			insts = append(insts, Instruction{Addr: addr, Opcode: Opcode(op)})
			return
		}
		info, _ := inst.Opcode.Info()
		if info.Immediate {
			imm, err := next()
			if err != nil {
				insts = append(insts, inst)
				return
			}
			inst.Operands = append(inst.Operands, imm)
		}
		insts = append(insts, inst)
		addr = pc
	}
	return
}
