package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeTable(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		op     Opcode
		name   string
		length int
	}{
		{OP_NOP, "nop", 1},
		{OP_ADD, "add", 4},
		{OP_LSHIFT, "lshift", 4},
		{OP_LBL, "lbl", 4},
		{OP_JMP, "jmp", 2},
		{OP_JIF, "jif", 3},
		{OP_MOV, "mov", 3},
		{OP_MTM, "mtm", 5},
		{OP_VTR, "vtr", 3},
		{OP_FTR, "ftr", 2},
		{OP_NOT, "not", 3},
		{OP_LINE, "line", 6},
		{OP_GMT, "gmt", 1},
	}

	for _, entry := range table {
		info, ok := entry.op.Info()
		assert.True(ok, entry.name)
		assert.Equal(entry.name, info.Name)
		assert.Equal(entry.length, info.Length(), entry.name)

		op, ok := LookupOpcode(entry.name)
		assert.True(ok, entry.name)
		assert.Equal(entry.op, op)
	}

	_, ok := LookupOpcode("halt")
	assert.False(ok)

	op, ok := LookupOpcode("RTR")
	assert.True(ok)
	assert.Equal(OP_RTR, op)

	assert.Equal("XOR", OP_XOR.String())
	assert.Equal("0x42", Opcode(0x42).String())
}

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	feed := func(data ...byte) func() (byte, error) {
		return func() (value byte, err error) {
			if len(data) == 0 {
				err = ErrOperandMissing
				return
			}
			value, data = data[0], data[1:]
			return
		}
	}

	inst, err := Decode(byte(OP_LBL), feed(5, 0x12, 0x34, 0x99))
	assert.NoError(err)
	assert.Equal(OP_LBL, inst.Opcode)
	assert.Equal([]byte{5, 0x12, 0x34}, inst.Operands)

	inst, err = Decode(byte(OP_GMT), feed())
	assert.NoError(err)
	assert.Empty(inst.Operands)

	inst, err = Decode(byte(OP_NOP), feed())
	assert.NoError(err)
	assert.Equal(OP_NOP, inst.Opcode)

	_, err = Decode(byte(OP_MTM), feed(1, 2))
	assert.ErrorIs(err, ErrOperandMissing)

	_, err = Decode(0x30, feed(1, 2, 3))
	assert.ErrorIs(err, ErrUnknownOpcode)
}

func TestExecuteShortOperands(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(nil)
	err := cpu.Execute(Instruction{Opcode: OP_ADD, Operands: []byte{0}})
	assert.ErrorIs(err, ErrOperandMissing)

	err = cpu.Execute(Instruction{Opcode: Opcode(0x60)})
	assert.ErrorIs(err, ErrUnknownOpcode)
}

func TestInstructionString(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		inst Instruction
		text string
	}{
		{Instruction{Opcode: OP_ADD, Operands: []byte{0, 1, 2}}, "add r0 r1 r2"},
		{Instruction{Opcode: OP_RTR, Operands: []byte{10, 8}}, "rtr stack input"},
		{Instruction{Opcode: OP_MOV, Operands: []byte{3, 200}}, "mov r3 200"},
		{Instruction{Opcode: OP_LBL, Operands: []byte{4, 0x12, 0x34}}, "lbl 4 0x1234"},
		{Instruction{Opcode: OP_MTM, Operands: []byte{0x10, 0x00, 0x20, 0x01}}, "mtm 0x1000 0x2001"},
		{Instruction{Opcode: OP_JIF, Operands: []byte{1, 5}}, "jif 1 ne"},
		{Instruction{Opcode: OP_JIF, Operands: []byte{1, 9}}, "jif 1 9"},
		{Instruction{Opcode: OP_RSHIFT, Operands: []byte{1, 3, 2}}, "rshift r1 3 r2"},
		{Instruction{Opcode: OP_GMT}, "gmt"},
		{Instruction{Opcode: Opcode(0x99)}, ".byte 0x99"},
		{Instruction{Opcode: OP_RTR, Operands: []byte{0x20, 1}}, "rtr ?0x20 r1"},
	}

	for _, entry := range table {
		assert.Equal(entry.text, entry.inst.String())
	}
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	data := program(
		code(OP_MOV, REG_R0, 7),
		code(OP_LBL, 0, 0x00, 0x03),
		code(OP_CMP, REG_R0, REG_R1),
		code(OP_GMT),
		[]byte{0xee, 0x01},
	)
	read := func(addr int) (value byte, err error) {
		if addr >= len(data) {
			err = ErrOperandMissing
			return
		}
		value = data[addr]
		return
	}

	insts := Disassemble(read, 0, 10)
	var text []string
	var addrs []int
	for _, inst := range insts {
		text = append(text, inst.String())
		addrs = append(addrs, inst.Addr)
	}

	assert.Equal([]string{
		"mov r0 7",
		"lbl 0 0x0003",
		"cmp r0 r1",
		"gmt",
		".byte 0xee",
	}, text)
	assert.Equal([]int{0, 3, 7, 10, 11}, addrs)

	insts = Disassemble(read, 3, 1)
	assert.Len(insts, 1)
	assert.Equal(OP_LBL, insts[0].Opcode)
}

func TestArgString(t *testing.T) {
	assert := assert.New(t)

	info, ok := OP_LBL.Info()
	assert.True(ok)

	var names []string
	for _, arg := range info.Args {
		names = append(names, arg.String())
	}
	assert.Equal([]string{"label", "addrhi", "addrlo"}, names)
	assert.Equal("var", ARG_VAR.String())
	assert.Equal("Arg(7)", Arg(7).String())
}
