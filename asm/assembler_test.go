package asm

import (
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, asm *Assembler, lines ...string) (prog *Program) {
	t.Helper()

	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Empty(prog.Binary())

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("0xFFFF", asm.Equate["VAR_BASE"])
	assert.Equal("9216", asm.Equate["CHAR_BASE"])
}

func TestAssemblerEncoding(t *testing.T) {
	table := [](struct {
		line  string
		bytes []byte
	}){
		{"nop", []byte{0x00}},
		{"add r0 r1 r2", []byte{0x01, 0, 1, 2}},
		{"ADD R0 R1 R2", []byte{0x01, 0, 1, 2}},
		{"sub r7 r6 r5", []byte{0x02, 7, 6, 5}},
		{"mul r1 r1 stack", []byte{0x03, 1, 1, 10}},
		{"rshift r1 3 r2", []byte{0x04, 1, 3, 2}},
		{"rgt r1 3 r2", []byte{0x04, 1, 3, 2}},
		{"lshift r0 1 r0", []byte{0x05, 0, 1, 0}},
		{"lft r0 1 r0", []byte{0x05, 0, 1, 0}},
		{"lbl 5 0x12 0x34", []byte{0x06, 5, 0x12, 0x34}},
		{"lbl 5 0x1234", []byte{0x06, 5, 0x12, 0x34}},
		{"jmp 5", []byte{0x07, 5}},
		{"jif 1 ge", []byte{0x08, 1, 3}},
		{"jif 1 4", []byte{0x08, 1, 4}},
		{"mov r3 200", []byte{0x09, 3, 200}},
		{"mov stack -1", []byte{0x09, 10, 0xff}},
		{"push r7", []byte{0x0a, 7}},
		{"rtr input r0", []byte{0x0b, 8, 0}},
		{"mtr 0x2000 r1", []byte{0x0c, 0x20, 0x00, 1}},
		{"rtm r1 0x20 0x01", []byte{0x0d, 1, 0x20, 0x01}},
		{"mtm 0x1000 0x2001", []byte{0x0e, 0x10, 0x00, 0x20, 0x01}},
		{"mtm 0x10 0 0x20 1", []byte{0x0e, 0x10, 0x00, 0x20, 0x01}},
		{"vtr 7 r2", []byte{0x0f, 7, 2}},
		{"rtv r2 7", []byte{0x10, 2, 7}},
		{"ftr r4", []byte{0x11, 4}},
		{"cmp r0 r1", []byte{0x12, 0, 1}},
		{"and r0 r1 r2", []byte{0x13, 0, 1, 2}},
		{"not r1 r2", []byte{0x14, 1, 2}},
		{"or r0 r1 r2", []byte{0x15, 0, 1, 2}},
		{"xor r0 r1 r2", []byte{0x16, 0, 1, 2}},
		{"pxl r0 r1 r2", []byte{0x50, 0, 1, 2}},
		{"line r0 r1 r2 r3 r4", []byte{0x51, 0, 1, 2, 3, 4}},
		{"prt r0 r1 r2", []byte{0x52, 0, 1, 2}},
		{"gmt", []byte{0x53}},
		{".byte 1 2 0xff -1", []byte{1, 2, 0xff, 0xff}},
		{"mov r0 'A'", []byte{0x09, 0, 11}},
		{"mov r0 ' '", []byte{0x09, 0, 0}},
		{"mov r0 '\\\\'", []byte{0x09, 0, 66}},
		{"mov r0 $(3*4+1)", []byte{0x09, 0, 13}},
		{"mov r0 $(hi(0x1234))", []byte{0x09, 0, 0x12}},
		{"  gmt   ; trailing comment", []byte{0x53}},
	}

	for _, entry := range table {
		t.Run(entry.line, func(t *testing.T) {
			assert := assert.New(t)

			prog := assemble(t, &Assembler{}, entry.line)
			assert.Equal(entry.bytes, prog.Binary())
		})
	}
}

func TestAssemblerLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := assemble(t, asm,
		"start: mov r0 0",
		"loop:",
		"  add r0 r1 r0",
		"  branch 1 ne loop",
		"  jump 2 end",
		"",
		"end: AND_ALSO: gmt",
	)

	assert.Equal(map[string]int{
		"start":    0,
		"loop":     3,
		"end":      20,
		"AND_ALSO": 20,
	}, prog.Labels)

	assert.Equal([]byte{
		0x09, 0, 0,
		0x01, 0, 1, 0,
		0x06, 1, 0x00, 0x03, 0x08, 1, 5,
		0x06, 2, 0x00, 20, 0x07, 2,
		0x53,
	}, prog.Binary())

	assert.Equal(5, len(prog.Opcodes))
	assert.Equal([]Link{{Offset: 2, Label: "end"}}, prog.Opcodes[3].Links)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := assemble(t, asm,
		".macro inc REG",
		"  mov r7 1",
		"  add REG r7 REG",
		".endm",
		".macro spin",
		"@top: jump 0 @top",
		".endm",
		"inc r0",
		"inc r1",
		"spin",
		"spin",
	)

	assert.Equal(14, prog.Labels["spin_3_top"])
	assert.Equal(20, prog.Labels["spin_4_top"])

	assert.Equal([]byte{
		0x09, 7, 1,
		0x01, 0, 7, 0,
		0x09, 7, 1,
		0x01, 1, 7, 1,
		0x06, 0, 0, 14, 0x07, 0,
		0x06, 0, 0, 20, 0x07, 0,
	}, prog.Binary())

	// Macro lines report their own line numbers.
	assert.Equal(2, prog.LineNo(0))
	assert.Equal(3, prog.LineNo(3))
	assert.Equal(6, prog.LineNo(14))
}

func TestAssemblerEquate(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("SCREEN", "128")
	asm.PredefineAll(maps.All(map[string]string{
		"FLAG_NOT_EQUAL": "5",
	}))

	prog := assemble(t, asm,
		".equ COUNT 5",
		".equ ACC r2",
		"mov ACC COUNT",
		"mov r0 $(COUNT*2)",
		"mov r1 $(SCREEN-1)",
		"jif 0 FLAG_NOT_EQUAL",
		"mov r3 $(LINENO)",
	)

	assert.Equal([]byte{
		0x09, 2, 5,
		0x09, 0, 10,
		0x09, 1, 127,
		0x08, 0, 5,
		0x09, 3, 7,
	}, prog.Binary())
	assert.Equal([]string{"mov", "r2", "5"}, prog.Opcodes[0].Words)
}

func TestAssemblerOrg(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := assemble(t, asm,
		"jump 0 data",
		".org 0x10",
		"data: .byte 7 8",
		"lbl 1 $(hi(data)) $(lo(data))",
	)

	binary := prog.Binary()
	assert.Equal(22, len(binary))
	assert.Equal([]byte{0x06, 0, 0x00, 0x10, 0x07, 0}, binary[:6])
	assert.Equal(make([]byte, 10), binary[6:16])
	assert.Equal([]byte{7, 8, 0x06, 1, 0x00, 0x10}, binary[16:])
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
		err  error
	}){
		{"DUP:\nDUP:\n", 2, ErrLabelDuplicate},
		{"mov r0 nothing", 1, ErrParseNumber("nothing")},
		{"mov r0 $(\"aaa\")", 1, ErrParseExpression("\"aaa\"")},
		{"mov r0 $(more(1))", 1, nil},
		{"mov r0 256", 1, ErrRange{Word: "256", Max: 0xff}},
		{"mov r9x 1", 1, ErrParseRegister("r9x")},
		{"add r0 r1", 1, ErrOpcodeValueMissing},
		{"add r0 r1 r2 r3", 1, ErrOpcodeExtraArgs},
		{"mtm 1 2 3", 1, ErrOpcodeValueMissing},
		{"jif 0 maybe", 1, ErrParseCompare("maybe")},
		{"jmp nowhere", 1, ErrParseNumber("nowhere")},
		{"lbl 0 nowhere", 1, ErrLabelMissing("nowhere")},
		{"gmt\njump 0 missing", 2, ErrLabelMissing("missing")},
		{"jump 0", 1, ErrOpcodeValueMissing},
		{"branch 0 eq", 1, ErrOpcodeValueMissing},
		{".equ", 1, ErrEquateSyntax},
		{".equ A", 1, ErrEquateSyntax},
		{".equ A 1\n.equ A 2\n", 2, ErrEquateDuplicate},
		{".macro A B C\n.endm\nA 1\n", 3, ErrMacroSyntax},
		{".macro A B\n.macro C\n.endm\n.endm", 2, ErrMacroNesting},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3, ErrMacroDuplicate},
		{".macro A B\n.endm\n.endm\n", 3, ErrMacroLonelyEndm},
		{".macro A\ngmt\n", 2, ErrMacroLonely},
		{".macro A B\nmov B 1\n.endm\nA r0\nA bogus\n", 5, ErrParseRegister("bogus")},
		{"fly r0", 1, ErrInstructionInvalid},
		{".org", 1, ErrOrgSyntax},
		{".org 0x10001", 1, ErrProgramSize},
		{"gmt\ngmt\n.org 1", 3, ErrOrgBackwards},
		{".byte", 1, ErrOpcodeValueMissing},
		{".byte 300", 1, ErrRange{Word: "300", Max: 0xff}},
		{"mov r0 '@'", 1, ErrParseCharacter("@")},
		{"lbl 0 0x10000", 1, ErrRange{Word: "0x10000", Max: 0xffff}},
		{".org 0xffff\nmov r0 1", 2, ErrProgramSize},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
			if entry.err != nil {
				assert.ErrorIs(err, entry.err, entry.prog)
			}
		}
	}
}
