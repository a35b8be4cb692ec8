// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/TheSunCat/Celsior/cpu"
	"github.com/TheSunCat/Celsior/gpu"
	"github.com/TheSunCat/Celsior/internal"
	"github.com/TheSunCat/Celsior/memory"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":    "0",
	"VAR_BASE":  fmt.Sprintf("0x%X", cpu.VAR_BASE),
	"CHAR_BASE": fmt.Sprintf("%d", gpu.CHAR_START),
}

// Assembler is a single pass macro assembler for the Celsior system.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	addr      int // Address of the next opcode.
	expansion int // Count of macro expansions, for local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// PredefineAll predefines every equate in defines.
func (asm *Assembler) PredefineAll(defines iter.Seq2[string, string]) {
	for equ, value := range defines {
		asm.Predefine(equ, value)
	}
}

// regMap is a map of register names to register ids.
var regMap = map[string]byte{
	"r0":    cpu.REG_R0,
	"r1":    cpu.REG_R1,
	"r2":    cpu.REG_R2,
	"r3":    cpu.REG_R3,
	"r4":    cpu.REG_R4,
	"r5":    cpu.REG_R5,
	"r6":    cpu.REG_R6,
	"r7":    cpu.REG_R7,
	"input": cpu.REG_INPUT,
	"stack": cpu.REG_STACK,
}

// aliasMap maps alternate mnemonics.
var aliasMap = map[string]string{
	"rgt": "rshift",
	"lft": "lshift",
}

var reLabel = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// isLabel reports if word can name a label.
func isLabel(word string) bool {
	return reLabel.MatchString(word)
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	return
}

// byteOf returns an 8-bit value. Negative values are two's complement.
func (asm *Assembler) byteOf(word string) (value byte, err error) {
	v, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if v < -0x80 || v > 0xff {
		err = ErrRange{Word: word, Max: 0xff}
		return
	}
	value = byte(v)
	return
}

// wordOf returns a 16-bit address.
func (asm *Assembler) wordOf(word string) (value uint16, err error) {
	v, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if v < 0 || v > 0xffff {
		err = ErrRange{Word: word, Max: 0xffff}
		return
	}
	value = uint16(v)
	return
}

// registerOf returns a register id, by name or number.
func (asm *Assembler) registerOf(word string) (id byte, err error) {
	id, ok := regMap[strings.ToLower(word)]
	if ok {
		return
	}
	id, err = asm.byteOf(word)
	if err != nil {
		err = ErrParseRegister(word)
	}
	return
}

// compareOf returns a flag bit index, by name or number.
func (asm *Assembler) compareOf(word string) (bit byte, err error) {
	n := slices.Index(cpu.CmpName, strings.ToLower(word))
	if n >= 0 {
		bit = byte(n)
		return
	}
	bit, err = asm.byteOf(word)
	if err != nil {
		err = ErrParseCompare(word)
	}
	return
}

// starByte returns a starlark builtin extracting one byte of its argument.
func starByte(shift uint) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var value int
		err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &value)
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt((value >> shift) & 0xff), nil
	}
}

// parenEval does compile-time $(...) evaluations.
// Numeric equates and the labels defined so far are visible, along with
// hi() and lo() to split an address.
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{
		"hi": starlark.NewBuiltin("hi", starByte(8)),
		"lo": starlark.NewBuiltin("lo", starByte(0)),
	}
	for key, addr := range asm.Label {
		if isLabel(key) && !strings.Contains(key, ".") {
			pred[key] = starlark.MakeInt(addr)
		}
	}
	for key, str := range asm.Equate {
		var v int
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

var (
	reChar  = regexp.MustCompile(`'\\?[^']'`)
	reParen = regexp.MustCompile(`\$\([^\$]*\)`)
)

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations, through the display character map.
	line = reChar.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
		}
		code, ok := gpu.Code([]rune(str)[0])
		if !ok {
			err = ErrParseCharacter(str)
			return word
		}
		return fmt.Sprintf("%v", code)
	})
	if err != nil {
		return
	}

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !isLabel(label) {
			err = ErrInstructionInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.addr
		if asm.Verbose {
			log.Printf("asm: %v = 0x%04X", label, asm.addr)
		}
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansion++
		local := fmt.Sprintf("%v_%v_", name, asm.expansion)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.addr = 0
	asm.expansion = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, text)
		}

		text_comment := strings.SplitN(text, ";", 2)
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of address labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		for _, link := range op.Links {
			addr, ok := asm.Label[link.Label]
			if !ok {
				lineno = op.LineNo
				line = strings.Join(op.Words, " ")
				err = ErrLabelMissing(link.Label)
				return
			}
			op.Bytes[link.Offset] = internal.HighByte(uint16(addr))
			op.Bytes[link.Offset+1] = internal.LowByte(uint16(addr))
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
		Labels:  maps.Clone(asm.Label),
	}

	return
}

// encode assembles one instruction. Address operands may be given as two
// byte values, or all as single words: a number or a label.
func (asm *Assembler) encode(op cpu.Opcode, args []string) (code []byte, links []Link, err error) {
	info, ok := op.Info()
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	pairs := 0
	for _, kind := range info.Args {
		if kind == cpu.ARG_ADDR_HI {
			pairs++
		}
	}
	need := len(info.Args)
	if info.Immediate {
		need++
	}

	wide := false
	switch {
	case len(args) == need:
	case pairs > 0 && len(args) == need-pairs:
		wide = true
	case len(args) < need:
		err = ErrOpcodeValueMissing
		return
	default:
		err = ErrOpcodeExtraArgs
		return
	}

	code = []byte{byte(op)}
	for n := 0; n < len(info.Args); n++ {
		word := args[0]
		args = args[1:]

		var value byte
		switch info.Args[n] {
		case cpu.ARG_REG:
			value, err = asm.registerOf(word)
		case cpu.ARG_CMP:
			value, err = asm.compareOf(word)
		case cpu.ARG_ADDR_HI:
			if !wide {
				value, err = asm.byteOf(word)
				break
			}
			var addr uint16
			if isLabel(word) {
				links = append(links, Link{Offset: len(code), Label: word})
			} else {
				addr, err = asm.wordOf(word)
				if err != nil {
					return
				}
			}
			code = append(code, internal.HighByte(addr), internal.LowByte(addr))
			n++
			continue
		default:
			value, err = asm.byteOf(word)
		}
		if err != nil {
			return
		}
		code = append(code, value)
	}

	if info.Immediate {
		var value byte
		value, err = asm.byteOf(args[0])
		if err != nil {
			return
		}
		code = append(code, value)
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var code []byte
	var links []Link

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || len(code) == 0 {
			return
		}
		if asm.addr+len(code) > memory.MAIN_SIZE {
			err = ErrProgramSize
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.addr, Words: initial_words, Bytes: code, Links: links}
		asm.Opcode = append(asm.Opcode, opcode)
		asm.addr += len(code)
	}()

	name := strings.ToLower(words[0])
	args := words[1:]

	alias, ok := aliasMap[name]
	if ok {
		name = alias
	}

	switch name {
	case ".org":
		if len(args) != 1 {
			err = ErrOrgSyntax
			return
		}
		var addr int
		addr, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if addr > memory.MAIN_SIZE {
			err = ErrProgramSize
			return
		}
		if addr < asm.addr {
			err = ErrOrgBackwards
			return
		}
		asm.addr = addr
	case ".byte":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range args {
			var value byte
			value, err = asm.byteOf(word)
			if err != nil {
				return
			}
			code = append(code, value)
		}
	case "jump":
		// jump IDX ADDR => lbl IDX ADDR ; jmp IDX
		if len(args) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		var jmp []byte
		code, links, err = asm.encode(cpu.OP_LBL, args)
		if err != nil {
			return
		}
		jmp, _, err = asm.encode(cpu.OP_JMP, args[:1])
		code = append(code, jmp...)
	case "branch":
		// branch IDX CMP ADDR => lbl IDX ADDR ; jif IDX CMP
		if len(args) < 3 {
			err = ErrOpcodeValueMissing
			return
		}
		var jif []byte
		code, links, err = asm.encode(cpu.OP_LBL, append([]string{args[0]}, args[2:]...))
		if err != nil {
			return
		}
		jif, _, err = asm.encode(cpu.OP_JIF, args[:2])
		code = append(code, jif...)
	default:
		op, ok := cpu.LookupOpcode(name)
		if !ok {
			err = ErrInstructionInvalid
			return
		}
		code, links, err = asm.encode(op, args)
	}

	return
}
