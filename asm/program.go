package asm

import (
	"encoding/binary"
	"iter"

	"github.com/TheSunCat/Celsior/memory"
)

const (
	IMAGE_MAGIC   = "CASM"
	IMAGE_VERSION = 1
)

// Link is an address operand resolved once every label is known.
type Link struct {
	Offset int    // Offset of the high byte in Bytes.
	Label  string // Label supplying the address.
}

// Opcode is the assembled form of one source line.
type Opcode struct {
	LineNo int      // Source line number.
	Addr   int      // Address of the first byte.
	Words  []string // Source words, after equate expansion.
	Bytes  []byte   // Encoded bytes.
	Links  []Link   // Label references within Bytes.
}

// Program is an assembled program.
type Program struct {
	Opcodes []Opcode
	Labels  map[string]int // Label addresses.
}

// Debug locates an address within the source.
type Debug struct {
	*Opcode
	Index int // Offset of the address within the opcode.
}

// Debug returns the opcode containing addr, if any.
// A nil program has no debug information.
func (prog *Program) Debug(addr int) (dbg Debug) {
	if prog == nil {
		return
	}

	for n, op := range prog.Opcodes {
		if addr >= op.Addr && addr < op.Addr+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  addr - op.Addr,
			}
			break
		}
	}

	return
}

// LineNo returns the source line of addr, or 0 if unknown.
func (prog *Program) LineNo(addr int) int {
	dbg := prog.Debug(addr)
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// Bytes yields each assembled byte with its address.
func (prog *Program) Bytes() iter.Seq2[int, byte] {
	return func(yield func(addr int, value byte) bool) {
		for _, op := range prog.Opcodes {
			for n, value := range op.Bytes {
				if !yield(op.Addr+n, value) {
					return
				}
			}
		}
	}
}

// Binary returns the memory contents from address 0, gaps zero filled.
func (prog *Program) Binary() (data []byte) {
	size := 0
	for _, op := range prog.Opcodes {
		size = max(size, op.Addr+len(op.Bytes))
	}

	data = make([]byte, size)
	for addr, value := range prog.Bytes() {
		data[addr] = value
	}

	return
}

// Image returns the loadable program image: a header of
// memory.IMAGE_SKIP bytes followed by the binary.
//
// The header holds the magic, the version, and the big endian length
// of the binary; the remainder is zero.
func (prog *Program) Image() (image []byte) {
	data := prog.Binary()

	image = make([]byte, memory.IMAGE_SKIP, memory.IMAGE_SKIP+len(data))
	copy(image, IMAGE_MAGIC)
	image[4] = IMAGE_VERSION
	binary.BigEndian.PutUint32(image[8:12], uint32(len(data)))
	image = append(image, data...)

	return
}

// ImageLength returns the binary length recorded in an image header.
func ImageLength(image []byte) (length int, err error) {
	if len(image) < memory.IMAGE_SKIP || string(image[:4]) != IMAGE_MAGIC {
		err = ErrImageHeader
		return
	}

	length = int(binary.BigEndian.Uint32(image[8:12]))
	if length > len(image)-memory.IMAGE_SKIP {
		err = ErrImageHeader
		return
	}

	return
}
