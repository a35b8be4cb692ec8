// Package cpu implements the Celsior 8-bit processor.
//
// The CPU has eight general-purpose registers (r0-r7), an input register,
// a flags register, a split program counter, an eight entry byte stack,
// and an ALU. Every instruction is executed as a sequence of transfers over
// an 8-bit data bus and a 16-bit address bus. Addresses are staged one byte
// at a time through the address bus register (ABR).
//
// Jump targets live in two 256 entry header tables, filled by LBL and read
// by JMP and JIF. GPU opcodes resolve their register operands and hand the
// values to a Display.
package cpu
