package cpu

import (
	"fmt"
	"strings"
)

// Snapshot is a read-only copy of the inspectable CPU state.
type Snapshot struct {
	Pc       int
	Pc0      byte
	Pc1      byte
	Register [8]byte
	Input    byte
	Flags    byte
	Scratch  byte
	Abr      uint16
	Address  uint16
	Data     byte
	AluA     byte
	AluB     byte
	AluOut   byte
	Stack    []byte // Bottom first.
	Ticks    int
	Halted   bool
}

// Snapshot copies the current CPU state.
func (cpu *Cpu) Snapshot() (snap Snapshot) {
	snap = Snapshot{
		Pc:      cpu.Pc,
		Pc0:     cpu.Pc0.Value,
		Pc1:     cpu.Pc1.Value,
		Input:   cpu.Input.Value,
		Flags:   cpu.Flags.Value,
		Scratch: cpu.Scratch.Value,
		Abr:     cpu.Bus.Abr.Value,
		Address: cpu.Bus.Address,
		Data:    cpu.Bus.Data,
		AluA:    cpu.Alu.A,
		AluB:    cpu.Alu.B,
		AluOut:  cpu.Alu.Out,
		Stack:   append([]byte(nil), cpu.Stack.Data...),
		Ticks:   cpu.Ticks,
		Halted:  cpu.Halted,
	}
	for n, reg := range cpu.Register {
		snap.Register[n] = reg.Value
	}
	return
}

func (snap Snapshot) String() (text string) {
	regs := []string{
		"pc",
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"input", "flags",
		"abr", "addr", "data",
		"alu",
		"stack",
	}

	var lines []string
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%04X (%02X:%02X)", snap.Pc, snap.Pc0, snap.Pc1)
			if snap.Halted {
				strval += " halted"
			}
		case "r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7":
			strval = fmt.Sprintf("%02X", snap.Register[reg[1]-'0'])
		case "input":
			strval = fmt.Sprintf("%08b", snap.Input)
		case "flags":
			var set []string
			for n, name := range CmpName {
				if snap.Flags&(1<<n) != 0 {
					set = append(set, name)
				}
			}
			strval = fmt.Sprintf("%06b %s", snap.Flags, strings.Join(set, ","))
		case "abr":
			strval = fmt.Sprintf("%04X", snap.Abr)
		case "addr":
			strval = fmt.Sprintf("%04X", snap.Address)
		case "data":
			strval = fmt.Sprintf("%02X", snap.Data)
		case "alu":
			strval = fmt.Sprintf("%02X %02X -> %02X", snap.AluA, snap.AluB, snap.AluOut)
		case "stack":
			if len(snap.Stack) == 0 {
				strval = "--"
			} else {
				vals := make([]string, len(snap.Stack))
				for n, val := range snap.Stack {
					vals[n] = fmt.Sprintf("%02X", val)
				}
				strval = strings.Join(vals, " ")
			}
		}
		lines = append(lines, fmt.Sprintf("%6s: %s", reg, strval))
	}

	text = strings.Join(lines, "\n")
	return
}
