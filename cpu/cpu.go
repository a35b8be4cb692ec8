package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/TheSunCat/Celsior/alu"
	"github.com/TheSunCat/Celsior/internal"
	"github.com/TheSunCat/Celsior/memory"
)

const (
	VAR_BASE = 0xFFFF // Variable slot 0; slot n is VAR_BASE - n.
)

var _cpu_defines = map[string]string{
	"STACK_LIMIT": fmt.Sprintf("%d", STACK_LIMIT),
	"VAR_BASE":    fmt.Sprintf("0x%X", VAR_BASE),
	"INPUT_LEFT":  fmt.Sprintf("%d", INPUT_LEFT),
	"INPUT_RIGHT": fmt.Sprintf("%d", INPUT_RIGHT),
	"INPUT_UP":    fmt.Sprintf("%d", INPUT_UP),
	"INPUT_DOWN":  fmt.Sprintf("%d", INPUT_DOWN),
	"INPUT_A":     fmt.Sprintf("%d", INPUT_A),
	"INPUT_D":     fmt.Sprintf("%d", INPUT_D),
	"INPUT_W":     fmt.Sprintf("%d", INPUT_W),
	"INPUT_S":     fmt.Sprintf("%d", INPUT_S),
}

// Display is the drawing surface driven by the GPU opcodes.
// Draw errors are reported to the CPU but never halt it.
type Display interface {
	DrawPixel(x, y, color byte) error
	DrawLine(x0, y0, x1, y1, color byte) error
	DrawChar(x, y, code byte) error
	ToggleMode()
}

// Cpu is the simulation context of the Celsior processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory  *memory.Memory // Main RAM.
	Header  [2]*memory.Memory
	Stack   Stack
	Alu     alu.Alu
	Display Display

	Register [8]Register // General purpose r0..r7.
	Input    Register    // Input button mask.
	Pc0      Register    // Program counter, high half.
	Pc1      Register    // Program counter, low half.
	Flags    Register    // Packed result of the last CMP.
	Scratch  Register    // Hidden register used by MTM.

	Bus Bus // Transient bus state.

	Pc int // Combined program counter.

	Halted bool  // Set by a fatal fault.
	Fault  error // The fault that halted the CPU.

	Ticks int // Instructions executed since reset.

	// Warn receives non-fatal faults. Defaults to logging them.
	Warn func(err error)
}

// NewCpu creates a reset CPU attached to a display. The display may be nil,
// in which case GPU opcodes are ignored.
func NewCpu(display Display) (cpu *Cpu) {
	cpu = &Cpu{
		Display: display,
	}

	cpu.Reset(true)

	return
}

// Defines for the cpu
func Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_cpu_defines), alu.Defines())
}

// Reset the CPU state.
//   - Registers, buses, ALU latches, and the program counter are cleared.
//   - If clearMemory is set, main RAM, the header tables, and the stack
//     are recreated.
//   - Clears a halt.
func (cpu *Cpu) Reset(clearMemory bool) {
	if cpu.Verbose {
		log.Printf("cpu: reset (clear memory %v)", clearMemory)
	}

	for n := range cpu.Register {
		cpu.Register[n] = Register{Id: n}
	}
	cpu.Pc0 = Register{Id: id_pc0}
	cpu.Pc1 = Register{Id: id_pc1}
	cpu.Flags = Register{Id: id_flags}
	cpu.Scratch = Register{Id: id_scratch}
	cpu.Input = Register{Id: id_input}
	cpu.Bus = Bus{Abr: WideRegister{Id: id_abr}}
	cpu.Alu.Reset()

	cpu.Pc = 0
	cpu.Ticks = 0
	cpu.Halted = false
	cpu.Fault = nil

	if clearMemory || cpu.Memory == nil {
		cpu.Memory = memory.New(memory.MAIN_SIZE)
		cpu.Header[0] = memory.New(memory.HEADER_SIZE)
		cpu.Header[1] = memory.New(memory.HEADER_SIZE)
		cpu.Stack.Reset()
	}
}

// SetInput latches the input button mask.
func (cpu *Cpu) SetInput(mask byte) {
	cpu.Input.Value = mask
}

// Load a program image into main memory.
func (cpu *Cpu) Load(image []byte) (err error) {
	return cpu.Memory.LoadImage(image)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	return cpu.Snapshot().String()
}

// Step executes a single instruction cycle: fetch, decode, execute.
// A fatal fault halts the CPU and is returned as an *ErrFault; once
// halted every Step fails with ErrHalted until Reset.
func (cpu *Cpu) Step() (err error) {
	if cpu.Halted {
		err = errors.Join(ErrHalted, cpu.Fault)
		return
	}

	start := cpu.Pc
	op, err := cpu.fetch()
	if err != nil {
		err = cpu.abort(start, OP_NOP, err)
		return
	}

	inst, err := Decode(op, cpu.fetch)
	inst.Addr = start
	if err == nil {
		if cpu.Verbose {
			log.Printf("cpu: %04x: %v", start, inst)
		}
		err = cpu.Execute(inst)
	}
	if err != nil {
		err = cpu.abort(start, inst.Opcode, err)
		return
	}

	cpu.Ticks++

	return
}

// abort halts the CPU.
func (cpu *Cpu) abort(pc int, op Opcode, err error) error {
	fault := &ErrFault{Pc: pc, Opcode: op, Err: err}
	cpu.Halted = true
	cpu.Fault = fault

	if cpu.Verbose {
		log.Printf("cpu: [ERROR] %v", fault)
	}

	return fault
}

// warn reports a non-fatal fault.
func (cpu *Cpu) warn(err error) {
	if cpu.Warn != nil {
		cpu.Warn(err)
		return
	}
	log.Printf("cpu: %v at 0x%04X", err, cpu.Pc)
}

// fetch reads the byte at the program counter and advances it.
func (cpu *Cpu) fetch() (value byte, err error) {
	value, err = cpu.Memory.Read(cpu.Pc)
	if err != nil {
		return
	}
	cpu.advance()
	return
}

// Micro-operations. Each moves one value across a bus.

// advance the program counter.
func (cpu *Cpu) advance() {
	cpu.Pc++
}

// pcToAddress copies the program counter onto the address bus.
func (cpu *Cpu) pcToAddress() (err error) {
	if cpu.Pc < 0 || cpu.Pc >= cpu.Memory.Len() {
		err = memory.ErrAddress{Addr: cpu.Pc, Size: cpu.Memory.Len()}
		return
	}
	cpu.Bus.Address = uint16(cpu.Pc)
	return
}

// addressToPc copies the address bus into the program counter,
// latching both halves.
func (cpu *Cpu) addressToPc() {
	cpu.Pc = int(cpu.Bus.Address)
	cpu.Pc0.Value = internal.HighByte(cpu.Bus.Address)
	cpu.Pc1.Value = internal.LowByte(cpu.Bus.Address)
}

// memoryEnable drives the byte at the address bus onto the data bus.
func (cpu *Cpu) memoryEnable() (err error) {
	value, err := cpu.Memory.Read(int(cpu.Bus.Address))
	if err != nil {
		return
	}
	cpu.Bus.Data = value
	return
}

// memoryWrite stores the data bus at the address bus.
func (cpu *Cpu) memoryWrite() (err error) {
	return cpu.Memory.Write(int(cpu.Bus.Address), cpu.Bus.Data)
}

// headerWrite records the address bus in the header tables at index data bus.
func (cpu *Cpu) headerWrite() (err error) {
	index := int(cpu.Bus.Data)
	err = cpu.Header[0].Write(index, internal.HighByte(cpu.Bus.Address))
	if err != nil {
		return
	}
	return cpu.Header[1].Write(index, internal.LowByte(cpu.Bus.Address))
}

// headerRead loads the ABR from the header tables at index data bus.
func (cpu *Cpu) headerRead() (err error) {
	index := int(cpu.Bus.Data)
	hi, err := cpu.Header[0].Read(index)
	if err != nil {
		return
	}
	lo, err := cpu.Header[1].Read(index)
	if err != nil {
		return
	}
	cpu.Bus.Abr.Value = internal.Word(hi, lo)
	return
}

func (cpu *Cpu) aluLatchA() { cpu.Alu.A = cpu.Bus.Data }
func (cpu *Cpu) aluLatchB() { cpu.Alu.B = cpu.Bus.Data }
func (cpu *Cpu) aluOut()    { cpu.Bus.Data = cpu.Alu.Out }

func (cpu *Cpu) flagsEnable()   { cpu.Bus.Data = cpu.Flags.Value }
func (cpu *Cpu) flagsWrite()    { cpu.Flags.Value = cpu.Bus.Data }
func (cpu *Cpu) scratchEnable() { cpu.Bus.Data = cpu.Scratch.Value }
func (cpu *Cpu) scratchWrite()  { cpu.Scratch.Value = cpu.Bus.Data }

// registerEnable drives register id onto the data bus.
// Reading the stack register pops.
func (cpu *Cpu) registerEnable(id byte) (err error) {
	switch {
	case id <= REG_R7:
		cpu.Bus.Data = cpu.Register[id].Value
	case id == REG_INPUT:
		cpu.Bus.Data = cpu.Input.Value
	case id == REG_STACK:
		var value byte
		value, err = cpu.Stack.Pop()
		if err != nil {
			return
		}
		cpu.Bus.Data = value
	default:
		err = ErrRegister{Id: id}
	}
	return
}

// registerWrite stores the data bus into register id.
// Writing the stack register pushes.
func (cpu *Cpu) registerWrite(id byte) (err error) {
	switch {
	case id <= REG_R7:
		cpu.Register[id].Value = cpu.Bus.Data
	case id == REG_STACK:
		err = cpu.Stack.Push(cpu.Bus.Data)
	default:
		err = ErrRegister{Id: id, Write: true}
	}
	return
}

// registerToAlu moves register id into ALU latch 0 (A) or 1 (B).
func (cpu *Cpu) registerToAlu(id byte, latch int) (err error) {
	err = cpu.registerEnable(id)
	if err != nil {
		return
	}
	switch latch {
	case 0:
		cpu.aluLatchA()
	case 1:
		cpu.aluLatchB()
	default:
		panic(fmt.Sprintf("copying to nonexistent ALU latch %d", latch))
	}
	return
}

// resolve reads each register id through the data bus.
func (cpu *Cpu) resolve(ids ...byte) (values []byte, err error) {
	values = make([]byte, len(ids))
	for n, id := range ids {
		err = cpu.registerEnable(id)
		if err != nil {
			return
		}
		values[n] = cpu.Bus.Data
	}
	return
}
