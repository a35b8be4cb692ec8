// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator ties the Celsior CPU and display together with the
// program being run.
package emulator

import (
	"context"
	"fmt"
	"image"
	"io"
	"iter"
	"log"
	"maps"
	"slices"
	"sync"

	"github.com/TheSunCat/Celsior/asm"
	"github.com/TheSunCat/Celsior/cpu"
	"github.com/TheSunCat/Celsior/gpu"
	"github.com/TheSunCat/Celsior/internal"
)

const (
	FRAME_RATE = 25 // Display refreshes per second.
)

var _emulator_defines = map[string]string{
	"FRAME_RATE": fmt.Sprintf("%v", FRAME_RATE),
}

var _ cpu.Display = (*gpu.Gpu)(nil)

// Emulator state. CPU + GPU + the loaded program.
//
// Every method is serialized, so input and loading may be driven from
// goroutines other than the one running cycles.
type Emulator struct {
	Verbose bool         // If set, enables verbose logging.
	Cpu     *cpu.Cpu     // Reference to the CPU simulation.
	Gpu     *gpu.Gpu     // Reference to the display.
	Program *asm.Program // Listing of the loaded program, possibly empty.

	Debug      bool               // If set, OnSnapshot is called after every cycle.
	OnSnapshot func(cpu.Snapshot) // Debug observer.

	mutex sync.Mutex
	image []byte // Image loaded by the last Load.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Gpu:     gpu.NewGpu(),
		Program: &asm.Program{},
	}

	emu.Cpu = cpu.NewCpu(emu.Gpu)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		cpu.Defines(),
		gpu.Defines(),
	)
}

func (emu *Emulator) reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Gpu.Verbose = emu.Verbose
	emu.Cpu.Reset(true)
	emu.Gpu.Reset()
}

// Reset clears the CPU, memories, and display. The program is kept for
// Restart.
func (emu *Emulator) Reset() {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.reset()
}

// Restart resets and reloads the last loaded image.
func (emu *Emulator) Restart() (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.reset()
	if emu.image == nil {
		return
	}

	return emu.Cpu.Load(emu.image)
}

// load resets the emulator and loads image with its listing.
func (emu *Emulator) load(image []byte, prog *asm.Program) (err error) {
	emu.reset()
	err = emu.Cpu.Load(image)
	if err != nil {
		return
	}

	emu.image = slices.Clone(image)
	emu.Program = prog

	if emu.Verbose {
		log.Printf("emulator: loaded %d byte image", len(image))
	}

	return
}

// Load resets the emulator and loads a program image.
// The listing is cleared.
func (emu *Emulator) Load(image []byte) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.load(image, &asm.Program{})
}

// LoadFrom loads a program image from a reader.
func (emu *Emulator) LoadFrom(reader io.Reader) (err error) {
	image, err := io.ReadAll(reader)
	if err != nil {
		return
	}

	return emu.Load(image)
}

// LoadProgram loads an assembled program, keeping its listing.
func (emu *Emulator) LoadProgram(prog *asm.Program) (err error) {
	image := prog.Image()

	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.load(image, prog)
}

// SetInput latches the input button mask, visible from the next cycle.
func (emu *Emulator) SetInput(mask byte) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.Cpu.SetInput(mask)
}

// lineNo returns the source line at the program counter.
func (emu *Emulator) lineNo() int {
	return emu.Program.LineNo(emu.Cpu.Pc)
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.lineNo()
}

// tick runs one cycle. A fault is returned as an *ErrRuntime.
func (emu *Emulator) tick() (halted bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose
	emu.Gpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	lineno := emu.lineNo()
	defer func() {
		if err != nil {
			halted = true
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Step()

	if emu.Debug && emu.OnSnapshot != nil {
		emu.OnSnapshot(emu.Cpu.Snapshot())
	}

	return
}

// Tick performs a single cycle of the emulator.
func (emu *Emulator) Tick() (halted bool, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.tick()
}

// Run performs up to cycles cycles, or runs until halted if cycles is
// not positive. It stops early on a fault or when ctx is done.
func (emu *Emulator) Run(ctx context.Context, cycles int) (ran int, err error) {
	for cycles <= 0 || ran < cycles {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		default:
		}

		var halted bool
		halted, err = emu.Tick()
		if halted {
			return
		}
		ran++
	}

	return
}

// Halted reports if the CPU needs a reset.
func (emu *Emulator) Halted() bool {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Cpu.Halted
}

// Snapshot returns the inspectable CPU state.
func (emu *Emulator) Snapshot() cpu.Snapshot {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Cpu.Snapshot()
}

// Disassemble lists count instructions from addr.
func (emu *Emulator) Disassemble(addr int, count int) []cpu.Instruction {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return cpu.Disassemble(emu.Cpu.Memory.Read, addr, count)
}

// Frame presents the display once.
func (emu *Emulator) Frame(scale int) *image.RGBA {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.Gpu.Tick()
	return emu.Gpu.Render(scale)
}

// TextRows returns the character grid as displayed.
func (emu *Emulator) TextRows() []string {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.Gpu.Tick()
	return emu.Gpu.TextRows()
}
