// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/TheSunCat/Celsior/asm"
	"github.com/TheSunCat/Celsior/cpu"
	"github.com/TheSunCat/Celsior/emulator"
)

func main() {
	var compile string
	var input string
	var output string
	var cycles int
	var hz int
	var verbose bool
	var debug bool
	var listing bool
	var pngFile string
	var scale int
	var graphics bool
	var interactive bool

	flag.StringVar(&compile, "c", "", ".casm file to compile")
	flag.StringVar(&input, "i", "", "Program image to load")
	flag.StringVar(&output, "o", "", "Save compiled image, do not execute")
	flag.IntVar(&cycles, "n", 0, "Cycle limit, 0 runs until halted")
	flag.IntVar(&hz, "hz", 0, "Cycles per second, 0 runs unpaced")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&debug, "d", false, "Print a CPU snapshot after every cycle")
	flag.BoolVar(&listing, "l", false, "Print a disassembly listing before running")
	flag.StringVar(&pngFile, "png", "", "Write the final frame as a PNG")
	flag.IntVar(&scale, "scale", 4, "Pixel scale of the PNG frame")
	flag.BoolVar(&graphics, "graphics", false, "Present pixels instead of text")
	flag.BoolVar(&interactive, "t", false, "Interactive terminal")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if (len(compile) == 0) == (len(input) == 0) {
		log.Fatalf("%v: exactly one of -c or -i is required", os.Args[0])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	var length int

	// Compile a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		assembler := &asm.Assembler{Verbose: verbose}
		assembler.PredefineAll(emu.Defines())
		prog, err := assembler.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if len(output) != 0 {
			err = os.WriteFile(output, prog.Image(), 0o644)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			return
		}

		err = emu.LoadProgram(prog)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		length = len(prog.Binary())
	} else {
		data, err := os.ReadFile(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}

		length, err = asm.ImageLength(data)
		if err != nil {
			// Headerless image: everything past the reserved bytes.
			length = max(len(data)-16, 0)
		}

		err = emu.Load(data)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
	}

	if listing {
		printListing(emu, length)
	}

	emu.Gpu.GraphicsMode = graphics

	if debug {
		emu.Debug = true
		emu.OnSnapshot = func(snap cpu.Snapshot) {
			fmt.Fprintf(os.Stderr, "%v\n\n", snap)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if interactive {
		err = runTerminal(ctx, emu, hz, cycles)
	} else {
		err = run(ctx, emu, hz, cycles, nil, nil)
		if !graphics {
			for _, row := range emu.TextRows() {
				fmt.Println(row)
			}
		}
	}

	if len(pngFile) != 0 {
		werr := writePNG(pngFile, emu.Frame(scale))
		if werr != nil {
			log.Fatalf("%v: %v", pngFile, werr)
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, cpu.ErrNop):
		// End of program.
		if verbose {
			log.Printf("%v", err)
		}
	case errors.Is(err, context.Canceled):
	default:
		log.Fatal(err)
	}
}

// printListing disassembles the loaded program.
func printListing(emu *emulator.Emulator, length int) {
	for _, inst := range emu.Disassemble(0, length) {
		if inst.Addr >= length {
			break
		}
		lineno := emu.Program.LineNo(inst.Addr)
		if lineno != 0 {
			fmt.Printf("%04X  %-24v ; line %d\n", inst.Addr, inst, lineno)
		} else {
			fmt.Printf("%04X  %v\n", inst.Addr, inst)
		}
	}
}

// run executes up to cycles cycles. When hz is positive the cycles are
// issued in bursts of hz/FRAME_RATE, one burst per frame, with frame
// called after each burst. No cycles run while paused is set.
func run(ctx context.Context, emu *emulator.Emulator, hz int, cycles int, paused *atomic.Bool, frame func()) (err error) {
	if hz <= 0 {
		_, err = emu.Run(ctx, cycles)
		if frame != nil {
			frame()
		}
		return
	}

	burst := max(hz/emulator.FRAME_RATE, 1)
	ticker := time.NewTicker(time.Second / emulator.FRAME_RATE)
	defer ticker.Stop()

	total := 0
	for cycles <= 0 || total < cycles {
		count := burst
		if cycles > 0 {
			count = min(count, cycles-total)
		}

		if paused == nil || !paused.Load() {
			var ran int
			ran, err = emu.Run(ctx, count)
			total += ran
		}
		if frame != nil {
			frame()
		}
		if err != nil {
			return
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-ticker.C:
		}
	}

	return
}

// writePNG saves a frame.
func writePNG(path string, frame image.Image) (err error) {
	ouf, err := os.Create(path)
	if err != nil {
		return
	}
	defer func() {
		cerr := ouf.Close()
		if err == nil {
			err = cerr
		}
	}()

	return png.Encode(ouf, frame)
}
