// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/TheSunCat/Celsior/cpu"
	"github.com/TheSunCat/Celsior/emulator"
	"github.com/TheSunCat/Celsior/gpu"
)

// Terminals report presses only, so a button is held until no repeat
// arrives for KEY_HOLD.
const KEY_HOLD = 150 * time.Millisecond

var ErrNotTerminal = errors.New("stdin is not a terminal")

// errQuit ends an interactive session.
var errQuit = errors.New("quit")

// key is a decoded keypress.
type key struct {
	Bit   int // Input bit, -1 if none.
	Quit  bool
	Pause bool // Toggle pause.
	Step  bool // Single step while paused.
}

// keyDecoder turns terminal bytes into keys, following ANSI cursor
// and function key escapes across reads.
type keyDecoder struct {
	state int
	param int // Numeric parameter of a CSI escape.
}

// Decode consumes one byte, returning ok when it completes a key.
func (dec *keyDecoder) Decode(b byte) (k key, ok bool) {
	k.Bit = -1

	switch dec.state {
	case 1:
		if b == '[' || b == 'O' {
			dec.state = 2
			dec.param = 0
			return
		}
		dec.state = 0
	case 2:
		if b >= '0' && b <= '9' {
			dec.param = dec.param*10 + int(b-'0')
			return
		}
		dec.state = 0
		switch b {
		case 'A':
			k.Bit = cpu.INPUT_UP
		case 'B':
			k.Bit = cpu.INPUT_DOWN
		case 'C':
			k.Bit = cpu.INPUT_RIGHT
		case 'D':
			k.Bit = cpu.INPUT_LEFT
		case '~':
			switch dec.param {
			case 15: // F5
				k.Pause = true
			case 19: // F8
				k.Step = true
			default:
				return
			}
		default:
			return
		}
		ok = true
		return
	}

	switch b {
	case 0x1b:
		dec.state = 1
		return
	case 'w', 'W':
		k.Bit = cpu.INPUT_W
	case 'a', 'A':
		k.Bit = cpu.INPUT_A
	case 's', 'S':
		k.Bit = cpu.INPUT_S
	case 'd', 'D':
		k.Bit = cpu.INPUT_D
	case 'p', 'P':
		k.Pause = true
	case '.':
		k.Step = true
	case 'q', 'Q', 0x03:
		k.Quit = true
	default:
		return
	}

	ok = true
	return
}

// buttons tracks held input bits and their release deadlines.
type buttons struct {
	deadline [8]time.Time
}

// Press holds bit until now+KEY_HOLD.
func (btn *buttons) Press(bit int, now time.Time) {
	btn.deadline[bit] = now.Add(KEY_HOLD)
}

// Mask returns the input register value at now.
func (btn *buttons) Mask(now time.Time) byte {
	held := func(bit int) bool {
		return now.Before(btn.deadline[bit])
	}

	return cpu.InputMask(
		held(cpu.INPUT_LEFT), held(cpu.INPUT_RIGHT),
		held(cpu.INPUT_UP), held(cpu.INPUT_DOWN),
		held(cpu.INPUT_A), held(cpu.INPUT_D),
		held(cpu.INPUT_W), held(cpu.INPUT_S),
	)
}

// readKeys forwards raw reads to keys until the reader fails.
// A pending read is abandoned at exit.
func readKeys(ctx context.Context, reader io.Reader, keys chan<- []byte) {
	buf := make([]byte, 64)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			select {
			case keys <- append([]byte(nil), buf[:n]...):
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// pollKeys feeds the emulator input register until quit or ctx ends.
// Pause and step keys drive paused.
func pollKeys(ctx context.Context, emu *emulator.Emulator, keys <-chan []byte, paused *atomic.Bool) (err error) {
	var dec keyDecoder
	var btn buttons
	var mask byte

	ticker := time.NewTicker(KEY_HOLD / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-keys:
			now := time.Now()
			for _, b := range data {
				k, ok := dec.Decode(b)
				if !ok {
					continue
				}
				switch {
				case k.Quit:
					return errQuit
				case k.Pause:
					paused.Store(!paused.Load())
				case k.Step:
					if paused.Load() {
						// A fault stays latched in the CPU for the run loop.
						_, _ = emu.Tick()
					}
				default:
					btn.Press(k.Bit, now)
				}
			}
		case <-ticker.C:
		}

		update := btn.Mask(time.Now())
		if update != mask {
			mask = update
			emu.SetInput(mask)
		}
	}
}

// screen renders the display as terminal text.
func screen(emu *emulator.Emulator, paused bool) string {
	var sb strings.Builder

	sb.WriteString("\x1b[H")
	if emu.Gpu.GraphicsMode {
		// Two pixel rows per line, using the upper half block.
		frame := emu.Frame(1)
		for y := 0; y < gpu.HEIGHT; y += 2 {
			for x := range gpu.WIDTH {
				top := frame.RGBAAt(x, y)
				bottom := frame.RGBAAt(x, y+1)
				fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
					top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
			}
			sb.WriteString("\x1b[0m\r\n")
		}
	} else {
		border := "+" + strings.Repeat("-", gpu.CHAR_COLUMNS) + "+\r\n"
		sb.WriteString(border)
		for _, row := range emu.TextRows() {
			sb.WriteString("|" + row + "|\r\n")
		}
		sb.WriteString(border)
	}

	snap := emu.Snapshot()
	status := "running"
	switch {
	case snap.Halted:
		status = "halted"
	case paused:
		status = "paused"
	}
	fmt.Fprintf(&sb, "pc 0x%04X %-7s wasd/arrows, p pause, . step, q quit\x1b[K\r\n", snap.Pc, status)

	return sb.String()
}

// runTerminal runs the emulator interactively on the controlling terminal.
func runTerminal(ctx context.Context, emu *emulator.Emulator, hz int, cycles int) (err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ErrNotTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, state)

	fmt.Fprint(os.Stdout, "\x1b[2J\x1b[?25l")
	defer fmt.Fprint(os.Stdout, "\x1b[?25h")

	group, ctx := errgroup.WithContext(ctx)
	keys := make(chan []byte)

	go readKeys(ctx, os.Stdin, keys)

	var paused atomic.Bool
	group.Go(func() error {
		return pollKeys(ctx, emu, keys, &paused)
	})

	var halt error
	group.Go(func() error {
		// The default unpaced run would starve the display.
		if hz <= 0 {
			hz = 1000 * emulator.FRAME_RATE
		}
		halt = run(ctx, emu, hz, cycles, &paused, func() {
			fmt.Fprint(os.Stdout, screen(emu, paused.Load()))
		})
		if errors.Is(halt, context.Canceled) {
			return halt
		}
		// Leave the final display up until quit.
		<-ctx.Done()
		return nil
	})

	err = group.Wait()
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		err = halt
	}

	return
}
