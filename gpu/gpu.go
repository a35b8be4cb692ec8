// Package gpu implements the Celsior memory mapped display.
//
// The framebuffer holds a 128x72 grid of packed RGB pixels followed by
// a 16x9 grid of character codes.
package gpu

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/TheSunCat/Celsior/memory"
)

const (
	WIDTH            = 128
	HEIGHT           = 72
	CHAR_COLUMNS     = 16
	CHAR_ROWS        = 9
	CHAR_START       = WIDTH * HEIGHT                      // First byte of the character grid.
	FRAMEBUFFER_SIZE = CHAR_START + CHAR_COLUMNS*CHAR_ROWS // Pixels plus characters.
)

var _gpu_defines = map[string]string{
	"GPU_WIDTH":        fmt.Sprintf("%d", WIDTH),
	"GPU_HEIGHT":       fmt.Sprintf("%d", HEIGHT),
	"GPU_CHAR_COLUMNS": fmt.Sprintf("%d", CHAR_COLUMNS),
	"GPU_CHAR_ROWS":    fmt.Sprintf("%d", CHAR_ROWS),
}

// Defines for the display geometry.
func Defines() iter.Seq2[string, string] {
	return maps.All(_gpu_defines)
}

// Gpu owns the framebuffer and the drawing primitives.
type Gpu struct {
	Verbose bool

	Memory       *memory.Memory // Framebuffer.
	GraphicsMode bool           // Present pixels instead of text.
}

// NewGpu creates a cleared display in text mode.
func NewGpu() (gpu *Gpu) {
	gpu = &Gpu{}
	gpu.Reset()
	return
}

// Reset clears the framebuffer and returns to text mode.
func (gpu *Gpu) Reset() {
	gpu.Memory = memory.New(FRAMEBUFFER_SIZE)
	gpu.GraphicsMode = false
}

// DrawPixel stores color at (x, y). Out of range coordinates are
// skipped and reported.
func (gpu *Gpu) DrawPixel(x, y, color byte) (err error) {
	return gpu.pixel(int(x), int(y), color)
}

func (gpu *Gpu) pixel(x, y int, color byte) (err error) {
	if x < 0 || x >= WIDTH || y < 0 || y >= HEIGHT {
		err = ErrCoordinate{X: x, Y: y}
		if gpu.Verbose {
			log.Printf("gpu: %v", err)
		}
		return
	}

	return gpu.Memory.Write(y*WIDTH+x, color)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// DrawLine scan converts the line from (x0, y0) to (x1, y1) inclusive.
// The axis with the larger delta drives the loop, with ties going to x.
// Pixels falling off the framebuffer are skipped; the first such pixel
// is reported.
func (gpu *Gpu) DrawLine(x0, y0, x1, y1, color byte) (err error) {
	x, y := int(x0), int(y0)
	width := int(x1) - x
	height := int(y1) - y

	// Diagonal step, taken when the numerator overflows.
	dx1, dy1 := sign(width), sign(height)
	// Straight step along the driving axis.
	dx2, dy2 := dx1, 0

	longest, shortest := abs(width), abs(height)
	if longest < shortest {
		longest, shortest = shortest, longest
		dx2, dy2 = 0, dy1
	}

	numerator := longest >> 1
	for range longest + 1 {
		perr := gpu.pixel(x, y, color)
		if err == nil {
			err = perr
		}

		numerator += shortest
		if numerator >= longest {
			numerator -= longest
			x += dx1
			y += dy1
		} else {
			x += dx2
			y += dy2
		}
	}

	return
}

// DrawChar stores a character code in the character grid. The cell
// address uses the pixel row stride, so only the first rows of the
// grid are reachable from y.
func (gpu *Gpu) DrawChar(x, y, code byte) (err error) {
	addr := CHAR_START + int(y)*WIDTH + int(x)
	err = gpu.Memory.Write(addr, code)
	if err != nil {
		err = ErrCoordinate{X: int(x), Y: int(y), Char: true}
		if gpu.Verbose {
			log.Printf("gpu: %v", err)
		}
	}
	return
}

// ToggleMode is reserved. The display mode is not changed.
func (gpu *Gpu) ToggleMode() {
	if gpu.Verbose {
		log.Printf("gpu: mode toggle ignored")
	}
}

// Tick is called once per presented frame. It has no effect.
func (gpu *Gpu) Tick() {
}
