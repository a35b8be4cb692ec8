package gpu

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	TEXT_CELL = 16 // Character cell size of the text canvas, in pixels.
)

// Color expands a packed RRRGGGBB pixel.
func Color(value byte) color.RGBA {
	red := int(value>>5) & 0x7
	green := int(value>>2) & 0x7
	blue := int(value) & 0x3
	return color.RGBA{
		R: uint8(red * 255 / 7),
		G: uint8(green * 255 / 7),
		B: uint8(blue * 255 / 3),
		A: 0xff,
	}
}

// Row returns the glyphs of character row n, read with a stride of
// CHAR_COLUMNS.
func (gpu *Gpu) Row(n int) string {
	var text strings.Builder
	cells := gpu.Memory.Bytes()[CHAR_START:]
	for _, code := range cells[n*CHAR_COLUMNS : (n+1)*CHAR_COLUMNS] {
		r, _ := Rune(code)
		text.WriteRune(r)
	}
	return text.String()
}

// TextRows returns the character grid as displayed, top row first.
// Row 0 is shown at the bottom of the screen.
func (gpu *Gpu) TextRows() (rows []string) {
	rows = make([]string, CHAR_ROWS)
	for n := range CHAR_ROWS {
		rows[CHAR_ROWS-1-n] = gpu.Row(n)
	}
	return
}

// canvas allocates a black image.
func canvas(width, height int) (img *image.RGBA) {
	img = image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return
}

// scaled returns src resized to the display size times scale.
func scaled(src *image.RGBA, scale int) (img *image.RGBA) {
	if scale < 1 {
		scale = 1
	}
	bounds := image.Rect(0, 0, WIDTH*scale, HEIGHT*scale)
	if src.Bounds() == bounds {
		return src
	}
	img = image.NewRGBA(bounds)
	draw.NearestNeighbor.Scale(img, bounds, src, src.Bounds(), draw.Src, nil)
	return
}

// RenderPixels draws the pixel grid, each pixel scale x scale.
func (gpu *Gpu) RenderPixels(scale int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, WIDTH, HEIGHT))
	pixels := gpu.Memory.Bytes()
	for y := range HEIGHT {
		for x := range WIDTH {
			img.SetRGBA(x, y, Color(pixels[y*WIDTH+x]))
		}
	}
	return scaled(img, scale)
}

// RenderText draws the character grid in white on black.
func (gpu *Gpu) RenderText(scale int) *image.RGBA {
	face := basicfont.Face7x13
	img := canvas(CHAR_COLUMNS*TEXT_CELL, CHAR_ROWS*TEXT_CELL)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
	}

	inset := (TEXT_CELL - face.Advance) / 2
	descent := face.Descent
	for n, row := range gpu.TextRows() {
		baseline := (n+1)*TEXT_CELL - descent
		for col, r := range row {
			drawer.Dot = fixed.P(col*TEXT_CELL+inset, baseline)
			drawer.DrawString(string(r))
		}
	}

	return scaled(img, scale)
}

// Render draws the framebuffer in the current display mode.
func (gpu *Gpu) Render(scale int) *image.RGBA {
	if gpu.GraphicsMode {
		return gpu.RenderPixels(scale)
	}
	return gpu.RenderText(scale)
}
