package gpu

// CharMap is the glyph of each character code. Codes past the end
// have no glyph.
const CharMap = " 1234567890" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"!?/\\.,:><()"

var charCodes = func() (codes map[rune]byte) {
	codes = make(map[rune]byte, len(CharMap))
	for n, r := range CharMap {
		codes[r] = byte(n)
	}
	return
}()

// Rune returns the glyph of a character code, or a space if it has none.
func Rune(code byte) (r rune, ok bool) {
	if int(code) >= len(CharMap) {
		return ' ', false
	}
	return rune(CharMap[code]), true
}

// Code returns the character code of a glyph.
func Code(r rune) (code byte, ok bool) {
	code, ok = charCodes[r]
	return
}
