package memory

import (
	"errors"

	"github.com/TheSunCat/Celsior/translate"
)

var f = translate.From

var (
	ErrMemoryFault = errors.New(f("memory fault"))
	ErrImageShort  = errors.New(f("program image shorter than header"))
)

// ErrAddress reports an access outside of a memory.
type ErrAddress struct {
	Addr int // Address accessed.
	Size int // Size of the memory.
}

func (err ErrAddress) Error() string {
	return f("address 0x%04X out of range [0, 0x%04X)", err.Addr, err.Size)
}

func (err ErrAddress) Is(target error) bool {
	return target == ErrMemoryFault
}
