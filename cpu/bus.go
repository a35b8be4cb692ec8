package cpu

// Bus is the transient transfer state of the CPU: the 8-bit data bus,
// the 16-bit address bus, and the address bus register (ABR) used to
// compose an address one byte at a time.
//
// The transfers below are pure: each returns the new bus state.
type Bus struct {
	Data    byte
	Address uint16
	Abr     WideRegister
}

// Put drives a value onto the data bus.
func (bus Bus) Put(value byte) Bus {
	bus.Data = value
	return bus
}

// LatchHigh copies the data bus into the high byte of the ABR.
func (bus Bus) LatchHigh() Bus {
	bus.Abr.SetHigh(bus.Data)
	return bus
}

// LatchLow copies the data bus into the low byte of the ABR.
func (bus Bus) LatchLow() Bus {
	bus.Abr.SetLow(bus.Data)
	return bus
}

// Drive copies the ABR onto the address bus.
func (bus Bus) Drive() Bus {
	bus.Address = bus.Abr.Value
	return bus
}

// Decrement lowers the address bus by n, wrapping at 16 bits.
func (bus Bus) Decrement(n byte) Bus {
	bus.Address -= uint16(n)
	return bus
}

// Compose stages hi and lo through the data bus into the ABR,
// then drives the result onto the address bus.
func (bus Bus) Compose(hi, lo byte) Bus {
	return bus.Put(hi).LatchHigh().Put(lo).LatchLow().Drive()
}
