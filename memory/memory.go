// Package memory implements the byte addressed memories of the Celsior
// system: main RAM, the label header tables, and the GPU framebuffer.
package memory

const (
	MAIN_SIZE   = 65536 // Main RAM.
	HEADER_SIZE = 256   // Each of the two label header tables.
	IMAGE_SKIP  = 16    // Reserved header bytes at the start of a program image.
)

// Memory is a fixed size byte array.
type Memory struct {
	data []byte
}

// New creates a zeroed memory of size bytes.
func New(size int) (m *Memory) {
	m = &Memory{
		data: make([]byte, size),
	}
	return
}

// Len returns the size of the memory.
func (m *Memory) Len() int {
	return len(m.data)
}

func (m *Memory) check(addr int, count int) (err error) {
	if addr < 0 || addr+count > len(m.data) {
		bad := addr
		if addr >= 0 {
			bad = addr + count - 1
		}
		err = ErrAddress{Addr: bad, Size: len(m.data)}
	}
	return
}

// Read a byte.
func (m *Memory) Read(addr int) (value byte, err error) {
	err = m.check(addr, 1)
	if err != nil {
		return
	}

	value = m.data[addr]
	return
}

// Write a byte.
func (m *Memory) Write(addr int, value byte) (err error) {
	err = m.check(addr, 1)
	if err != nil {
		return
	}

	m.data[addr] = value
	return
}

// Load copies data into memory starting at offset.
// Nothing is copied if any byte would land out of range.
func (m *Memory) Load(offset int, data []byte) (err error) {
	err = m.check(offset, len(data))
	if err != nil {
		return
	}

	copy(m.data[offset:], data)
	return
}

// LoadImage copies a program image to address 0, skipping the
// IMAGE_SKIP reserved header bytes.
func (m *Memory) LoadImage(image []byte) (err error) {
	if len(image) < IMAGE_SKIP {
		err = ErrImageShort
		return
	}

	return m.Load(0, image[IMAGE_SKIP:])
}

// Slice returns a copy of the bytes in [from, to).
func (m *Memory) Slice(from, to int) (data []byte, err error) {
	if to < from {
		to = from
	}
	err = m.check(from, to-from)
	if err != nil {
		return
	}

	data = make([]byte, to-from)
	copy(data, m.data[from:to])
	return
}

// Bytes exposes the backing array for presentation. Callers must not
// retain it across a reset.
func (m *Memory) Bytes() []byte {
	return m.data
}

// Clear zeros the memory.
func (m *Memory) Clear() {
	clear(m.data)
}
