package cpu

const (
	STACK_LIMIT = 8 // Maximum stack depth
)

// Stack is the hardware byte stack. Data[0] is the bottom.
type Stack struct {
	Data []byte
}

// Push a value, failing with ErrStackOverflow when full.
func (s *Stack) Push(value byte) (err error) {
	if s.Full() {
		err = ErrStackOverflow
		return
	}
	s.Data = append(s.Data, value)
	return
}

// Pop a value, failing with ErrStackUnderflow when empty.
func (s *Stack) Pop() (value byte, err error) {
	if s.Empty() {
		err = ErrStackUnderflow
		return
	}

	value = s.Data[len(s.Data)-1]
	s.Data = s.Data[:len(s.Data)-1]
	return
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) >= STACK_LIMIT
}

// Pointer returns the index of the top entry, -1 when empty.
func (s *Stack) Pointer() int {
	return len(s.Data) - 1
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
