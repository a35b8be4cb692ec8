package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzCpu(f *testing.F) {
	f.Add([]byte{byte(OP_MOV), 0, 1, byte(OP_PUSH), 0}, byte(0))
	f.Add([]byte{byte(OP_LBL), 0, 0, 0, byte(OP_JMP), 0}, byte(0xff))
	f.Add([]byte{byte(OP_CMP), 8, 10, byte(OP_JIF), 1, 3}, byte(0x0f))
	f.Add([]byte{byte(OP_LINE), 0, 1, 2, 3, 4, byte(OP_PRT), 5, 6, 7}, byte(0x80))

	f.Fuzz(func(t *testing.T, data []byte, input byte) {
		assert := assert.New(t)

		if len(data) > 1024 {
			data = data[:1024]
		}

		display := &testDisplay{fault: errors.New("off screen")}
		cpu := NewCpu(display)
		cpu.Warn = func(err error) {}
		cpu.SetInput(input)
		assert.NoError(cpu.Memory.Load(0, data))

		for range 256 {
			err := cpu.Step()

			assert.LessOrEqual(len(cpu.Stack.Data), STACK_LIMIT)
			assert.Zero(cpu.Flags.Value & 0xc0)
			assert.Equal(input, cpu.Input.Value)

			if err != nil {
				var fault *ErrFault
				assert.True(errors.As(err, &fault), "%v", err)
				assert.True(cpu.Halted)
				assert.ErrorIs(cpu.Step(), ErrHalted)
				break
			}
			assert.False(cpu.Halted)
		}
	})
}
