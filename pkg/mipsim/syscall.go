package mipsim

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/raymyers/minicc/pkg/asm"
	"github.com/raymyers/minicc/pkg/rtl"
)

// syscall performs the service selected by $v0
func (m *Machine) syscall() error {
	a0 := m.Regs[rtl.A0]
	switch code := m.Regs[rtl.V0]; code {
	case asm.SysPrintInt:
		_, err := fmt.Fprint(m.out, a0)
		return err

	case asm.SysPrintString:
		s, err := m.mem.cstring(uint32(a0))
		if err != nil {
			return err
		}
		_, err = io.WriteString(m.out, s)
		return err

	case asm.SysReadInt:
		n, err := m.readInt()
		if err != nil {
			return err
		}
		m.Regs[rtl.V0] = n
		return nil

	case asm.SysExit:
		m.Exited = true
		return nil

	case asm.SysPrintChar:
		_, err := m.out.Write([]byte{byte(a0)})
		return err

	case asm.SysReadChar:
		b, err := m.in.ReadByte()
		switch {
		case errors.Is(err, io.EOF):
			m.Regs[rtl.V0] = -1
		case err != nil:
			return err
		default:
			m.Regs[rtl.V0] = int32(b)
		}
		return nil

	default:
		return fmt.Errorf("unsupported syscall %d", code)
	}
}

// readInt consumes one line of input and parses it as a decimal integer.
// End of input reads as 0.
func (m *Machine) readInt() (int32, error) {
	line, err := m.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(line, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("read_i: invalid integer %q", line)
	}
	return int32(n), nil
}
