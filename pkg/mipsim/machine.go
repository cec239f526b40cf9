// Package mipsim executes MIPS32 assembly programs directly from their
// asm.Program form. It supports the instruction subset the compiler emits
// and the MARS system calls used by the runtime library.
package mipsim

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/raymyers/minicc/pkg/asm"
	"github.com/raymyers/minicc/pkg/rtl"
)

// DefaultMaxSteps bounds the number of executed instructions
const DefaultMaxSteps = 50_000_000

var (
	ErrStepLimit = errors.New("step limit exceeded")
	ErrMemory    = errors.New("bad memory access")
	ErrDivide    = errors.New("division by zero")
)

// Machine is a MIPS32 processor with its memory and I/O streams
type Machine struct {
	Regs     [32]int32
	HI, LO   int32
	PC       int // index into the flattened text
	Steps    int
	MaxSteps int
	Exited   bool

	code    []asm.Instruction
	labels  map[asm.Label]int
	symbols map[asm.Label]uint32
	mem     *memory
	in      *bufio.Reader
	out     io.Writer
}

// New loads prog. Execution starts at the entry stub with $sp at StackTop.
func New(prog *asm.Program, stdin io.Reader, stdout io.Writer) (*Machine, error) {
	m := &Machine{
		MaxSteps: DefaultMaxSteps,
		labels:   make(map[asm.Label]int),
		symbols:  make(map[asm.Label]uint32),
		in:       bufio.NewReader(stdin),
		out:      stdout,
	}

	for _, f := range prog.Functions {
		if err := m.defineLabel(asm.Label(f.Name), len(m.code)); err != nil {
			return nil, err
		}
		for _, inst := range f.Code {
			if l, ok := inst.(asm.LabelDef); ok {
				if err := m.defineLabel(l.Name, len(m.code)); err != nil {
					return nil, err
				}
				continue
			}
			m.code = append(m.code, inst)
		}
	}

	if err := m.loadData(prog.Globals); err != nil {
		return nil, err
	}

	entry, ok := m.labels[asm.EntryLabel]
	if !ok {
		return nil, fmt.Errorf("no %s label", asm.EntryLabel)
	}
	m.PC = entry
	m.Regs[rtl.SP] = int32(StackTop)
	m.Regs[rtl.GP] = int32(DataBase + 0x8000)
	return m, nil
}

func (m *Machine) defineLabel(name asm.Label, idx int) error {
	if _, dup := m.labels[name]; dup {
		return fmt.Errorf("duplicate label %s", name)
	}
	m.labels[name] = idx
	return nil
}

// loadData lays out the data section starting at DataBase
func (m *Machine) loadData(globals []asm.GlobVar) error {
	addr := DataBase
	offsets := make([]uint32, len(globals))
	for i, g := range globals {
		if g.Align > 1 {
			a := uint32(g.Align)
			addr = (addr + a - 1) / a * a
		}
		if _, dup := m.symbols[asm.Label(g.Name)]; dup {
			return fmt.Errorf("duplicate data label %s", g.Name)
		}
		m.symbols[asm.Label(g.Name)] = addr
		offsets[i] = addr - DataBase
		if g.IsString {
			addr += uint32(len(g.Str)) + 1
		} else {
			addr += uint32(g.Size)
		}
	}

	m.mem = newMemory(addr - DataBase)
	for i, g := range globals {
		if g.IsString {
			copy(m.mem.data[offsets[i]:], g.Str)
		}
	}
	return nil
}

// Symbol returns the address of a data label
func (m *Machine) Symbol(name string) (uint32, bool) {
	addr, ok := m.symbols[asm.Label(name)]
	return addr, ok
}

// LoadWord reads a word of simulated memory
func (m *Machine) LoadWord(addr uint32) (int32, error) {
	return m.mem.loadWord(addr)
}

// Run executes until the program exits, an error occurs, the step budget
// is exhausted or ctx is cancelled
func (m *Machine) Run(ctx context.Context) error {
	for !m.Exited {
		if m.Steps&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if m.MaxSteps > 0 && m.Steps >= m.MaxSteps {
			return fmt.Errorf("%w: %d instructions", ErrStepLimit, m.Steps)
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) target(l asm.Label) (int, error) {
	idx, ok := m.labels[l]
	if !ok {
		return 0, fmt.Errorf("undefined label %s", l)
	}
	return idx, nil
}

// textAddr is the address of the instruction at index idx
func textAddr(idx int) int32 {
	return int32(TextBase + uint32(idx)*4)
}

// Step executes a single instruction
func (m *Machine) Step() error {
	if m.Exited {
		return nil
	}
	if m.PC < 0 || m.PC >= len(m.code) {
		return fmt.Errorf("pc 0x%08x outside the text segment", uint32(textAddr(m.PC)))
	}

	inst := m.code[m.PC]
	next := m.PC + 1
	m.Steps++
	r := &m.Regs

	switch i := inst.(type) {
	case asm.ADDU:
		r[i.Rd] = r[i.Rs] + r[i.Rt]
	case asm.ADDIU:
		r[i.Rt] = r[i.Rs] + i.Imm
	case asm.SUBU:
		r[i.Rd] = r[i.Rs] - r[i.Rt]
	case asm.MUL:
		r[i.Rd] = r[i.Rs] * r[i.Rt]
	case asm.DIV:
		if r[i.Rt] == 0 {
			return fmt.Errorf("%w at 0x%08x", ErrDivide, uint32(textAddr(m.PC)))
		}
		m.LO = r[i.Rs] / r[i.Rt]
		m.HI = r[i.Rs] % r[i.Rt]
	case asm.MFLO:
		r[i.Rd] = m.LO
	case asm.MFHI:
		r[i.Rd] = m.HI
	case asm.AND:
		r[i.Rd] = r[i.Rs] & r[i.Rt]
	case asm.OR:
		r[i.Rd] = r[i.Rs] | r[i.Rt]
	case asm.XOR:
		r[i.Rd] = r[i.Rs] ^ r[i.Rt]
	case asm.XORI:
		r[i.Rt] = r[i.Rs] ^ (i.Imm & 0xffff)
	case asm.SLL:
		r[i.Rd] = r[i.Rt] << uint(i.Shamt&31)
	case asm.SRA:
		r[i.Rd] = r[i.Rt] >> uint(i.Shamt&31)

	case asm.SLT:
		r[i.Rd] = boolInt(r[i.Rs] < r[i.Rt])
	case asm.SLTU:
		r[i.Rd] = boolInt(uint32(r[i.Rs]) < uint32(r[i.Rt]))
	case asm.SLTI:
		r[i.Rt] = boolInt(r[i.Rs] < i.Imm)
	case asm.SLTIU:
		r[i.Rt] = boolInt(uint32(r[i.Rs]) < uint32(i.Imm))

	case asm.LW:
		v, err := m.mem.loadWord(uint32(r[i.Base] + i.Ofs))
		if err != nil {
			return err
		}
		r[i.Rt] = v
	case asm.LB:
		v, err := m.mem.loadByte(uint32(r[i.Base] + i.Ofs))
		if err != nil {
			return err
		}
		r[i.Rt] = v
	case asm.SW:
		if err := m.mem.storeWord(uint32(r[i.Base]+i.Ofs), r[i.Rt]); err != nil {
			return err
		}
	case asm.SB:
		if err := m.mem.storeByte(uint32(r[i.Base]+i.Ofs), r[i.Rt]); err != nil {
			return err
		}

	case asm.BEQ:
		if r[i.Rs] == r[i.Rt] {
			idx, err := m.target(i.Target)
			if err != nil {
				return err
			}
			next = idx
		}
	case asm.BNE:
		if r[i.Rs] != r[i.Rt] {
			idx, err := m.target(i.Target)
			if err != nil {
				return err
			}
			next = idx
		}
	case asm.J:
		idx, err := m.target(i.Target)
		if err != nil {
			return err
		}
		next = idx
	case asm.JAL:
		idx, err := m.target(i.Target)
		if err != nil {
			return err
		}
		r[rtl.RA] = textAddr(next)
		next = idx
	case asm.JR:
		addr := uint32(r[i.Rs])
		if addr < TextBase || addr%4 != 0 {
			return fmt.Errorf("jump to 0x%08x outside the text segment", addr)
		}
		next = int((addr - TextBase) / 4)
	case asm.SYSCALL:
		if err := m.syscall(); err != nil {
			return err
		}

	case asm.LI:
		r[i.Rd] = i.Imm
	case asm.LA:
		addr, ok := m.symbols[i.Label]
		if !ok {
			return fmt.Errorf("undefined data label %s", i.Label)
		}
		r[i.Rd] = int32(addr) + i.Offset
	case asm.MOVE:
		r[i.Rd] = r[i.Rs]

	default:
		return fmt.Errorf("unsupported instruction %T", inst)
	}

	r[rtl.Zero] = 0
	m.PC = next
	return nil
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
