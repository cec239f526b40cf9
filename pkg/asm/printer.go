package asm

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs MIPS assembly in MARS/SPIM syntax
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new assembly printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram outputs an entire program
func (p *Printer) PrintProgram(prog *Program) {
	if len(prog.Globals) > 0 {
		fmt.Fprintf(p.w, "\t.data\n")
		for _, g := range prog.Globals {
			p.printGlobal(g)
		}
		fmt.Fprintf(p.w, "\n")
	}

	fmt.Fprintf(p.w, "\t.text\n")
	if len(prog.Functions) > 0 {
		fmt.Fprintf(p.w, "\t.globl\t%s\n", prog.Functions[0].Name)
	}
	for _, f := range prog.Functions {
		p.printFunction(f)
	}
}

// log2 returns the base-2 logarithm of n (assumes n is a power of 2)
func log2(n int32) int32 {
	r := int32(0)
	for n > 1 {
		n >>= 1
		r++
	}
	return r
}

func (p *Printer) printGlobal(g GlobVar) {
	if g.IsString {
		fmt.Fprintf(p.w, "%s:\n\t.asciiz\t%s\n", g.Name, quote(g.Str))
		return
	}
	if g.Align > 1 {
		fmt.Fprintf(p.w, "\t.align\t%d\n", log2(g.Align))
	}
	fmt.Fprintf(p.w, "%s:\n\t.space\t%d\n", g.Name, g.Size)
}

// quote renders s as a string literal the MIPS assemblers understand
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func (p *Printer) printFunction(f Function) {
	fmt.Fprintf(p.w, "%s:\n", f.Name)
	for _, inst := range f.Code {
		p.printInstruction(inst)
	}
	fmt.Fprintf(p.w, "\n")
}

// InstrString renders a single instruction without indentation
func InstrString(inst Instruction) string {
	var sb strings.Builder
	NewPrinter(&sb).printInstruction(inst)
	return strings.TrimSpace(strings.ReplaceAll(sb.String(), "\t", " "))
}

func (p *Printer) printInstruction(inst Instruction) {
	switch i := inst.(type) {
	// Labels
	case LabelDef:
		fmt.Fprintf(p.w, "%s:\n", i.Name)

	// Arithmetic and logic
	case ADDU:
		fmt.Fprintf(p.w, "\taddu\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case ADDIU:
		fmt.Fprintf(p.w, "\taddiu\t%s, %s, %d\n", i.Rt, i.Rs, i.Imm)
	case SUBU:
		fmt.Fprintf(p.w, "\tsubu\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case MUL:
		fmt.Fprintf(p.w, "\tmul\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case DIV:
		fmt.Fprintf(p.w, "\tdiv\t%s, %s\n", i.Rs, i.Rt)
	case MFLO:
		fmt.Fprintf(p.w, "\tmflo\t%s\n", i.Rd)
	case MFHI:
		fmt.Fprintf(p.w, "\tmfhi\t%s\n", i.Rd)
	case AND:
		fmt.Fprintf(p.w, "\tand\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case OR:
		fmt.Fprintf(p.w, "\tor\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case XOR:
		fmt.Fprintf(p.w, "\txor\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case XORI:
		fmt.Fprintf(p.w, "\txori\t%s, %s, %d\n", i.Rt, i.Rs, i.Imm)
	case SLL:
		fmt.Fprintf(p.w, "\tsll\t%s, %s, %d\n", i.Rd, i.Rt, i.Shamt)
	case SRA:
		fmt.Fprintf(p.w, "\tsra\t%s, %s, %d\n", i.Rd, i.Rt, i.Shamt)

	// Comparison
	case SLT:
		fmt.Fprintf(p.w, "\tslt\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case SLTU:
		fmt.Fprintf(p.w, "\tsltu\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case SLTI:
		fmt.Fprintf(p.w, "\tslti\t%s, %s, %d\n", i.Rt, i.Rs, i.Imm)
	case SLTIU:
		fmt.Fprintf(p.w, "\tsltiu\t%s, %s, %d\n", i.Rt, i.Rs, i.Imm)

	// Load/store
	case LW:
		fmt.Fprintf(p.w, "\tlw\t%s, %d(%s)\n", i.Rt, i.Ofs, i.Base)
	case LB:
		fmt.Fprintf(p.w, "\tlb\t%s, %d(%s)\n", i.Rt, i.Ofs, i.Base)
	case SW:
		fmt.Fprintf(p.w, "\tsw\t%s, %d(%s)\n", i.Rt, i.Ofs, i.Base)
	case SB:
		fmt.Fprintf(p.w, "\tsb\t%s, %d(%s)\n", i.Rt, i.Ofs, i.Base)

	// Branches
	case BEQ:
		fmt.Fprintf(p.w, "\tbeq\t%s, %s, %s\n", i.Rs, i.Rt, i.Target)
	case BNE:
		fmt.Fprintf(p.w, "\tbne\t%s, %s, %s\n", i.Rs, i.Rt, i.Target)
	case J:
		fmt.Fprintf(p.w, "\tj\t%s\n", i.Target)
	case JAL:
		fmt.Fprintf(p.w, "\tjal\t%s\n", i.Target)
	case JR:
		fmt.Fprintf(p.w, "\tjr\t%s\n", i.Rs)
	case SYSCALL:
		fmt.Fprintf(p.w, "\tsyscall\n")

	// Pseudo-instructions
	case LI:
		fmt.Fprintf(p.w, "\tli\t%s, %d\n", i.Rd, i.Imm)
	case LA:
		if i.Offset != 0 {
			fmt.Fprintf(p.w, "\tla\t%s, %s+%d\n", i.Rd, i.Label, i.Offset)
		} else {
			fmt.Fprintf(p.w, "\tla\t%s, %s\n", i.Rd, i.Label)
		}
	case MOVE:
		fmt.Fprintf(p.w, "\tmove\t%s, %s\n", i.Rd, i.Rs)

	default:
		fmt.Fprintf(p.w, "\t# unknown instruction: %T\n", inst)
	}
}
