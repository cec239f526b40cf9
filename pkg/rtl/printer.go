package rtl

import (
	"fmt"
	"io"
	"strconv"
)

// Printer outputs RTL in a readable, line-per-instruction format
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new RTL printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints a complete RTL program
func (p *Printer) PrintProgram(prog *Program) {
	for _, d := range prog.Data {
		switch d.Kind {
		case DataSpace:
			fmt.Fprintf(p.w, "var \"%s\"[%d]\n", d.Label, d.Size)
		case DataAsciiz:
			fmt.Fprintf(p.w, "string \"%s\" %s\n", d.Label, strconv.Quote(d.Str))
		}
	}
	if len(prog.Data) > 0 {
		fmt.Fprintln(p.w)
	}

	for i, fn := range prog.Functions {
		p.PrintFunction(fn)
		if i < len(prog.Functions)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

// PrintFunction prints one function
func (p *Printer) PrintFunction(fn *Function) {
	fmt.Fprintf(p.w, "%s() {\n", fn.Name)
	if fn.FrameSize > 0 {
		fmt.Fprintf(p.w, "  ; frame %d\n", fn.FrameSize)
	}
	for _, instr := range fn.Code {
		if l, ok := instr.(Ilabel); ok {
			fmt.Fprintf(p.w, "%s:\n", l.Name)
			continue
		}
		fmt.Fprintf(p.w, "  %s\n", InstrString(instr))
	}
	fmt.Fprintln(p.w, "}")
}

// InstrString renders a single instruction
func InstrString(instr Instruction) string {
	switch i := instr.(type) {
	case Ilabel:
		return i.Name + ":"
	case Iop:
		return fmt.Sprintf("%s = %s", i.Dest, opString(i.Op, i.Args))
	case Iload:
		return fmt.Sprintf("%s = %s[%s + %d]", i.Dest, i.Chunk, i.Base, i.Ofs)
	case Istore:
		return fmt.Sprintf("%s[%s + %d] = %s", i.Chunk, i.Base, i.Ofs, i.Src)
	case Icond:
		return fmt.Sprintf("if (%s %s %s) goto %s", i.Left, i.Cond, i.Right, i.IfSo)
	case Igoto:
		return "goto " + i.Target
	case Icall:
		return "call " + i.Fn
	case Ireturn:
		return "return"
	}
	return "???"
}

func opString(op Operation, args []Reg) string {
	var name string
	switch o := op.(type) {
	case Omove:
		if len(args) == 1 {
			return args[0].String()
		}
		name = "move"
	case Ointconst:
		return fmt.Sprintf("int %d", o.Value)
	case Oaddrsymbol:
		return fmt.Sprintf("addrsymbol \"%s\" %d", o.Symbol, o.Offset)
	case Oaddrstack:
		return fmt.Sprintf("addrstack %d", o.Offset)
	case Oadd:
		name = "add"
	case Oaddimm:
		name = fmt.Sprintf("addimm %d", o.N)
	case Osub:
		name = "sub"
	case Omul:
		name = "mul"
	case Odiv:
		name = "div"
	case Omod:
		name = "mod"
	case Oand:
		name = "and"
	case Oor:
		name = "or"
	case Oxor:
		name = "xor"
	case Oxorimm:
		name = fmt.Sprintf("xorimm %d", o.N)
	case Oshlimm:
		name = fmt.Sprintf("shlimm %d", o.N)
	case Oshrimm:
		name = fmt.Sprintf("shrimm %d", o.N)
	case Ocast8signed:
		name = "cast8signed"
	case Oslt:
		name = "slt"
	case Osltu:
		name = "sltu"
	case Osltimm:
		name = fmt.Sprintf("sltimm %d", o.N)
	case Osltuimm:
		name = fmt.Sprintf("sltuimm %d", o.N)
	default:
		name = "???"
	}
	s := name + "("
	for k, a := range args {
		if k > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}
