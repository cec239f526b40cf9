// Package asmgen transforms allocated RTL to MIPS32 assembly.
// This is the final compilation phase, producing assembly code
// that can be loaded by MARS or SPIM, or run by pkg/mipsim.
package asmgen

import (
	"fmt"

	"github.com/raymyers/minicc/pkg/asm"
	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/rtl"
)

// Program transforms an allocated and stacked RTL program to assembly. The
// result starts with the entry stub and ends with the runtime library.
func Program(prog *rtl.Program) (*asm.Program, error) {
	result := &asm.Program{
		Globals:   make([]asm.GlobVar, len(prog.Data)),
		Functions: make([]asm.Function, 0, len(prog.Functions)+6),
	}

	// Transform data
	for i, d := range prog.Data {
		result.Globals[i] = transformData(d)
	}

	result.Functions = append(result.Functions, asm.Start())
	for _, f := range prog.Functions {
		fn, err := transformFunction(f)
		if err != nil {
			return nil, err
		}
		result.Functions = append(result.Functions, fn)
	}
	result.Functions = append(result.Functions, asm.Runtime()...)

	return result, nil
}

func transformData(d rtl.Data) asm.GlobVar {
	if d.Kind == rtl.DataAsciiz {
		return asm.GlobVar{Name: d.Label, Str: d.Str, IsString: true}
	}
	return asm.GlobVar{Name: d.Label, Size: d.Size, Align: d.Align}
}

// transformFunction transforms a single RTL function to assembly
func transformFunction(f *rtl.Function) (asm.Function, error) {
	ctx := &genContext{fn: f}

	result := asm.Function{
		Name: f.Name,
		Code: make([]asm.Instruction, 0, len(f.Code)),
	}

	for _, inst := range f.Code {
		if err := checkAllocated(f, inst); err != nil {
			return asm.Function{}, err
		}
		instrs, err := ctx.translateInstruction(inst)
		if err != nil {
			return asm.Function{}, err
		}
		result.Code = append(result.Code, instrs...)
	}

	return result, nil
}

// checkAllocated rejects instructions that still mention a temporary
func checkAllocated(f *rtl.Function, inst rtl.Instruction) error {
	for _, r := range append(rtl.Defs(inst), rtl.Uses(inst)...) {
		if r.IsTemp() {
			return fmt.Errorf("%w: %s: temporary %s reached code emission", diag.ErrInternal, f.Name, r)
		}
	}
	return nil
}

// genContext holds state during code generation
type genContext struct {
	fn *rtl.Function
}

// translateInstruction translates an RTL instruction to assembly
func (ctx *genContext) translateInstruction(inst rtl.Instruction) ([]asm.Instruction, error) {
	switch i := inst.(type) {
	case rtl.Ilabel:
		return []asm.Instruction{asm.LabelDef{Name: asm.Label(i.Name)}}, nil
	case rtl.Iop:
		return ctx.translateOp(i)
	case rtl.Iload:
		return translateLoad(i), nil
	case rtl.Istore:
		return translateStore(i), nil
	case rtl.Icond:
		return translateCond(i), nil
	case rtl.Igoto:
		return []asm.Instruction{asm.J{Target: asm.Label(i.Target)}}, nil
	case rtl.Icall:
		return []asm.Instruction{asm.JAL{Target: asm.Label(i.Fn)}}, nil
	case rtl.Ireturn:
		return []asm.Instruction{asm.JR{Rs: asm.RA}}, nil
	default:
		return nil, fmt.Errorf("%w: %s: unexpected instruction %T", diag.ErrInternal, ctx.fn.Name, inst)
	}
}

func (ctx *genContext) translateOp(i rtl.Iop) ([]asm.Instruction, error) {
	if want := arity(i.Op); len(i.Args) != want {
		return nil, fmt.Errorf("%w: %s: %T takes %d arguments, got %d",
			diag.ErrInternal, ctx.fn.Name, i.Op, want, len(i.Args))
	}
	return translateOperation(i.Op, i.Args, i.Dest), nil
}

// arity returns the number of register arguments of an operation
func arity(op rtl.Operation) int {
	switch op.(type) {
	case rtl.Ointconst, rtl.Oaddrsymbol, rtl.Oaddrstack:
		return 0
	case rtl.Omove, rtl.Oaddimm, rtl.Oxorimm, rtl.Oshlimm, rtl.Oshrimm,
		rtl.Ocast8signed, rtl.Osltimm, rtl.Osltuimm:
		return 1
	}
	return 2
}

// translateOperation generates code for dest = op(args). Immediates that
// do not fit the instruction encoding are materialized in $at.
func translateOperation(op rtl.Operation, args []asm.Reg, dest asm.Reg) []asm.Instruction {
	switch o := op.(type) {
	case rtl.Omove:
		if args[0] == dest {
			return nil
		}
		return []asm.Instruction{asm.MOVE{Rd: dest, Rs: args[0]}}

	case rtl.Ointconst:
		return []asm.Instruction{asm.LI{Rd: dest, Imm: o.Value}}

	case rtl.Oaddrsymbol:
		return []asm.Instruction{asm.LA{Rd: dest, Label: asm.Label(o.Symbol), Offset: o.Offset}}

	case rtl.Oaddrstack:
		return addImmediate(dest, asm.FP, o.Offset)

	case rtl.Oadd:
		return []asm.Instruction{asm.ADDU{Rd: dest, Rs: args[0], Rt: args[1]}}

	case rtl.Oaddimm:
		return addImmediate(dest, args[0], o.N)

	case rtl.Osub:
		return []asm.Instruction{asm.SUBU{Rd: dest, Rs: args[0], Rt: args[1]}}

	case rtl.Omul:
		return []asm.Instruction{asm.MUL{Rd: dest, Rs: args[0], Rt: args[1]}}

	case rtl.Odiv:
		return []asm.Instruction{
			asm.DIV{Rs: args[0], Rt: args[1]},
			asm.MFLO{Rd: dest},
		}

	case rtl.Omod:
		return []asm.Instruction{
			asm.DIV{Rs: args[0], Rt: args[1]},
			asm.MFHI{Rd: dest},
		}

	case rtl.Oand:
		return []asm.Instruction{asm.AND{Rd: dest, Rs: args[0], Rt: args[1]}}

	case rtl.Oor:
		return []asm.Instruction{asm.OR{Rd: dest, Rs: args[0], Rt: args[1]}}

	case rtl.Oxor:
		return []asm.Instruction{asm.XOR{Rd: dest, Rs: args[0], Rt: args[1]}}

	case rtl.Oxorimm:
		// xori zero-extends its immediate
		if o.N >= 0 && o.N <= 0xffff {
			return []asm.Instruction{asm.XORI{Rt: dest, Rs: args[0], Imm: o.N}}
		}
		return []asm.Instruction{
			asm.LI{Rd: asm.AT, Imm: o.N},
			asm.XOR{Rd: dest, Rs: args[0], Rt: asm.AT},
		}

	case rtl.Oshlimm:
		return []asm.Instruction{asm.SLL{Rd: dest, Rt: args[0], Shamt: o.N & 31}}

	case rtl.Oshrimm:
		return []asm.Instruction{asm.SRA{Rd: dest, Rt: args[0], Shamt: o.N & 31}}

	case rtl.Ocast8signed:
		return []asm.Instruction{
			asm.SLL{Rd: dest, Rt: args[0], Shamt: 24},
			asm.SRA{Rd: dest, Rt: dest, Shamt: 24},
		}

	case rtl.Oslt:
		return []asm.Instruction{asm.SLT{Rd: dest, Rs: args[0], Rt: args[1]}}

	case rtl.Osltu:
		return []asm.Instruction{asm.SLTU{Rd: dest, Rs: args[0], Rt: args[1]}}

	case rtl.Osltimm:
		if asm.FitsImm16(o.N) {
			return []asm.Instruction{asm.SLTI{Rt: dest, Rs: args[0], Imm: o.N}}
		}
		return []asm.Instruction{
			asm.LI{Rd: asm.AT, Imm: o.N},
			asm.SLT{Rd: dest, Rs: args[0], Rt: asm.AT},
		}

	case rtl.Osltuimm:
		if asm.FitsImm16(o.N) {
			return []asm.Instruction{asm.SLTIU{Rt: dest, Rs: args[0], Imm: o.N}}
		}
		return []asm.Instruction{
			asm.LI{Rd: asm.AT, Imm: o.N},
			asm.SLTU{Rd: dest, Rs: args[0], Rt: asm.AT},
		}
	}
	return nil
}

// addImmediate generates dest = src + n
func addImmediate(dest, src asm.Reg, n int32) []asm.Instruction {
	if asm.FitsImm16(n) {
		return []asm.Instruction{asm.ADDIU{Rt: dest, Rs: src, Imm: n}}
	}
	return []asm.Instruction{
		asm.LI{Rd: asm.AT, Imm: n},
		asm.ADDU{Rd: dest, Rs: src, Rt: asm.AT},
	}
}

// address returns a base register and 16-bit offset for base+ofs, plus any
// setup needed when ofs is out of range
func address(base asm.Reg, ofs int32) ([]asm.Instruction, asm.Reg, int32) {
	if asm.FitsImm16(ofs) {
		return nil, base, ofs
	}
	return []asm.Instruction{
		asm.LI{Rd: asm.AT, Imm: ofs},
		asm.ADDU{Rd: asm.AT, Rs: asm.AT, Rt: base},
	}, asm.AT, 0
}

// translateLoad generates a load from memory
func translateLoad(i rtl.Iload) []asm.Instruction {
	code, base, ofs := address(i.Base, i.Ofs)
	if i.Chunk == rtl.Mint8signed {
		return append(code, asm.LB{Rt: i.Dest, Base: base, Ofs: ofs})
	}
	return append(code, asm.LW{Rt: i.Dest, Base: base, Ofs: ofs})
}

// translateStore generates a store to memory
func translateStore(i rtl.Istore) []asm.Instruction {
	code, base, ofs := address(i.Base, i.Ofs)
	if i.Chunk == rtl.Mint8signed {
		return append(code, asm.SB{Rt: i.Src, Base: base, Ofs: ofs})
	}
	return append(code, asm.SW{Rt: i.Src, Base: base, Ofs: ofs})
}

// translateCond generates a conditional branch
func translateCond(i rtl.Icond) []asm.Instruction {
	target := asm.Label(i.IfSo)
	if i.Cond == rtl.Ceq {
		return []asm.Instruction{asm.BEQ{Rs: i.Left, Rt: i.Right, Target: target}}
	}
	return []asm.Instruction{asm.BNE{Rs: i.Left, Rt: i.Right, Target: target}}
}
