// Package rtlgen lowers the analyzed MiniC syntax tree to RTL.
//
// Scalars whose address is never taken live in virtual temporaries. Every
// other variable gets a home in memory: a frame slot below $fp, an incoming
// argument slot above $fp, or a label in the data section. Aggregates are
// handled by address and copied byte for byte wherever C assigns, passes or
// returns them by value.
package rtlgen

import (
	"fmt"

	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/layout"
	"github.com/raymyers/minicc/pkg/rtl"
)

// internalError is raised by panic when the annotated tree breaks an
// invariant the semantic analyzer guarantees
type internalError struct {
	msg string
}

// generator holds the program-wide state shared by all functions
type generator struct {
	table   *layout.Table
	prog    *rtl.Program
	globals map[*ast.VarDecl]string
	strings int
}

// Program translates an analyzed program. The program must be free of
// semantic errors; a violated invariant is reported as an error wrapping
// diag.ErrInternal.
func Program(prog *ast.Program, table *layout.Table) (out *rtl.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(internalError)
			if !ok {
				panic(r)
			}
			out, err = nil, fmt.Errorf("%w: %s", diag.ErrInternal, ie.msg)
		}
	}()

	g := &generator{
		table:   table,
		prog:    &rtl.Program{},
		globals: make(map[*ast.VarDecl]string),
	}
	for _, v := range prog.Globals() {
		label := GlobalLabel(v.Name)
		g.globals[v] = label
		g.prog.Data = append(g.prog.Data, rtl.Data{
			Label: label,
			Kind:  rtl.DataSpace,
			Size:  int32(table.Sizeof(v.Type)),
			Align: int32(table.Alignof(v.Type)),
		})
	}
	for _, f := range prog.Functions() {
		g.prog.Functions = append(g.prog.Functions, g.function(f))
	}
	return g.prog, nil
}

// GlobalLabel returns the data label of a global variable
func GlobalLabel(name string) string {
	return "gv_" + name
}

func fail(format string, args ...any) {
	panic(internalError{msg: fmt.Sprintf(format, args...)})
}

// addString adds a string literal to the data section and returns its label
func (g *generator) addString(s string) string {
	label := fmt.Sprintf("str_%d", g.strings)
	g.strings++
	g.prog.Data = append(g.prog.Data, rtl.Data{Label: label, Kind: rtl.DataAsciiz, Str: s})
	return label
}

// sizeof returns the size of t as a frame or argument quantity
func (g *generator) sizeof(t layout.Type) int32 {
	return int32(g.table.Sizeof(t))
}

// argSize returns the bytes a value of type t occupies in the argument
// area. Arrays are passed by address.
func (g *generator) argSize(t layout.Type) int32 {
	if _, ok := t.(layout.Tarray); ok {
		return 4
	}
	return int32(layout.AlignUp(g.table.Sizeof(t), 4))
}

// chunk returns the memory access used for a scalar of type t
func chunk(t layout.Type) rtl.Chunk {
	if layout.IsChar(t) {
		return rtl.Mint8signed
	}
	return rtl.Mint32
}

func isArray(t layout.Type) bool {
	_, ok := t.(layout.Tarray)
	return ok
}

// function translates one function or method body
func (g *generator) function(f *ast.FunDecl) *rtl.Function {
	b := newBuilder(g, f)

	ofs := int32(4)
	if layout.IsAggregate(f.Return) {
		b.retPtr = b.fn.NewTemp()
		b.emitLoad(rtl.Mint32, address{rtl.FP, ofs}, b.retPtr)
		ofs += 4
	}
	if f.This != nil {
		b.this = b.fn.NewTemp()
		b.emitLoad(rtl.Mint32, address{rtl.FP, ofs}, b.this)
		ofs += 4
	}
	for _, p := range f.Params {
		switch {
		case isArray(p.Type):
			r := b.fn.NewTemp()
			b.emitLoad(rtl.Mint32, address{rtl.FP, ofs}, r)
			b.vars[p] = storage{kind: inTemp, reg: r}
		case layout.IsScalar(p.Type) && !p.AddrTaken:
			r := b.fn.NewTemp()
			b.emitLoad(chunk(p.Type), address{rtl.FP, ofs}, r)
			b.vars[p] = storage{kind: inTemp, reg: r}
		default:
			b.vars[p] = storage{kind: inFrame, ofs: ofs}
		}
		ofs += g.argSize(p.Type)
	}

	b.block(f.Body)
	b.fn.Emit(rtl.Ireturn{})
	return b.fn
}
