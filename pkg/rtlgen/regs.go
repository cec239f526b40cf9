package rtlgen

import (
	"fmt"

	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/layout"
	"github.com/raymyers/minicc/pkg/rtl"
)

// storageKind says where a variable lives
type storageKind int

const (
	inTemp  storageKind = iota // virtual temporary (for arrays: their address)
	inFrame                    // $fp-relative memory
	inData                     // data-section label
)

type storage struct {
	kind  storageKind
	reg   rtl.Reg
	ofs   int32
	label string
}

// address is a memory location base+ofs; ofs is folded into the load or
// store that finally uses it
type address struct {
	base rtl.Reg
	ofs  int32
}

type loop struct {
	top, end string
}

// builder emits the body of one function
type builder struct {
	g      *generator
	fn     *rtl.Function
	fun    *ast.FunDecl
	vars   map[*ast.VarDecl]storage
	this   rtl.Reg // receiver pointer of a method
	retPtr rtl.Reg // destination of an aggregate return value
	labels int
	loops  []loop
}

func newBuilder(g *generator, f *ast.FunDecl) *builder {
	return &builder{
		g:    g,
		fn:   rtl.NewFunction(f.Label()),
		fun:  f,
		vars: make(map[*ast.VarDecl]storage),
	}
}

// declare gives a local variable its storage
func (b *builder) declare(v *ast.VarDecl) {
	if layout.IsScalar(v.Type) && !v.AddrTaken {
		b.vars[v] = storage{kind: inTemp, reg: b.fn.NewTemp()}
		return
	}
	b.vars[v] = storage{kind: inFrame, ofs: b.fn.AllocSlot(b.g.sizeof(v.Type))}
}

// lookup returns the storage of a variable
func (b *builder) lookup(v *ast.VarDecl) storage {
	if v == nil {
		fail("%s: unresolved variable reference", b.fun.Name)
	}
	if s, ok := b.vars[v]; ok {
		return s
	}
	if label, ok := b.g.globals[v]; ok {
		return storage{kind: inData, label: label}
	}
	fail("%s: no storage for %s", b.fun.Name, v.Name)
	return storage{}
}

// promoted returns the temporary holding a register-promoted scalar
func (b *builder) promoted(ref *ast.VarRef) (rtl.Reg, bool) {
	if ref.Decl == nil || isArray(ref.Decl.Type) {
		return 0, false
	}
	s := b.lookup(ref.Decl)
	return s.reg, s.kind == inTemp
}

func (b *builder) newLabel() string {
	l := fmt.Sprintf("%s.L%d", b.fn.Name, b.labels)
	b.labels++
	return l
}

// --- Emission helpers ---

func (b *builder) emitOp(op rtl.Operation, args ...rtl.Reg) rtl.Reg {
	dest := b.fn.NewTemp()
	b.fn.Emit(rtl.Iop{Op: op, Args: args, Dest: dest})
	return dest
}

func (b *builder) emitMove(src, dest rtl.Reg) {
	b.fn.Emit(rtl.Iop{Op: rtl.Omove{}, Args: []rtl.Reg{src}, Dest: dest})
}

func (b *builder) emitConst(n int32) rtl.Reg {
	return b.emitOp(rtl.Ointconst{Value: n})
}

func (b *builder) emitLoad(c rtl.Chunk, a address, dest rtl.Reg) {
	b.fn.Emit(rtl.Iload{Chunk: c, Base: a.base, Ofs: a.ofs, Dest: dest})
}

func (b *builder) emitStore(c rtl.Chunk, a address, src rtl.Reg) {
	b.fn.Emit(rtl.Istore{Chunk: c, Base: a.base, Ofs: a.ofs, Src: src})
}

func (b *builder) emitLabel(l string) {
	b.fn.Emit(rtl.Ilabel{Name: l})
}

// materialize computes an address into a register
func (b *builder) materialize(a address) rtl.Reg {
	switch {
	case a.base == rtl.FP:
		return b.emitOp(rtl.Oaddrstack{Offset: a.ofs})
	case a.ofs == 0:
		return a.base
	}
	return b.emitOp(rtl.Oaddimm{N: a.ofs}, a.base)
}

// copyBytes copies a value of type t from src to dst, a word at a time
// when the type is word aligned
func (b *builder) copyBytes(dst, src address, t layout.Type) {
	size := b.g.sizeof(t)
	c, step := rtl.Mint32, int32(4)
	if b.g.table.Alignof(t) < 4 {
		c, step = rtl.Mint8signed, 1
	}
	for o := int32(0); o < size; o += step {
		tmp := b.fn.NewTemp()
		b.emitLoad(c, address{src.base, src.ofs + o}, tmp)
		b.emitStore(c, address{dst.base, dst.ofs + o}, tmp)
	}
}
