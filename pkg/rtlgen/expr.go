package rtlgen

import (
	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/layout"
	"github.com/raymyers/minicc/pkg/rtl"
)

// expr evaluates e into a register. Scalars yield their value; arrays and
// aggregates yield their address.
func (b *builder) expr(e ast.Expr) rtl.Reg {
	switch e := e.(type) {
	case *ast.IntLit:
		return b.emitConst(e.Value)
	case *ast.CharLit:
		return b.emitConst(int32(int8(e.Value)))
	case *ast.StringLit:
		return b.emitOp(rtl.Oaddrsymbol{Symbol: b.g.addString(e.Value)})
	case *ast.VarRef:
		if r, ok := b.promoted(e); ok {
			return r
		}
		return b.load(b.addr(e), e.Type())
	case *ast.Binary:
		return b.binary(e)
	case *ast.Unary:
		return b.unary(e)
	case *ast.Assign:
		return b.assign(e)
	case *ast.Cast:
		return b.convert(b.expr(e.Expr), e.Expr.Type(), e.To)
	case *ast.Sizeof:
		return b.emitConst(b.g.sizeof(e.Of))
	case *ast.Index, *ast.FieldAccess:
		return b.load(b.addr(e), e.Type())
	case *ast.Call, *ast.MethodCall:
		return b.call(e)
	}
	fail("%s: cannot translate expression %T", b.fun.Name, e)
	return 0
}

// load reads a value of type t from a; arrays and aggregates evaluate to
// the address itself
func (b *builder) load(a address, t layout.Type) rtl.Reg {
	if !layout.IsScalar(t) {
		return b.materialize(a)
	}
	r := b.fn.NewTemp()
	b.emitLoad(chunk(t), a, r)
	return r
}

// convert applies the representation change of an int to char conversion;
// every other legal conversion keeps the bits
func (b *builder) convert(r rtl.Reg, from, to layout.Type) rtl.Reg {
	if layout.IsChar(to) && layout.IsInteger(from) && !layout.IsChar(from) {
		return b.emitOp(rtl.Ocast8signed{}, r)
	}
	return r
}

// addr computes the location of an lvalue or of an aggregate-valued
// expression
func (b *builder) addr(e ast.Expr) address {
	switch e := e.(type) {
	case *ast.VarRef:
		if e.Field != nil {
			if b.this == 0 {
				fail("%s: field %s used outside a method", b.fun.Name, e.Name)
			}
			return address{b.this, int32(e.Field.Offset)}
		}
		s := b.lookup(e.Decl)
		switch s.kind {
		case inFrame:
			return address{rtl.FP, s.ofs}
		case inData:
			return address{b.emitOp(rtl.Oaddrsymbol{Symbol: s.label}), 0}
		}
		if isArray(e.Decl.Type) {
			return address{s.reg, 0}
		}
		fail("%s: %s lives in a register and has no address", b.fun.Name, e.Name)
	case *ast.FieldAccess:
		if e.Field == nil {
			fail("%s: unbound field %s", b.fun.Name, e.Name)
		}
		a := b.addr(e.Receiver)
		a.ofs += int32(e.Field.Offset)
		return a
	case *ast.Index:
		return b.index(e)
	case *ast.Unary:
		if e.Op == ast.OpDeref {
			return address{b.expr(e.Operand), 0}
		}
	case *ast.Cast:
		return b.addr(e.Expr)
	case *ast.Call, *ast.MethodCall, *ast.Assign, *ast.StringLit:
		return address{b.expr(e), 0}
	}
	fail("%s: expression %T has no address", b.fun.Name, e)
	return address{}
}

// index computes &arr[idx], folding constant indices into the offset
func (b *builder) index(e *ast.Index) address {
	var a address
	if isArray(e.Array.Type()) {
		a = b.addr(e.Array)
	} else {
		a = address{b.expr(e.Array), 0}
	}
	elem := b.g.sizeof(e.Type())
	if lit, ok := e.Index.(*ast.IntLit); ok {
		a.ofs += lit.Value * elem
		return a
	}
	scaled := b.scale(b.expr(e.Index), elem)
	return address{b.emitOp(rtl.Oadd{}, a.base, scaled), a.ofs}
}

// scale multiplies r by a constant element size
func (b *builder) scale(r rtl.Reg, n int32) rtl.Reg {
	if n == 1 {
		return r
	}
	if n > 0 && n&(n-1) == 0 {
		shift := int32(0)
		for 1<<shift < n {
			shift++
		}
		return b.emitOp(rtl.Oshlimm{N: shift}, r)
	}
	return b.emitOp(rtl.Omul{}, r, b.emitConst(n))
}

func (b *builder) unary(e *ast.Unary) rtl.Reg {
	switch e.Op {
	case ast.OpNeg:
		return b.emitOp(rtl.Osub{}, rtl.Zero, b.expr(e.Operand))
	case ast.OpDeref:
		return b.load(b.addr(e), e.Type())
	case ast.OpAddrOf:
		return b.materialize(b.addr(e.Operand))
	}
	fail("%s: unknown unary operator %v", b.fun.Name, e.Op)
	return 0
}

func (b *builder) binary(e *ast.Binary) rtl.Reg {
	switch e.Op {
	case ast.OpAnd:
		return b.shortCircuit(e, rtl.Ceq, 0)
	case ast.OpOr:
		return b.shortCircuit(e, rtl.Cne, 1)
	}

	l := b.expr(e.Left)
	r := b.expr(e.Right)
	switch e.Op {
	case ast.OpAdd:
		return b.emitOp(rtl.Oadd{}, l, r)
	case ast.OpSub:
		return b.emitOp(rtl.Osub{}, l, r)
	case ast.OpMul:
		return b.emitOp(rtl.Omul{}, l, r)
	case ast.OpDiv:
		return b.emitOp(rtl.Odiv{}, l, r)
	case ast.OpMod:
		return b.emitOp(rtl.Omod{}, l, r)
	case ast.OpLt:
		return b.emitOp(rtl.Oslt{}, l, r)
	case ast.OpGt:
		return b.emitOp(rtl.Oslt{}, r, l)
	case ast.OpLe:
		return b.emitOp(rtl.Oxorimm{N: 1}, b.emitOp(rtl.Oslt{}, r, l))
	case ast.OpGe:
		return b.emitOp(rtl.Oxorimm{N: 1}, b.emitOp(rtl.Oslt{}, l, r))
	case ast.OpEq:
		return b.emitOp(rtl.Osltuimm{N: 1}, b.emitOp(rtl.Oxor{}, l, r))
	case ast.OpNe:
		return b.emitOp(rtl.Osltu{}, rtl.Zero, b.emitOp(rtl.Oxor{}, l, r))
	}
	fail("%s: unknown binary operator %v", b.fun.Name, e.Op)
	return 0
}

// shortCircuit evaluates && (skip on zero) and || (skip on non-zero). When
// the left operand decides the result, the right one is not evaluated.
func (b *builder) shortCircuit(e *ast.Binary, skip rtl.Condition, decided int32) rtl.Reg {
	dest := b.fn.NewTemp()
	skipL, end := b.newLabel(), b.newLabel()

	l := b.expr(e.Left)
	b.fn.Emit(rtl.Icond{Cond: skip, Left: l, Right: rtl.Zero, IfSo: skipL})
	r := b.expr(e.Right)
	b.fn.Emit(
		rtl.Iop{Op: rtl.Osltu{}, Args: []rtl.Reg{rtl.Zero, r}, Dest: dest},
		rtl.Igoto{Target: end},
	)
	b.emitLabel(skipL)
	b.fn.Emit(rtl.Iop{Op: rtl.Ointconst{Value: decided}, Dest: dest})
	b.emitLabel(end)
	return dest
}

// assign stores the value and yields it. Aggregates are copied byte for
// byte and yield the destination address.
func (b *builder) assign(e *ast.Assign) rtl.Reg {
	t := e.Target.Type()
	if layout.IsAggregate(t) {
		dst := b.addr(e.Target)
		src := b.addr(e.Value)
		b.copyBytes(dst, src, t)
		return b.materialize(dst)
	}

	if ref, ok := e.Target.(*ast.VarRef); ok {
		if r, promoted := b.promoted(ref); promoted {
			v := b.convert(b.expr(e.Value), e.Value.Type(), t)
			b.emitMove(v, r)
			return v
		}
	}
	dst := b.addr(e.Target)
	v := b.convert(b.expr(e.Value), e.Value.Type(), t)
	b.emitStore(chunk(t), dst, v)
	return v
}
