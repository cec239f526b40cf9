package rtlgen

import (
	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/layout"
	"github.com/raymyers/minicc/pkg/rtl"
)

// callee describes the target of a call site
type callee struct {
	label   string
	params  []layout.Type
	ret     layout.Type
	method  bool
	runtime bool
}

// argument is an evaluated argument: a register for scalars and arrays,
// a source location for aggregates copied into the argument area
type argument struct {
	typ layout.Type
	reg rtl.Reg
	src address
}

func (b *builder) callee(e ast.Expr) (callee, []ast.Expr) {
	switch e := e.(type) {
	case *ast.Call:
		if e.Method != nil {
			return methodCallee(e.Method), e.Args
		}
		if e.Func == nil {
			fail("%s: unresolved call to %s", b.fun.Name, e.Name)
		}
		c := callee{label: e.Func.Label(), ret: e.Func.Return, runtime: e.Func.Runtime}
		for _, p := range e.Func.Params {
			c.params = append(c.params, p.Type)
		}
		return c, e.Args
	case *ast.MethodCall:
		if e.Method == nil {
			fail("%s: unresolved method %s", b.fun.Name, e.Name)
		}
		return methodCallee(e.Method), e.Args
	}
	fail("%s: %T is not a call", b.fun.Name, e)
	return callee{}, nil
}

func methodCallee(m *layout.Method) callee {
	return callee{label: m.Label, params: m.Params, ret: m.Return, method: true}
}

// call evaluates the receiver and the arguments, places them in the
// argument area and transfers control. It yields the scalar result, the
// address of an aggregate result, or $zero for void.
func (b *builder) call(e ast.Expr) rtl.Reg {
	c, args := b.callee(e)
	if len(args) != len(c.params) {
		fail("%s: %s called with %d arguments, expects %d", b.fun.Name, c.label, len(args), len(c.params))
	}

	var recv rtl.Reg
	if c.method {
		if mc, ok := e.(*ast.MethodCall); ok {
			recv = b.materialize(b.addr(mc.Receiver))
		} else {
			if b.this == 0 {
				fail("%s: method %s called without a receiver", b.fun.Name, c.label)
			}
			recv = b.this
		}
	}

	vals := make([]argument, len(args))
	for i, a := range args {
		t := c.params[i]
		vals[i].typ = t
		if layout.IsAggregate(t) {
			vals[i].src = b.addr(a)
		} else {
			vals[i].reg = b.convert(b.expr(a), a.Type(), t)
		}
	}

	if c.runtime {
		return b.runtimeCall(c, vals)
	}

	var result rtl.Reg
	area := int32(0)
	if layout.IsAggregate(c.ret) {
		result = b.emitOp(rtl.Oaddrstack{Offset: b.fn.AllocSlot(b.g.sizeof(c.ret))})
		area += 4
	}
	if c.method {
		area += 4
	}
	for _, v := range vals {
		area += b.g.argSize(v.typ)
	}

	if area > 0 {
		b.fn.Emit(rtl.Iop{Op: rtl.Oaddimm{N: -area}, Args: []rtl.Reg{rtl.SP}, Dest: rtl.SP})
	}
	ofs := int32(0)
	if result != 0 {
		b.emitStore(rtl.Mint32, address{rtl.SP, ofs}, result)
		ofs += 4
	}
	if c.method {
		b.emitStore(rtl.Mint32, address{rtl.SP, ofs}, recv)
		ofs += 4
	}
	for _, v := range vals {
		switch {
		case layout.IsAggregate(v.typ):
			b.copyBytes(address{rtl.SP, ofs}, v.src, v.typ)
		case isArray(v.typ):
			b.emitStore(rtl.Mint32, address{rtl.SP, ofs}, v.reg)
		default:
			b.emitStore(chunk(v.typ), address{rtl.SP, ofs}, v.reg)
		}
		ofs += b.g.argSize(v.typ)
	}
	b.fn.Emit(rtl.Icall{Fn: c.label})
	if area > 0 {
		b.fn.Emit(rtl.Iop{Op: rtl.Oaddimm{N: area}, Args: []rtl.Reg{rtl.SP}, Dest: rtl.SP})
	}

	switch {
	case result != 0:
		return result
	case layout.IsVoid(c.ret):
		return rtl.Zero
	}
	r := b.fn.NewTemp()
	b.emitMove(rtl.V0, r)
	return r
}

// runtimeCall calls a runtime library stub: the single argument goes in
// $a0 and a result comes back in $v0
func (b *builder) runtimeCall(c callee, vals []argument) rtl.Reg {
	if len(vals) > 1 {
		fail("%s: runtime function %s takes at most one argument", b.fun.Name, c.label)
	}
	if len(vals) == 1 {
		b.emitMove(vals[0].reg, rtl.A0)
	}
	b.fn.Emit(rtl.Icall{Fn: c.label})
	if layout.IsVoid(c.ret) {
		return rtl.Zero
	}
	r := b.fn.NewTemp()
	b.emitMove(rtl.V0, r)
	return r
}
