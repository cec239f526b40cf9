package rtlgen

import (
	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/layout"
	"github.com/raymyers/minicc/pkg/rtl"
)

func (b *builder) block(blk *ast.Block) {
	for _, v := range blk.Decls {
		b.declare(v)
	}
	for _, s := range blk.Stmts {
		b.stmt(s)
	}
}

func (b *builder) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Block:
		b.block(s)
	case *ast.ExprStmt:
		b.expr(s.X)
	case *ast.If:
		elseL := b.newLabel()
		b.branchIfZero(s.Cond, elseL)
		b.stmt(s.Then)
		if s.Else == nil {
			b.emitLabel(elseL)
			return
		}
		end := b.newLabel()
		b.fn.Emit(rtl.Igoto{Target: end})
		b.emitLabel(elseL)
		b.stmt(s.Else)
		b.emitLabel(end)
	case *ast.While:
		l := loop{top: b.newLabel(), end: b.newLabel()}
		b.emitLabel(l.top)
		b.branchIfZero(s.Cond, l.end)
		b.loops = append(b.loops, l)
		b.stmt(s.Body)
		b.loops = b.loops[:len(b.loops)-1]
		b.fn.Emit(rtl.Igoto{Target: l.top})
		b.emitLabel(l.end)
	case *ast.Return:
		b.returnStmt(s)
	case *ast.Break:
		b.fn.Emit(rtl.Igoto{Target: b.innerLoop().end})
	case *ast.Continue:
		b.fn.Emit(rtl.Igoto{Target: b.innerLoop().top})
	default:
		fail("%s: cannot translate statement %T", b.fun.Name, s)
	}
}

func (b *builder) innerLoop() loop {
	if len(b.loops) == 0 {
		fail("%s: break or continue outside a loop", b.fun.Name)
	}
	return b.loops[len(b.loops)-1]
}

// branchIfZero evaluates a condition and jumps to target when it is false
func (b *builder) branchIfZero(cond ast.Expr, target string) {
	c := b.expr(cond)
	b.fn.Emit(rtl.Icond{Cond: rtl.Ceq, Left: c, Right: rtl.Zero, IfSo: target})
}

// returnStmt leaves a scalar result in $v0 and copies an aggregate result
// to the caller's destination
func (b *builder) returnStmt(s *ast.Return) {
	if s.Value != nil {
		want := b.fun.Return
		if layout.IsAggregate(want) {
			b.copyBytes(address{b.retPtr, 0}, b.addr(s.Value), want)
		} else {
			v := b.convert(b.expr(s.Value), s.Value.Type(), want)
			b.emitMove(v, rtl.V0)
		}
	}
	b.fn.Emit(rtl.Ireturn{})
}
