package sem

import (
	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/layout"
)

func (a *analyzer) block(b *ast.Block) {
	outer := a.scope
	a.scope = newScope(outer)
	defer func() { a.scope = outer }()

	for _, v := range b.Decls {
		a.varType(v)
		if prev, dup := a.scope.lookupCurrent(v.Name); dup {
			a.errorf(diag.DuplicateDeclarationError, v.Pos,
				"%s already declared at %s", v.Name, prev.Pos)
			continue
		}
		a.scope.put(v)
	}
	for _, s := range b.Stmts {
		a.stmt(s)
	}
}

func (a *analyzer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Block:
		a.block(s)
	case *ast.ExprStmt:
		a.expr(s.X)
	case *ast.If:
		a.condition(s.Cond)
		a.stmt(s.Then)
		if s.Else != nil {
			a.stmt(s.Else)
		}
	case *ast.While:
		a.condition(s.Cond)
		a.loops++
		a.stmt(s.Body)
		a.loops--
	case *ast.Return:
		a.returnStmt(s)
	case *ast.Break:
		if a.loops == 0 {
			a.errorf(diag.TypeMismatchError, s.Pos, "break statement not within a loop")
		}
	case *ast.Continue:
		if a.loops == 0 {
			a.errorf(diag.TypeMismatchError, s.Pos, "continue statement not within a loop")
		}
	}
}

// condition requires a scalar controlling expression
func (a *analyzer) condition(e ast.Expr) {
	t := a.expr(e)
	if t != nil && !layout.IsScalar(t) {
		a.errorf(diag.TypeMismatchError, e.Position(), "condition has type %s, expected a scalar", t)
	}
}

func (a *analyzer) returnStmt(s *ast.Return) {
	s.Fun = a.fun
	want := a.fun.Return
	if s.Value == nil {
		if !layout.IsVoid(want) {
			a.errorf(diag.TypeMismatchError, s.Pos, "%s must return a value of type %s", a.fun.Name, want)
		}
		return
	}
	got := a.expr(s.Value)
	if got == nil {
		return
	}
	if layout.IsVoid(want) {
		a.errorf(diag.TypeMismatchError, s.Pos, "%s returns void but a value is returned", a.fun.Name)
		return
	}
	if !assignable(want, got, false) {
		a.errorf(diag.TypeMismatchError, s.Value.Position(),
			"cannot return %s from %s, which returns %s", got, a.fun.Name, want)
	}
}
