package sem

import (
	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/layout"
)

// assignable reports whether a value of type src may be stored into a
// location of type dst. Aggregates must match exactly, int and char convert
// freely, and pointers must be identical. Arrays are only accepted when
// allowArrays is set, for arguments passed to array parameters.
func assignable(dst, src layout.Type, allowArrays bool) bool {
	if layout.IsVoid(dst) || layout.IsVoid(src) {
		return false
	}
	switch dst.(type) {
	case layout.Tint, layout.Tchar:
		return layout.IsInteger(src)
	case layout.Tpointer, layout.Tstruct, layout.Tclass:
		return layout.Equal(dst, src)
	case layout.Tarray:
		return allowArrays && layout.Equal(dst, src)
	}
	return false
}

// castable reports whether (to) e is a legal static cast for e of type from
func castable(table *layout.Table, from, to layout.Type) bool {
	if layout.Equal(from, to) {
		return !layout.IsVoid(to)
	}
	if layout.IsInteger(from) && layout.IsInteger(to) {
		return true
	}
	switch ft := from.(type) {
	case layout.Tarray:
		pt, ok := to.(layout.Tpointer)
		return ok && layout.Equal(ft.Elem, pt.Elem)
	case layout.Tpointer:
		pt, ok := to.(layout.Tpointer)
		if !ok {
			return false
		}
		return layout.Equal(ft.Elem, pt.Elem) || isUpcast(table, ft.Elem, pt.Elem)
	case layout.Tclass:
		return isUpcast(table, from, to)
	}
	return false
}

// isUpcast reports whether class type to is a proper or improper ancestor
// of class type from
func isUpcast(table *layout.Table, from, to layout.Type) bool {
	fc, ok := from.(layout.Tclass)
	if !ok {
		return false
	}
	tc, ok := to.(layout.Tclass)
	if !ok {
		return false
	}
	fa, ok1 := table.Lookup(fc.Name)
	ta, ok2 := table.Lookup(tc.Name)
	return ok1 && ok2 && fa.IsAncestorOrSelf(ta)
}

// isLValue reports whether e denotes a storage location
func isLValue(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.VarRef:
		return true
	case *ast.FieldAccess:
		return isLValue(e.Receiver)
	case *ast.Index:
		if _, ok := e.Array.Type().(layout.Tpointer); ok {
			return true
		}
		return isLValue(e.Array)
	case *ast.Unary:
		return e.Op == ast.OpDeref
	case *ast.Cast:
		return layout.IsAggregate(e.To) && isLValue(e.Expr)
	}
	return false
}

// sameSignature compares parameter and return types
func sameSignature(a, b *ast.FunDecl) bool {
	if len(a.Params) != len(b.Params) || !layout.Equal(a.Return, b.Return) {
		return false
	}
	for i := range a.Params {
		if !layout.Equal(a.Params[i].Type, b.Params[i].Type) {
			return false
		}
	}
	return true
}

// containsVoid reports whether t is void or an array of void
func containsVoid(t layout.Type) bool {
	for {
		switch tt := t.(type) {
		case layout.Tvoid:
			return true
		case layout.Tarray:
			t = tt.Elem
			continue
		}
		return false
	}
}
