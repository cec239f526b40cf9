package sem

import (
	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/layout"
)

// expr types e and its operands. It returns nil when e is ill-typed; the
// error has already been reported and callers stay silent about it.
func (a *analyzer) expr(e ast.Expr) layout.Type {
	t := a.exprType(e)
	e.SetType(t)
	return t
}

func (a *analyzer) exprType(e ast.Expr) layout.Type {
	switch e := e.(type) {
	case *ast.IntLit:
		return layout.Int()
	case *ast.CharLit:
		return layout.Char()
	case *ast.StringLit:
		return layout.Array(layout.Char(), len(e.Value)+1)
	case *ast.VarRef:
		return a.varRef(e)
	case *ast.Binary:
		return a.binary(e)
	case *ast.Unary:
		return a.unary(e)
	case *ast.Assign:
		return a.assign(e)
	case *ast.Cast:
		return a.cast(e)
	case *ast.Sizeof:
		if !a.table.Exists(e.Of) {
			a.errorf(diag.UnresolvedTypeError, e.Pos, "sizeof undeclared type %s", e.Of)
			return nil
		}
		if layout.IsVoid(e.Of) {
			a.errorf(diag.TypeMismatchError, e.Pos, "sizeof applied to void")
			return nil
		}
		return layout.Int()
	case *ast.Index:
		return a.index(e)
	case *ast.FieldAccess:
		return a.fieldAccess(e)
	case *ast.Call:
		return a.call(e)
	case *ast.MethodCall:
		return a.methodCall(e)
	}
	return nil
}

// varRef resolves a name: locals and parameters, then fields of the
// enclosing class, then globals
func (a *analyzer) varRef(e *ast.VarRef) layout.Type {
	if v, ok := a.scope.lookup(e.Name); ok {
		e.Decl = v
		return v.Type
	}
	if a.class != nil {
		if f, ok := a.class.Field(e.Name); ok {
			e.Field = f
			return f.Type
		}
	}
	if v, ok := a.globals.lookup(e.Name); ok {
		e.Decl = v
		return v.Type
	}
	if a.class != nil {
		if owner, ok := a.descendantField(a.class, e.Name); ok {
			a.errorf(diag.InvisibleMemberError, e.Pos,
				"field %s is declared in %s, not visible from class %s", e.Name, owner, a.class.Name)
			return nil
		}
	}
	if _, isFunc := a.funcs[e.Name]; isFunc {
		a.errorf(diag.TypeMismatchError, e.Pos, "function %s used as a value", e.Name)
		return nil
	}
	a.errorf(diag.UndeclaredIdentifierError, e.Pos, "undeclared identifier %s", e.Name)
	return nil
}

func (a *analyzer) binary(e *ast.Binary) layout.Type {
	lt := a.expr(e.Left)
	rt := a.expr(e.Right)
	if lt == nil || rt == nil {
		return nil
	}
	switch e.Op {
	case ast.OpAnd, ast.OpOr:
		if layout.IsScalar(lt) && layout.IsScalar(rt) {
			return layout.Int()
		}
	case ast.OpEq, ast.OpNe:
		if layout.IsInteger(lt) && layout.IsInteger(rt) {
			return layout.Int()
		}
		if _, ok := lt.(layout.Tpointer); ok && layout.Equal(lt, rt) {
			return layout.Int()
		}
	default:
		if layout.IsInteger(lt) && layout.IsInteger(rt) {
			return layout.Int()
		}
	}
	a.errorf(diag.TypeMismatchError, e.Pos, "invalid operands to %s: %s and %s", e.Op, lt, rt)
	return nil
}

func (a *analyzer) unary(e *ast.Unary) layout.Type {
	t := a.expr(e.Operand)
	if t == nil {
		return nil
	}
	switch e.Op {
	case ast.OpNeg:
		if layout.IsInteger(t) {
			return layout.Int()
		}
		a.errorf(diag.TypeMismatchError, e.Pos, "invalid operand to unary -: %s", t)
	case ast.OpDeref:
		if pt, ok := t.(layout.Tpointer); ok && !layout.IsVoid(pt.Elem) {
			return pt.Elem
		}
		a.errorf(diag.TypeMismatchError, e.Pos, "cannot dereference %s", t)
	case ast.OpAddrOf:
		if !isLValue(e.Operand) {
			a.errorf(diag.TypeMismatchError, e.Pos, "cannot take the address of an rvalue")
			return nil
		}
		if ref, ok := e.Operand.(*ast.VarRef); ok && ref.Decl != nil {
			ref.Decl.AddrTaken = true
		}
		return layout.Pointer(t)
	}
	return nil
}

func (a *analyzer) assign(e *ast.Assign) layout.Type {
	lt := a.expr(e.Target)
	rt := a.expr(e.Value)
	if lt == nil || rt == nil {
		return nil
	}
	if !isLValue(e.Target) {
		a.errorf(diag.TypeMismatchError, e.Pos, "assignment target is not an lvalue")
		return nil
	}
	if !assignable(lt, rt, false) {
		a.errorf(diag.TypeMismatchError, e.Pos, "cannot assign %s to %s", rt, lt)
		return nil
	}
	return lt
}

// cast checks a static cast. A legal cast only narrows the static type;
// member access on the result is checked against the target type.
func (a *analyzer) cast(e *ast.Cast) layout.Type {
	from := a.expr(e.Expr)
	if !a.table.Exists(e.To) {
		a.errorf(diag.UnresolvedTypeError, e.Pos, "cast to undeclared type %s", e.To)
		return nil
	}
	if from == nil {
		return nil
	}
	if !castable(a.table, from, e.To) {
		a.errorf(diag.InvalidCastError, e.Pos, "cannot cast %s to %s", from, e.To)
		return nil
	}
	return e.To
}

func (a *analyzer) index(e *ast.Index) layout.Type {
	at := a.expr(e.Array)
	it := a.expr(e.Index)
	if at == nil || it == nil {
		return nil
	}
	if !layout.IsInteger(it) {
		a.errorf(diag.TypeMismatchError, e.Index.Position(), "array index has type %s, expected int", it)
		return nil
	}
	switch t := at.(type) {
	case layout.Tarray:
		return t.Elem
	case layout.Tpointer:
		if !layout.IsVoid(t.Elem) {
			return t.Elem
		}
	}
	a.errorf(diag.TypeMismatchError, e.Pos, "cannot index %s", at)
	return nil
}

// receiver returns the aggregate a member is accessed on
func (a *analyzer) receiver(recv ast.Expr, member string, pos diag.Pos) *layout.Aggregate {
	t := a.expr(recv)
	if t == nil {
		return nil
	}
	agg, ok := a.table.LookupType(t)
	if !ok {
		a.errorf(diag.TypeMismatchError, pos, "request for member %s in non-aggregate type %s", member, t)
		return nil
	}
	return agg
}

func (a *analyzer) fieldAccess(e *ast.FieldAccess) layout.Type {
	agg := a.receiver(e.Receiver, e.Name, e.Pos)
	if agg == nil {
		return nil
	}
	if f, ok := agg.Field(e.Name); ok {
		e.Field = f
		return f.Type
	}
	if owner, ok := a.descendantField(agg, e.Name); ok {
		a.errorf(diag.InvisibleMemberError, e.Pos,
			"field %s is declared in %s and not visible through static type %s", e.Name, owner, agg.Type())
		return nil
	}
	a.errorf(diag.UndeclaredIdentifierError, e.Pos, "%s has no field %s", agg.Type(), e.Name)
	return nil
}

func (a *analyzer) methodCall(e *ast.MethodCall) layout.Type {
	agg := a.receiver(e.Receiver, e.Name, e.Pos)
	if agg == nil {
		a.args(e.Args)
		return nil
	}
	if !agg.IsClass {
		a.args(e.Args)
		a.errorf(diag.TypeMismatchError, e.Pos, "%s has no methods", agg.Type())
		return nil
	}
	m, ok := agg.Method(e.Name)
	if !ok {
		a.args(e.Args)
		if owner, ok := a.descendantMethod(agg, e.Name); ok {
			a.errorf(diag.InvisibleMemberError, e.Pos,
				"method %s is declared in %s and not visible through static type %s", e.Name, owner, agg.Type())
			return nil
		}
		a.errorf(diag.UndeclaredIdentifierError, e.Pos, "%s has no method %s", agg.Type(), e.Name)
		return nil
	}
	e.Method = m
	if !a.checkArgs(e.Name, e.Pos, m.Params, e.Args) {
		return nil
	}
	return m.Return
}

// call resolves a call by name. Inside a method body the methods of the
// enclosing class shadow global functions.
func (a *analyzer) call(e *ast.Call) layout.Type {
	if a.class != nil {
		if m, ok := a.class.Method(e.Name); ok {
			e.Method = m
			if !a.checkArgs(e.Name, e.Pos, m.Params, e.Args) {
				return nil
			}
			return m.Return
		}
	}
	if v, ok := a.scope.lookup(e.Name); ok {
		a.args(e.Args)
		a.errorf(diag.TypeMismatchError, e.Pos, "%s is a variable of type %s, not a function", e.Name, v.Type)
		return nil
	}
	entry, ok := a.funcs[e.Name]
	if !ok {
		a.args(e.Args)
		if a.class != nil {
			if owner, ok := a.descendantMethod(a.class, e.Name); ok {
				a.errorf(diag.InvisibleMemberError, e.Pos,
					"method %s is declared in %s, not visible from class %s", e.Name, owner, a.class.Name)
				return nil
			}
		}
		a.errorf(diag.UndeclaredIdentifierError, e.Pos, "undeclared function %s", e.Name)
		return nil
	}
	f := entry.binding()
	e.Func = f
	params := make([]layout.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
	}
	if !a.checkArgs(e.Name, e.Pos, params, e.Args) {
		return nil
	}
	return f.Return
}

// args types argument expressions whose call could not be resolved
func (a *analyzer) args(args []ast.Expr) {
	for _, arg := range args {
		a.expr(arg)
	}
}

// checkArgs types the arguments and checks them against the parameters
func (a *analyzer) checkArgs(name string, pos diag.Pos, params []layout.Type, args []ast.Expr) bool {
	ok := true
	for i, arg := range args {
		t := a.expr(arg)
		if t == nil {
			ok = false
			continue
		}
		if i < len(params) && !assignable(params[i], t, true) {
			a.errorf(diag.TypeMismatchError, arg.Position(),
				"argument %d of %s has type %s, expected %s", i+1, name, t, params[i])
			ok = false
		}
	}
	if len(args) != len(params) {
		a.errorf(diag.TypeMismatchError, pos,
			"%s expects %d arguments, got %d", name, len(params), len(args))
		return false
	}
	return ok
}

// descendantField finds a subclass of agg declaring the named field
func (a *analyzer) descendantField(agg *layout.Aggregate, name string) (string, bool) {
	for _, d := range a.table.Descendants(agg) {
		if f, ok := d.Field(name); ok && f.Owner == d.Name {
			return d.Name, true
		}
	}
	return "", false
}

// descendantMethod finds a subclass of agg declaring the named method
func (a *analyzer) descendantMethod(agg *layout.Aggregate, name string) (string, bool) {
	for _, d := range a.table.Descendants(agg) {
		for _, m := range d.Methods {
			if m.Name == name {
				return d.Name, true
			}
		}
	}
	return "", false
}
