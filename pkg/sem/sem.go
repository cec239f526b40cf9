// Package sem implements the MiniC semantic analyzer. It resolves every name
// to its declaration, assigns a type to every expression, binds field
// accesses and method calls statically, and collects every violation of the
// typing, casting, visibility and scoping rules.
package sem

import (
	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/layout"
)

// RuntimeFunctions returns fresh declarations of the functions provided by
// the runtime library
func RuntimeFunctions() []*ast.FunDecl {
	fn := func(name string, ret layout.Type, params ...layout.Type) *ast.FunDecl {
		f := &ast.FunDecl{Name: name, Return: ret, Runtime: true}
		for i, p := range params {
			f.Params = append(f.Params, &ast.VarDecl{Name: string(rune('a' + i)), Type: p, Kind: ast.Param})
		}
		return f
	}
	return []*ast.FunDecl{
		fn("print_i", layout.Void(), layout.Int()),
		fn("print_c", layout.Void(), layout.Char()),
		fn("print_s", layout.Void(), layout.Pointer(layout.Char())),
		fn("read_i", layout.Int()),
		fn("read_c", layout.Char()),
	}
}

// funcEntry tracks the prototype and definition seen for one function name
type funcEntry struct {
	proto *ast.FunDecl
	def   *ast.FunDecl
}

// binding returns the declaration calls should bind to
func (e *funcEntry) binding() *ast.FunDecl {
	if e.def != nil {
		return e.def
	}
	return e.proto
}

type analyzer struct {
	table   *layout.Table
	errs    diag.List
	funcs   map[string]*funcEntry
	globals *scope
	scope   *scope            // innermost scope of the current function
	class   *layout.Aggregate // class whose method is being analyzed
	fun     *ast.FunDecl
	loops   int
}

// Check builds the Layout Table from the program's aggregate declarations
// and analyzes the program against it. The returned errors are sorted by
// position.
func Check(prog *ast.Program) (*layout.Table, diag.List) {
	table, errs := layout.Build(prog.Aggregates())
	errs.Append(Analyze(prog, table))
	errs.Sort()
	return table, errs
}

// Analyze annotates prog in place and returns every semantic error found
func Analyze(prog *ast.Program, table *layout.Table) diag.List {
	a := &analyzer{
		table:   table,
		funcs:   make(map[string]*funcEntry),
		globals: newScope(nil),
	}
	for _, f := range RuntimeFunctions() {
		a.funcs[f.Name] = &funcEntry{def: f}
	}

	a.hoistFunctions(prog)
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.GlobalDecl:
			a.globalVar(d.Var)
		case *ast.FunDecl:
			if d.Body != nil {
				a.function(d, nil)
			}
		case *ast.ClassDecl:
			a.classDecl(d)
		case *ast.StructDecl:
			a.fieldTypes(d.Fields)
		}
	}
	a.checkMain(prog)

	a.errs.Sort()
	return a.errs
}

func (a *analyzer) errorf(kind diag.Kind, pos diag.Pos, format string, args ...any) {
	a.errs.Add(kind, pos, format, args...)
}

// hoistFunctions registers every top-level function before any body is
// analyzed, so calls may precede definitions
func (a *analyzer) hoistFunctions(prog *ast.Program) {
	for _, d := range prog.Decls {
		f, ok := d.(*ast.FunDecl)
		if !ok {
			continue
		}
		e, seen := a.funcs[f.Name]
		switch {
		case !seen:
			e = &funcEntry{}
			a.funcs[f.Name] = e
		case e.binding().Runtime:
			a.errorf(diag.DuplicateDeclarationError, f.Pos,
				"%s is a runtime library function", f.Name)
			continue
		case f.Body == nil && e.proto != nil:
			a.errorf(diag.DuplicateDeclarationError, f.Pos,
				"function %s already declared at %s", f.Name, e.proto.Pos)
			continue
		case f.Body != nil && e.def != nil:
			a.errorf(diag.DuplicateDeclarationError, f.Pos,
				"function %s already defined at %s", f.Name, e.def.Pos)
			continue
		default:
			if other := e.binding(); !sameSignature(other, f) {
				a.errorf(diag.DuplicateDeclarationError, f.Pos,
					"conflicting types for %s, previously declared at %s", f.Name, other.Pos)
				continue
			}
		}
		if f.Body == nil {
			e.proto = f
		} else {
			e.def = f
		}
	}

	for _, d := range prog.Decls {
		f, ok := d.(*ast.FunDecl)
		if !ok {
			continue
		}
		if e := a.funcs[f.Name]; e.proto == f {
			a.signatureTypes(f)
			if e.def == nil {
				a.errorf(diag.UndeclaredIdentifierError, f.Pos,
					"function %s is declared but never defined", f.Name)
			}
		}
	}
}

// globalVar declares a global variable; it is visible from here on
func (a *analyzer) globalVar(v *ast.VarDecl) {
	a.varType(v)
	if prev, dup := a.globals.lookupCurrent(v.Name); dup {
		a.errorf(diag.DuplicateDeclarationError, v.Pos,
			"%s already declared at %s", v.Name, prev.Pos)
		return
	}
	if _, isFunc := a.funcs[v.Name]; isFunc {
		a.errorf(diag.DuplicateDeclarationError, v.Pos,
			"%s already declared as a function", v.Name)
		return
	}
	a.globals.put(v)
}

// varType reports a declared variable whose type is unusable
func (a *analyzer) varType(v *ast.VarDecl) bool {
	if !a.table.Exists(v.Type) {
		a.errorf(diag.UnresolvedTypeError, v.Pos, "%s has undeclared type %s", v.Name, v.Type)
		return false
	}
	if containsVoid(v.Type) {
		a.errorf(diag.TypeMismatchError, v.Pos, "%s declared with type %s", v.Name, v.Type)
		return false
	}
	return true
}

// fieldTypes checks field declarations for void; undeclared field types are
// reported by the Layout Table
func (a *analyzer) fieldTypes(fields []*ast.VarDecl) {
	for _, f := range fields {
		if containsVoid(f.Type) {
			a.errorf(diag.TypeMismatchError, f.Pos, "field %s declared with type %s", f.Name, f.Type)
		}
	}
}

// signatureTypes checks the parameter and return types of a function
func (a *analyzer) signatureTypes(f *ast.FunDecl) {
	for _, p := range f.Params {
		a.varType(p)
	}
	if !a.table.Exists(f.Return) {
		a.errorf(diag.UnresolvedTypeError, f.Pos, "%s returns undeclared type %s", f.Name, f.Return)
	}
	if _, isArray := f.Return.(layout.Tarray); isArray {
		a.errorf(diag.TypeMismatchError, f.Pos, "%s cannot return an array", f.Name)
	}
}

func (a *analyzer) classDecl(d *ast.ClassDecl) {
	a.fieldTypes(d.Fields)
	agg, ok := a.table.Lookup(d.Name)
	if !ok || !agg.IsClass {
		return
	}
	for _, m := range d.Methods {
		for _, lm := range agg.Methods {
			if lm.Name == m.Name && lm.Pos == m.Pos {
				m.Method = lm
			}
		}
		if m.Method == nil {
			continue // rejected by the Layout Table
		}
		if agg.Parent != nil {
			if over, ok := agg.Parent.Method(m.Name); ok && !sameMethodSignature(over, m.Method) {
				a.errorf(diag.TypeMismatchError, m.Pos,
					"%s.%s does not match the signature of %s.%s", d.Name, m.Name, over.Owner, over.Name)
			}
		}
		a.function(m, agg)
	}
}

func sameMethodSignature(a, b *layout.Method) bool {
	if len(a.Params) != len(b.Params) || !layout.Equal(a.Return, b.Return) {
		return false
	}
	for i := range a.Params {
		if !layout.Equal(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return true
}

// function analyzes one function or method body. Parameters get their own
// scope and the body block nests inside it.
func (a *analyzer) function(f *ast.FunDecl, class *layout.Aggregate) {
	a.fun, a.class, a.loops = f, class, 0
	defer func() { a.fun, a.class, a.scope = nil, nil, nil }()

	if class == nil {
		a.signatureTypes(f)
	} else {
		f.This = &ast.VarDecl{Pos: f.Pos, Name: "this", Type: layout.Pointer(class.Type()), Kind: ast.Param}
		if containsVoid(f.Return) && !layout.IsVoid(f.Return) {
			a.errorf(diag.TypeMismatchError, f.Pos, "%s cannot return %s", f.Name, f.Return)
		}
		for _, p := range f.Params {
			if containsVoid(p.Type) {
				a.errorf(diag.TypeMismatchError, p.Pos, "%s declared with type %s", p.Name, p.Type)
			}
		}
	}

	a.scope = newScope(nil)
	for _, p := range f.Params {
		if prev, dup := a.scope.lookupCurrent(p.Name); dup {
			a.errorf(diag.DuplicateDeclarationError, p.Pos,
				"parameter %s already declared at %s", p.Name, prev.Pos)
			continue
		}
		a.scope.put(p)
	}
	a.block(f.Body)
}

// checkMain requires a main function taking no arguments
func (a *analyzer) checkMain(prog *ast.Program) {
	e, ok := a.funcs["main"]
	if !ok || e.def == nil || e.def.Runtime {
		a.errorf(diag.UndeclaredIdentifierError, diag.Pos{Line: 1, Column: 1}, "program has no main function")
		return
	}
	main := e.def
	if len(main.Params) != 0 {
		a.errorf(diag.TypeMismatchError, main.Pos, "main must not take parameters")
	}
	if !layout.IsVoid(main.Return) && !layout.IsInteger(main.Return) {
		a.errorf(diag.TypeMismatchError, main.Pos, "main must return int or void")
	}
}
