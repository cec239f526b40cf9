// Package ast defines the MiniC syntax tree. The parser builds it and the
// semantic analyzer annotates it in place with types and bindings.
package ast

import (
	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/layout"
)

// Node is the base interface for all AST nodes
type Node interface {
	Position() diag.Pos
}

// Expr is the interface for all expression nodes.
// Type returns nil until the semantic analyzer has run.
type Expr interface {
	Node
	implExpr()
	Type() layout.Type
	SetType(layout.Type)
	SetPos(diag.Pos)
}

// Stmt is the interface for all statement nodes
type Stmt interface {
	Node
	implStmt()
}

// Decl is the interface for top-level declarations
type Decl interface {
	Node
	implDecl()
}

// exprBase carries the position and the annotated type of an expression
type exprBase struct {
	Pos diag.Pos
	typ layout.Type
}

func (e *exprBase) Position() diag.Pos      { return e.Pos }
func (e *exprBase) SetPos(pos diag.Pos)     { e.Pos = pos }
func (e *exprBase) Type() layout.Type       { return e.typ }
func (e *exprBase) SetType(typ layout.Type) { e.typ = typ }
func (e *exprBase) implExpr()               {}

// BinaryOp represents binary operators
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd // &&
	OpOr  // ||
)

func (op BinaryOp) String() string {
	names := []string{"+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "&&", "||"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// IsComparison reports whether op yields a 0/1 truth value from two scalars
func (op BinaryOp) IsComparison() bool {
	return op >= OpLt && op <= OpNe
}

// UnaryOp represents unary operators
type UnaryOp int

const (
	OpNeg    UnaryOp = iota // -
	OpDeref                 // *
	OpAddrOf                // &
)

func (op UnaryOp) String() string {
	names := []string{"-", "*", "&"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// IntLit is an integer literal
type IntLit struct {
	exprBase
	Value int32
}

// CharLit is a character literal, already unescaped
type CharLit struct {
	exprBase
	Value byte
}

// StringLit is a string literal, already unescaped. Its type is a char array
// one byte longer than Value.
type StringLit struct {
	exprBase
	Value string
}

// VarRef names a variable. Inside a method body an unqualified field name
// resolves to Field on the implicit receiver instead of Decl.
type VarRef struct {
	exprBase
	Name  string
	Decl  *VarDecl
	Field *layout.Field
}

// Binary is a binary operation
type Binary struct {
	exprBase
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Unary is a prefix operation
type Unary struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

// Assign stores Value into the location denoted by Target
type Assign struct {
	exprBase
	Target Expr
	Value  Expr
}

// Cast is an explicit static cast; it changes the static type only
type Cast struct {
	exprBase
	To   layout.Type
	Expr Expr
}

// Sizeof is sizeof(type)
type Sizeof struct {
	exprBase
	Of layout.Type
}

// Index is array subscript access: arr[idx]
type Index struct {
	exprBase
	Array Expr
	Index Expr
}

// FieldAccess is recv.name
type FieldAccess struct {
	exprBase
	Receiver Expr
	Name     string
	Field    *layout.Field
}

// Call is a call by name. It binds either to a function, or inside a
// method body, to a method of the enclosing class called on the
// implicit receiver.
type Call struct {
	exprBase
	Name   string
	Args   []Expr
	Func   *FunDecl
	Method *layout.Method
}

// MethodCall is recv.name(args), bound statically from the receiver's type
type MethodCall struct {
	exprBase
	Receiver Expr
	Name     string
	Args     []Expr
	Method   *layout.Method
}

// Block is a compound statement. MiniC declares locals at the top of a block.
type Block struct {
	Pos   diag.Pos
	Decls []*VarDecl
	Stmts []Stmt
}

// ExprStmt evaluates an expression for its side effects
type ExprStmt struct {
	X Expr
}

// If statement; Else may be nil
type If struct {
	Pos  diag.Pos
	Cond Expr
	Then Stmt
	Else Stmt
}

// While loop
type While struct {
	Pos  diag.Pos
	Cond Expr
	Body Stmt
}

// Return statement; Value is nil for a bare return
type Return struct {
	Pos   diag.Pos
	Value Expr
	Fun   *FunDecl // enclosing function, set by sem
}

// Break leaves the innermost loop
type Break struct {
	Pos diag.Pos
}

// Continue jumps to the condition of the innermost loop
type Continue struct {
	Pos diag.Pos
}

func (s *Block) Position() diag.Pos    { return s.Pos }
func (s *ExprStmt) Position() diag.Pos { return s.X.Position() }
func (s *If) Position() diag.Pos       { return s.Pos }
func (s *While) Position() diag.Pos    { return s.Pos }
func (s *Return) Position() diag.Pos   { return s.Pos }
func (s *Break) Position() diag.Pos    { return s.Pos }
func (s *Continue) Position() diag.Pos { return s.Pos }

func (*Block) implStmt()    {}
func (*ExprStmt) implStmt() {}
func (*If) implStmt()       {}
func (*While) implStmt()    {}
func (*Return) implStmt()   {}
func (*Break) implStmt()    {}
func (*Continue) implStmt() {}

// VarKind is the storage class of a variable
type VarKind int

const (
	Global VarKind = iota
	Local
	Param
	FieldVar // a field inside a struct or class body
)

func (k VarKind) String() string {
	switch k {
	case Global:
		return "global"
	case Local:
		return "local"
	case Param:
		return "param"
	case FieldVar:
		return "field"
	}
	return "?"
}

// VarDecl declares a variable, parameter or field. It is the symbol that
// VarRef nodes bind to.
type VarDecl struct {
	Pos       diag.Pos
	Name      string
	Type      layout.Type
	Kind      VarKind
	AddrTaken bool // set by sem when & is applied to it
}

// FunDecl is a function or method. Body is nil for a prototype and for
// runtime functions.
type FunDecl struct {
	Pos     diag.Pos
	Name    string
	Params  []*VarDecl
	Return  layout.Type
	Body    *Block
	Class   string         // owning class for methods
	Method  *layout.Method // set by sem for methods
	This    *VarDecl       // implicit receiver pointer of a method, set by sem
	Runtime bool           // provided by the runtime library
}

// Label returns the assembly symbol of the compiled body
func (f *FunDecl) Label() string {
	if f.Class != "" {
		return layout.MethodLabel(f.Class, f.Name)
	}
	return f.Name
}

// StructDecl declares a struct type
type StructDecl struct {
	Pos    diag.Pos
	Name   string
	Fields []*VarDecl
}

// ClassDecl declares a class type with its methods
type ClassDecl struct {
	Pos       diag.Pos
	Name      string
	Parent    string
	ParentPos diag.Pos
	Fields    []*VarDecl
	Methods   []*FunDecl
}

// GlobalDecl wraps a global variable declaration
type GlobalDecl struct {
	Var *VarDecl
}

func (d *FunDecl) Position() diag.Pos    { return d.Pos }
func (d *StructDecl) Position() diag.Pos { return d.Pos }
func (d *ClassDecl) Position() diag.Pos  { return d.Pos }
func (d *GlobalDecl) Position() diag.Pos { return d.Var.Pos }
func (d *VarDecl) Position() diag.Pos    { return d.Pos }

func (*FunDecl) implDecl()    {}
func (*StructDecl) implDecl() {}
func (*ClassDecl) implDecl()  {}
func (*GlobalDecl) implDecl() {}

// Program is a translation unit in source order
type Program struct {
	Includes []string
	Decls    []Decl
}

// Aggregates returns the layout declarations of every struct and class
func (p *Program) Aggregates() []layout.Decl {
	var out []layout.Decl
	for _, d := range p.Decls {
		switch d := d.(type) {
		case *StructDecl:
			out = append(out, layout.Decl{
				Name:   d.Name,
				Fields: fieldDecls(d.Fields),
				Pos:    d.Pos,
			})
		case *ClassDecl:
			ld := layout.Decl{
				Name:      d.Name,
				IsClass:   true,
				Parent:    d.Parent,
				Fields:    fieldDecls(d.Fields),
				Pos:       d.Pos,
				ParentPos: d.ParentPos,
			}
			for _, m := range d.Methods {
				md := layout.MethodDecl{Name: m.Name, Return: m.Return, Pos: m.Pos}
				for _, prm := range m.Params {
					md.Params = append(md.Params, prm.Type)
				}
				ld.Methods = append(ld.Methods, md)
			}
			out = append(out, ld)
		}
	}
	return out
}

func fieldDecls(vars []*VarDecl) []layout.FieldDecl {
	out := make([]layout.FieldDecl, 0, len(vars))
	for _, v := range vars {
		out = append(out, layout.FieldDecl{Name: v.Name, Type: v.Type, Pos: v.Pos})
	}
	return out
}

// Functions returns every function and method that has a body
func (p *Program) Functions() []*FunDecl {
	var out []*FunDecl
	for _, d := range p.Decls {
		switch d := d.(type) {
		case *FunDecl:
			if d.Body != nil {
				out = append(out, d)
			}
		case *ClassDecl:
			out = append(out, d.Methods...)
		}
	}
	return out
}

// Globals returns the global variables in declaration order
func (p *Program) Globals() []*VarDecl {
	var out []*VarDecl
	for _, d := range p.Decls {
		if g, ok := d.(*GlobalDecl); ok {
			out = append(out, g.Var)
		}
	}
	return out
}
