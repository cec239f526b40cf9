package layout

import (
	"github.com/raymyers/minicc/pkg/diag"
)

// Storage sizes of the scalar types, in bytes
const (
	IntSize     = 4
	CharSize    = 1
	PointerSize = 4
)

// FieldDecl is a field as written in a struct or class declaration
type FieldDecl struct {
	Name string
	Type Type
	Pos  diag.Pos
}

// MethodDecl is the signature of a method written in a class body
type MethodDecl struct {
	Name   string
	Params []Type
	Return Type
	Pos    diag.Pos
}

// Decl is one struct or class declaration handed to Build
type Decl struct {
	Name      string
	IsClass   bool
	Parent    string // empty when the class extends nothing
	Fields    []FieldDecl
	Methods   []MethodDecl
	Pos       diag.Pos
	ParentPos diag.Pos
}

// Field is a laid-out field. Inherited fields keep the Owner that declared them.
type Field struct {
	Name   string
	Type   Type
	Offset int
	Owner  string
}

// Method is a statically bound method. Label is the symbol of its compiled body.
type Method struct {
	Name   string
	Params []Type
	Return Type
	Owner  string
	Label  string
	Pos    diag.Pos
}

// MethodLabel returns the assembly symbol for a method body
func MethodLabel(owner, name string) string {
	return owner + "__" + name
}

// Aggregate describes the layout of a struct or a class.
// For a class, Fields starts with the parent's fields at the parent's offsets.
type Aggregate struct {
	Name    string
	IsClass bool
	Parent  *Aggregate
	Fields  []Field
	Methods []*Method // methods declared by this class only
	Size    int
	Align   int
	Pos     diag.Pos
}

// Type returns the MiniC type naming this aggregate
func (a *Aggregate) Type() Type {
	if a.IsClass {
		return Tclass{Name: a.Name}
	}
	return Tstruct{Name: a.Name}
}

// Field looks up a field, own or inherited
func (a *Aggregate) Field(name string) (*Field, bool) {
	for i := range a.Fields {
		if a.Fields[i].Name == name {
			return &a.Fields[i], true
		}
	}
	return nil, false
}

// Method looks up a method, walking up the parent chain; the nearest declaration wins
func (a *Aggregate) Method(name string) (*Method, bool) {
	for c := a; c != nil; c = c.Parent {
		for _, m := range c.Methods {
			if m.Name == name {
				return m, true
			}
		}
	}
	return nil, false
}

// IsAncestorOrSelf reports whether anc is a or one of its ancestors
func (a *Aggregate) IsAncestorOrSelf(anc *Aggregate) bool {
	for c := a; c != nil; c = c.Parent {
		if c == anc {
			return true
		}
	}
	return false
}

// Table is the Layout Table: one immutable Aggregate per declared struct or class.
type Table struct {
	aggs  map[string]*Aggregate
	order []*Aggregate
}

// Lookup returns the aggregate with the given name
func (t *Table) Lookup(name string) (*Aggregate, bool) {
	a, ok := t.aggs[name]
	return a, ok
}

// LookupType returns the aggregate named by a struct or class type
func (t *Table) LookupType(typ Type) (*Aggregate, bool) {
	switch tt := typ.(type) {
	case Tstruct:
		a, ok := t.aggs[tt.Name]
		return a, ok && !a.IsClass
	case Tclass:
		a, ok := t.aggs[tt.Name]
		return a, ok && a.IsClass
	}
	return nil, false
}

// AddMethod registers a method declared by class a
func (t *Table) AddMethod(a *Aggregate, m *Method) {
	m.Owner = a.Name
	if m.Label == "" {
		m.Label = MethodLabel(a.Name, m.Name)
	}
	a.Methods = append(a.Methods, m)
}

// Aggregates returns all aggregates in declaration order
func (t *Table) Aggregates() []*Aggregate {
	return t.order
}

// Descendants returns every class that has a as a proper ancestor
func (t *Table) Descendants(a *Aggregate) []*Aggregate {
	var out []*Aggregate
	for _, c := range t.order {
		if c != a && c.IsAncestorOrSelf(a) {
			out = append(out, c)
		}
	}
	return out
}

// Sizeof returns the storage size of a type in bytes
func (t *Table) Sizeof(typ Type) int {
	switch tt := typ.(type) {
	case Tint:
		return IntSize
	case Tchar:
		return CharSize
	case Tpointer:
		return PointerSize
	case Tarray:
		return tt.Len * t.Sizeof(tt.Elem)
	case Tstruct, Tclass:
		if a, ok := t.LookupType(typ); ok {
			return a.Size
		}
	}
	return 0
}

// Alignof returns the alignment of a type in bytes
func (t *Table) Alignof(typ Type) int {
	switch tt := typ.(type) {
	case Tint:
		return IntSize
	case Tchar:
		return CharSize
	case Tpointer:
		return PointerSize
	case Tarray:
		return t.Alignof(tt.Elem)
	case Tstruct, Tclass:
		if a, ok := t.LookupType(typ); ok {
			return a.Align
		}
	}
	return 1
}

// Exists reports whether every aggregate named inside typ is declared with the
// right kind. Pointers to declared aggregates count as existing.
func (t *Table) Exists(typ Type) bool {
	switch tt := typ.(type) {
	case Tpointer:
		return t.Exists(tt.Elem)
	case Tarray:
		return t.Exists(tt.Elem)
	case Tstruct, Tclass:
		_, ok := t.LookupType(typ)
		return ok
	}
	return true
}
