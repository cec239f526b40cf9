// Package layout defines the MiniC type system and the Layout Table, which
// fixes the size of every type and the offset of every struct and class field.
package layout

import (
	"fmt"
	"strings"
)

// Type is the interface for all MiniC types
type Type interface {
	implType()
	String() string
}

// Tvoid represents the void type
type Tvoid struct{}

// Tint represents the 32-bit int type
type Tint struct{}

// Tchar represents the 8-bit char type
type Tchar struct{}

// Tpointer represents pointer types
type Tpointer struct {
	Elem Type
}

// Tarray represents fixed-size array types
type Tarray struct {
	Elem Type
	Len  int
}

// Tstruct names a struct aggregate; its layout lives in the Table
type Tstruct struct {
	Name string
}

// Tclass names a class aggregate; its layout lives in the Table
type Tclass struct {
	Name string
}

// Marker methods for Type interface
func (Tvoid) implType()    {}
func (Tint) implType()     {}
func (Tchar) implType()    {}
func (Tpointer) implType() {}
func (Tarray) implType()   {}
func (Tstruct) implType()  {}
func (Tclass) implType()   {}

func (Tvoid) String() string { return "void" }
func (Tint) String() string  { return "int" }
func (Tchar) String() string { return "char" }

func (t Tpointer) String() string {
	return t.Elem.String() + "*"
}

func (t Tarray) String() string {
	// Print dimensions outermost-first: int[2][3] is an array of 2 int[3]
	var dims []string
	var elem Type = t
	for {
		a, ok := elem.(Tarray)
		if !ok {
			break
		}
		dims = append(dims, fmt.Sprintf("[%d]", a.Len))
		elem = a.Elem
	}
	return elem.String() + strings.Join(dims, "")
}

func (t Tstruct) String() string { return "struct " + t.Name }
func (t Tclass) String() string  { return "class " + t.Name }

// Convenience constructors
func Void() Type                  { return Tvoid{} }
func Int() Type                   { return Tint{} }
func Char() Type                  { return Tchar{} }
func Pointer(elem Type) Type      { return Tpointer{Elem: elem} }
func Array(elem Type, n int) Type { return Tarray{Elem: elem, Len: n} }
func Struct(name string) Type     { return Tstruct{Name: name} }
func Class(name string) Type      { return Tclass{Name: name} }

// Equal reports whether two types are structurally identical.
// Aggregates compare by name.
func Equal(a, b Type) bool {
	switch ta := a.(type) {
	case Tvoid, Tint, Tchar:
		return a == b
	case Tpointer:
		tb, ok := b.(Tpointer)
		return ok && Equal(ta.Elem, tb.Elem)
	case Tarray:
		tb, ok := b.(Tarray)
		return ok && ta.Len == tb.Len && Equal(ta.Elem, tb.Elem)
	case Tstruct:
		tb, ok := b.(Tstruct)
		return ok && ta.Name == tb.Name
	case Tclass:
		tb, ok := b.(Tclass)
		return ok && ta.Name == tb.Name
	}
	return false
}

// IsScalar reports whether t fits in a register: int, char or a pointer
func IsScalar(t Type) bool {
	switch t.(type) {
	case Tint, Tchar, Tpointer:
		return true
	}
	return false
}

// IsInteger reports whether t is int or char
func IsInteger(t Type) bool {
	switch t.(type) {
	case Tint, Tchar:
		return true
	}
	return false
}

// IsAggregate reports whether t is a struct or class value
func IsAggregate(t Type) bool {
	switch t.(type) {
	case Tstruct, Tclass:
		return true
	}
	return false
}

// AggregateName returns the name of a struct or class type
func AggregateName(t Type) (string, bool) {
	switch tt := t.(type) {
	case Tstruct:
		return tt.Name, true
	case Tclass:
		return tt.Name, true
	}
	return "", false
}

// IsVoid reports whether t is void
func IsVoid(t Type) bool {
	_, ok := t.(Tvoid)
	return ok
}

// IsChar reports whether t is char
func IsChar(t Type) bool {
	_, ok := t.(Tchar)
	return ok
}

// AlignUp rounds n up to the nearest multiple of align.
func AlignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
