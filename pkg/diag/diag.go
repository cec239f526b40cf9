// Package diag defines source positions and the user-facing compile errors
// shared by the layout, semantic and parsing passes.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInternal marks a broken compiler invariant. It is never caused by user
// input; it means an earlier pass let something through that it should not have.
var ErrInternal = errors.New("internal compiler error")

// Pos is a 1-based source position
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before q in the source
func (p Pos) Before(q Pos) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Kind classifies a compile error
type Kind int

const (
	SyntaxError Kind = iota
	UnresolvedTypeError
	UnresolvedParentError
	InheritanceCycleError
	UndeclaredIdentifierError
	DuplicateDeclarationError
	TypeMismatchError
	InvisibleMemberError
	InvalidCastError
)

var kindNames = map[Kind]string{
	SyntaxError:               "SyntaxError",
	UnresolvedTypeError:       "UnresolvedTypeError",
	UnresolvedParentError:     "UnresolvedParentError",
	InheritanceCycleError:     "InheritanceCycleError",
	UndeclaredIdentifierError: "UndeclaredIdentifierError",
	DuplicateDeclarationError: "DuplicateDeclarationError",
	TypeMismatchError:         "TypeMismatchError",
	InvisibleMemberError:      "InvisibleMemberError",
	InvalidCastError:          "InvalidCastError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UnknownError"
}

// ParseKind maps a kind name such as "InvalidCastError" back to its Kind
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Error is a single diagnostic tied to a source position
type Error struct {
	Kind Kind
	Pos  Pos
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}

// Errorf builds an Error with a formatted message
func Errorf(kind Kind, pos Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// List collects diagnostics across a whole pass
type List []*Error

// Add appends a new diagnostic
func (l *List) Add(kind Kind, pos Pos, format string, args ...any) {
	*l = append(*l, Errorf(kind, pos, format, args...))
}

// Append appends every diagnostic of other
func (l *List) Append(other List) {
	*l = append(*l, other...)
}

// Sort orders diagnostics by position, keeping insertion order for ties
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].Pos.Before(l[j].Pos)
	})
}

// Has reports whether any diagnostic has the given kind
func (l List) Has(kind Kind) bool {
	for _, e := range l {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// Kinds returns the kinds of all diagnostics, in list order
func (l List) Kinds() []Kind {
	kinds := make([]Kind, len(l))
	for i, e := range l {
		kinds[i] = e.Kind
	}
	return kinds
}

// Err returns nil for an empty list and the list itself otherwise
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors:\n%s", len(l), strings.Join(msgs, "\n"))
}
