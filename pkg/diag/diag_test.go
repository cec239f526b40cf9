package diag

import (
	"errors"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{UnresolvedTypeError, "UnresolvedTypeError"},
		{InheritanceCycleError, "InheritanceCycleError"},
		{InvisibleMemberError, "InvisibleMemberError"},
		{InvalidCastError, "InvalidCastError"},
		{Kind(99), "UnknownError"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("TypeMismatchError")
	if !ok || k != TypeMismatchError {
		t.Errorf("ParseKind(TypeMismatchError) = %v, %v", k, ok)
	}
	if _, ok := ParseKind("Nope"); ok {
		t.Error("ParseKind should reject unknown names")
	}
}

func TestListSortAndErr(t *testing.T) {
	var l List
	if l.Err() != nil {
		t.Fatal("empty list should have nil Err")
	}

	l.Add(TypeMismatchError, Pos{Line: 5, Column: 2}, "second")
	l.Add(UndeclaredIdentifierError, Pos{Line: 1, Column: 9}, "first %s", "x")
	l.Add(InvalidCastError, Pos{Line: 5, Column: 1}, "middle")
	l.Sort()

	if l[0].Msg != "first x" || l[1].Msg != "middle" || l[2].Msg != "second" {
		t.Errorf("unexpected order: %v", l.Kinds())
	}
	if !l.Has(InvalidCastError) || l.Has(InheritanceCycleError) {
		t.Error("Has reports wrong kinds")
	}

	err := l.Err()
	var got List
	if !errors.As(err, &got) || len(got) != 3 {
		t.Fatalf("errors.As should recover the list, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "3 errors:") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestErrorFormat(t *testing.T) {
	e := Errorf(InvisibleMemberError, Pos{Line: 3, Column: 7}, "field %q", "y")
	want := `3:7: InvisibleMemberError: field "y"`
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}
