package funcs

import (
	"testing"

	"github.com/motif-lang/motif/ast"
	"github.com/motif-lang/motif/value"
)

func TestLookupOperatorTable(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name  string
		arity int
		prec  int
		assoc ast.Associativity
	}{
		{"not", 1, 4, ast.LeftAssoc},
		{"and", 2, 1, ast.LeftAssoc},
		{"or", 2, 1, ast.LeftAssoc},
		{"in", 2, 2, ast.LeftAssoc},
		{"+", 2, 3, ast.LeftAssoc},
		{"-", 2, 3, ast.LeftAssoc},
		{"*", 2, 4, ast.LeftAssoc},
		{"/", 2, 4, ast.LeftAssoc},
		{"^", 2, 5, ast.RightAssoc},
		{"%", 2, 4, ast.LeftAssoc},
	}
	for _, tt := range tests {
		e, ok := r.LookupOperator(tt.name)
		if !ok {
			t.Fatalf("operator %q not found", tt.name)
		}
		if e.Arity != tt.arity || e.Precedence != tt.prec || e.Associativity != tt.assoc {
			t.Fatalf("operator %q = %+v, want arity=%d prec=%d assoc=%v", tt.name, e, tt.arity, tt.prec, tt.assoc)
		}
	}
}

func TestLookupBuiltinArityMismatch(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("length", 2); ok {
		t.Fatalf("length/2 should not resolve; length is arity 1")
	}
	if _, ok := r.Lookup("length", 1); !ok {
		t.Fatalf("length/1 should resolve")
	}
}

func TestCallbackExactArityPreferredOverVariadic(t *testing.T) {
	r := NewRegistry()
	exact := func(args []value.JV) (value.JV, error) { return value.String("exact"), nil }
	variadic := func(args []value.JV) (value.JV, error) { return value.String("variadic"), nil }
	if err := r.AddCallback("greet", 1, exact); err != nil {
		t.Fatal(err)
	}
	if err := r.AddCallback("greet", Variadic, variadic); err != nil {
		t.Fatal(err)
	}

	e, ok := r.Lookup("greet", 1)
	if !ok {
		t.Fatal("expected greet/1 to resolve")
	}
	got, _ := e.Callback(nil)
	if got.AsString() != "exact" {
		t.Fatalf("expected exact-arity callback, got %q", got.AsString())
	}

	e, ok = r.Lookup("greet", 3)
	if !ok {
		t.Fatal("expected greet/3 to fall back to variadic")
	}
	got, _ = e.Callback(nil)
	if got.AsString() != "variadic" {
		t.Fatalf("expected variadic callback, got %q", got.AsString())
	}
}

func TestCallbackCannotShadowBuiltin(t *testing.T) {
	r := NewRegistry()
	if err := r.AddCallback("upper", 1, func(args []value.JV) (value.JV, error) { return value.Null(), nil }); err == nil {
		t.Fatal("expected error shadowing built-in function")
	}
	if err := r.AddCallback("and", 2, func(args []value.JV) (value.JV, error) { return value.Null(), nil }); err == nil {
		t.Fatal("expected error shadowing built-in operator")
	}
}

func TestLookupUnknownName(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("nope", 1); ok {
		t.Fatal("expected unknown function to not resolve")
	}
}
