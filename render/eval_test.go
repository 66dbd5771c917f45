package render

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/motif-lang/motif/ast"
	"github.com/motif-lang/motif/funcs"
	"github.com/motif-lang/motif/template"
	"github.com/motif-lang/motif/value"
)

func newTestRenderer(t *testing.T, data value.JV) *Renderer {
	t.Helper()
	registry := funcs.NewRegistry()
	store := template.NewStore()
	tmpl := &template.Template{Source: "", Origin: "<eval-test>", Root: ast.NewBlock(0)}
	return New(registry, store, tmpl, data, Options{FS: afero.NewMemMapFs()})
}

func lit(v value.JV) ast.Node { return ast.NewLiteral(0, v) }

func evalOK(t *testing.T, r *Renderer, n ast.Node) value.JV {
	t.Helper()
	res, err := r.eval(n)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if res.missing {
		t.Fatalf("eval: unexpected missing result")
	}
	return res.value
}

// AtId is listed in the operator table and fully implemented in the
// evaluator, but (matching the original's own grammar) no surface syntax
// ever constructs one; it is only reachable by building the Function node
// by hand, as done here.
func TestEvalAtIdOperatorDirect(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	obj := value.NewObject()
	obj.Set("field", value.String("through-dot"))
	fn := ast.NewFunction(0, ast.OpAtId, "@", 2, 8, ast.LeftAssoc, []ast.Node{
		lit(value.ObjectValue(obj)),
		ast.NewData(0, "field", []string{"field"}),
	})
	got := evalOK(t, r, fn)
	if got.AsString() != "through-dot" {
		t.Fatalf("got = %v", got)
	}
}

func TestEvalInOperatorNeedleHaystack(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	fn := ast.NewFunction(0, ast.OpIn, "in", 2, 2, ast.LeftAssoc, []ast.Node{
		lit(value.Int(2)),
		lit(value.Array([]value.JV{value.Int(1), value.Int(2), value.Int(3)})),
	})
	got := evalOK(t, r, fn)
	if !got.Bool() {
		t.Fatalf("expected 2 in [1,2,3] = true")
	}
}

func TestEvalInOperatorRequiresArrayHaystack(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	fn := ast.NewFunction(0, ast.OpIn, "in", 2, 2, ast.LeftAssoc, []ast.Node{
		lit(value.Int(2)),
		lit(value.Int(3)),
	})
	if _, err := r.eval(fn); err == nil {
		t.Fatalf("expected error: in requires an array haystack")
	}
}

func TestEvalDefaultBypassesStrictForMissingFirstArg(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	r.opts.Strict = true
	fn := ast.NewFunction(0, ast.OpDefault, "default", 2, 8, ast.LeftAssoc, []ast.Node{
		ast.NewData(0, "missing", []string{"missing"}),
		lit(value.String("fallback")),
	})
	got := evalOK(t, r, fn)
	if got.AsString() != "fallback" {
		t.Fatalf("got = %v, want fallback", got)
	}
}

func TestEvalFirstLastOnEmptyArrayErrors(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	first := ast.NewFunction(0, ast.OpFirst, "first", 1, 8, ast.LeftAssoc, []ast.Node{lit(value.Array(nil))})
	if _, err := r.eval(first); err == nil {
		t.Fatalf("expected error for first([])")
	}
	last := ast.NewFunction(0, ast.OpLast, "last", 1, 8, ast.LeftAssoc, []ast.Node{lit(value.Array(nil))})
	if _, err := r.eval(last); err == nil {
		t.Fatalf("expected error for last([])")
	}
}

func TestEvalJoinStringifiesElements(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	fn := ast.NewFunction(0, ast.OpJoin, "join", 2, 8, ast.LeftAssoc, []ast.Node{
		lit(value.Array([]value.JV{value.Int(1), value.String("two"), value.Bool(true)})),
		lit(value.String("-")),
	})
	got := evalOK(t, r, fn)
	if got.AsString() != "1-two-true" {
		t.Fatalf("got = %q", got.AsString())
	}
}

func TestEvalExistsProbesInputDataOnly(t *testing.T) {
	obj := value.NewObject()
	obj.Set("present", value.Int(1))
	r := newTestRenderer(t, value.ObjectValue(obj))
	r.scope.Set("present", value.Int(2))
	r.scope.Set("scope_only", value.Int(3))

	existsFn := ast.NewFunction(0, ast.OpExists, "exists", 1, 8, ast.LeftAssoc, []ast.Node{lit(value.String("present"))})
	if got := evalOK(t, r, existsFn); !got.Bool() {
		t.Fatalf("exists(present) should be true via input_data")
	}

	existsScopeOnly := ast.NewFunction(0, ast.OpExists, "exists", 1, 8, ast.LeftAssoc, []ast.Node{lit(value.String("scope_only"))})
	if got := evalOK(t, r, existsScopeOnly); got.Bool() {
		t.Fatalf("exists should not see scope-only bindings")
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	fn := ast.NewFunction(0, ast.OpDivision, "/", 2, 4, ast.LeftAssoc, []ast.Node{
		lit(value.Int(5)),
		lit(value.Int(0)),
	})
	if _, err := r.eval(fn); err == nil {
		t.Fatalf("expected division by zero error")
	}
}

func TestEvalArithmeticAlwaysFloatExceptModulo(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	add := ast.NewFunction(0, ast.OpAdd, "+", 2, 3, ast.LeftAssoc, []ast.Node{lit(value.Int(1)), lit(value.Int(2))})
	got := evalOK(t, r, add)
	if got.Kind() != value.KindFloat {
		t.Fatalf("+ result kind = %v, want Float", got.Kind())
	}
	mod := ast.NewFunction(0, ast.OpModulo, "%", 2, 4, ast.LeftAssoc, []ast.Node{lit(value.Int(7)), lit(value.Int(2))})
	got = evalOK(t, r, mod)
	if got.Kind() != value.KindInt {
		t.Fatalf("%% result kind = %v, want Int", got.Kind())
	}
}

func TestEvalModuloRequiresIntegerOperands(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	mod := ast.NewFunction(0, ast.OpModulo, "%", 2, 4, ast.LeftAssoc, []ast.Node{lit(value.Float(7.5)), lit(value.Int(2))})
	if _, err := r.eval(mod); err == nil {
		t.Fatalf("expected error for non-integer operand to '%%'")
	}
}

func TestResolveDataTypedVariableDefault(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	desc := template.NewDescription("<eval-test>")
	variable := template.NewVariable("greeting")
	variable.HasDefault = true
	variable.Default = value.String("hi")
	desc.Variables.Set("greeting", variable)
	r.tmpl.Description = desc

	res, err := r.eval(ast.NewData(0, "greeting", []string{"greeting"}))
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if res.missing || res.value.AsString() != "hi" {
		t.Fatalf("got %+v, want default \"hi\"", res)
	}
}

func TestResolveDataTypedVariableRequired(t *testing.T) {
	r := newTestRenderer(t, value.Null())
	desc := template.NewDescription("<eval-test>")
	variable := template.NewVariable("must_have")
	variable.Required = true
	desc.Variables.Set("must_have", variable)
	r.tmpl.Description = desc

	if _, err := r.eval(ast.NewData(0, "must_have", []string{"must_have"})); err == nil {
		t.Fatalf("expected error for missing required variable")
	}
}
