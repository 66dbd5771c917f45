package parser

import (
	"testing"

	"github.com/motif-lang/motif/ast"
	"github.com/motif-lang/motif/funcs"
	"github.com/motif-lang/motif/template"
)

func newParser(opts Options) *Parser {
	return New(funcs.NewRegistry(), template.NewStore(), opts)
}

func mustParse(t *testing.T, src string) *ast.Block {
	t.Helper()
	root, err := newParser(Options{}).Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return root
}

func TestParseText(t *testing.T) {
	root := mustParse(t, "hello world")
	if len(root.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(root.Children))
	}
	if root.Children[0].Kind() != ast.KindText {
		t.Fatalf("kind = %v, want Text", root.Children[0].Kind())
	}
}

func TestParseEmptySource(t *testing.T) {
	root, err := newParser(Options{}).Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\"): %v", err)
	}
	if len(root.Children) != 0 {
		t.Fatalf("children = %d, want 0", len(root.Children))
	}
}

func TestParseExpressionWrapper(t *testing.T) {
	root := mustParse(t, "{{ 1 + 2 }}")
	if len(root.Children) != 1 {
		t.Fatalf("children = %d", len(root.Children))
	}
	wrap, ok := root.Children[0].(*ast.ExpressionWrapper)
	if !ok {
		t.Fatalf("child type = %T, want *ast.ExpressionWrapper", root.Children[0])
	}
	fn, ok := wrap.Root.(*ast.Function)
	if !ok {
		t.Fatalf("root type = %T, want *ast.Function", wrap.Root)
	}
	if fn.Op != ast.OpAdd {
		t.Fatalf("op = %v, want OpAdd", fn.Op)
	}
}

func TestParseEmptyExpressionErrors(t *testing.T) {
	_, err := newParser(Options{}).Parse("{{}}")
	if err == nil {
		t.Fatalf("expected error for empty expression")
	}
}

func TestParseUnmatchedBracketErrors(t *testing.T) {
	_, err := newParser(Options{}).Parse("{{ [1, 2 }}")
	if err == nil {
		t.Fatalf("expected error for unmatched '['")
	}
}

func TestParseDottedData(t *testing.T) {
	root := mustParse(t, "{{ person.age }}")
	wrap := root.Children[0].(*ast.ExpressionWrapper)
	data, ok := wrap.Root.(*ast.Data)
	if !ok {
		t.Fatalf("root type = %T, want *ast.Data", wrap.Root)
	}
	if data.Name != "person.age" {
		t.Fatalf("name = %q", data.Name)
	}
	if len(data.Parts) != 2 || data.Parts[0] != "person" || data.Parts[1] != "age" {
		t.Fatalf("parts = %v", data.Parts)
	}
}

func TestParseFunctionCall(t *testing.T) {
	root := mustParse(t, "{{ upper(name) }}")
	wrap := root.Children[0].(*ast.ExpressionWrapper)
	fn, ok := wrap.Root.(*ast.Function)
	if !ok {
		t.Fatalf("root type = %T, want *ast.Function", wrap.Root)
	}
	if fn.Op != ast.OpUpper || fn.Arity != 1 {
		t.Fatalf("fn = %+v", fn)
	}
}

func TestParseOperatorPrecedence(t *testing.T) {
	// 1 + 2 * 3 must parse as 1 + (2 * 3): the outer op is '+'.
	root := mustParse(t, "{{ 1 + 2 * 3 }}")
	wrap := root.Children[0].(*ast.ExpressionWrapper)
	outer, ok := wrap.Root.(*ast.Function)
	if !ok || outer.Op != ast.OpAdd {
		t.Fatalf("outer = %+v", wrap.Root)
	}
	inner, ok := outer.Args[1].(*ast.Function)
	if !ok || inner.Op != ast.OpMultiplication {
		t.Fatalf("inner = %+v", outer.Args[1])
	}
}

func TestParseJSONArrayLiteral(t *testing.T) {
	root := mustParse(t, `{{ [1, 2, [3, 4]] }}`)
	wrap := root.Children[0].(*ast.ExpressionWrapper)
	lit, ok := wrap.Root.(*ast.Literal)
	if !ok {
		t.Fatalf("root type = %T, want *ast.Literal", wrap.Root)
	}
	if !lit.Value.IsArray() || lit.Value.Len() != 3 {
		t.Fatalf("literal = %+v", lit.Value)
	}
}

func TestParseIfElseIfElseEndif(t *testing.T) {
	root := mustParse(t, "{% if a %}A{% else if b %}B{% else %}C{% endif %}")
	if len(root.Children) != 1 {
		t.Fatalf("children = %d", len(root.Children))
	}
	outer, ok := root.Children[0].(*ast.If)
	if !ok {
		t.Fatalf("child type = %T, want *ast.If", root.Children[0])
	}
	if outer.IsNested {
		t.Fatalf("outer.IsNested = true, want false")
	}
	if !outer.HasFalse || len(outer.False.Children) != 1 {
		t.Fatalf("outer.False = %+v", outer.False)
	}
	nested, ok := outer.False.Children[0].(*ast.If)
	if !ok || !nested.IsNested {
		t.Fatalf("nested = %+v", outer.False.Children[0])
	}
	if !nested.HasFalse || len(nested.False.Children) != 1 {
		t.Fatalf("nested.False = %+v", nested.False)
	}
}

func TestParseElseWithoutIfErrors(t *testing.T) {
	_, err := newParser(Options{}).Parse("{% else %}{% endif %}")
	if err == nil {
		t.Fatalf("expected error for 'else' without 'if'")
	}
}

func TestParseUnclosedIfErrors(t *testing.T) {
	_, err := newParser(Options{}).Parse("{% if a %}x")
	if err == nil {
		t.Fatalf("expected error for unclosed if")
	}
}

func TestParseForArray(t *testing.T) {
	root := mustParse(t, "{% for item in items %}{{ item }}{% endfor %}")
	forNode, ok := root.Children[0].(*ast.ForArray)
	if !ok {
		t.Fatalf("child type = %T, want *ast.ForArray", root.Children[0])
	}
	if forNode.ValueName != "item" {
		t.Fatalf("value name = %q", forNode.ValueName)
	}
	if len(forNode.Body.Children) != 1 {
		t.Fatalf("body children = %d", len(forNode.Body.Children))
	}
}

func TestParseForObject(t *testing.T) {
	root := mustParse(t, "{% for k, v in obj %}{{ k }}{% endfor %}")
	forNode, ok := root.Children[0].(*ast.ForObject)
	if !ok {
		t.Fatalf("child type = %T, want *ast.ForObject", root.Children[0])
	}
	if forNode.KeyName != "k" || forNode.ValueName != "v" {
		t.Fatalf("names = %q, %q", forNode.KeyName, forNode.ValueName)
	}
}

func TestParseForWithoutInErrors(t *testing.T) {
	_, err := newParser(Options{}).Parse("{% for item items %}{% endfor %}")
	if err == nil {
		t.Fatalf("expected error for missing 'in'")
	}
}

func TestParseFileStatement(t *testing.T) {
	root := mustParse(t, `{% file "out.txt" %}hi{% endfile %}`)
	fileNode, ok := root.Children[0].(*ast.File)
	if !ok {
		t.Fatalf("child type = %T, want *ast.File", root.Children[0])
	}
	if len(fileNode.Body.Children) != 1 {
		t.Fatalf("body children = %d", len(fileNode.Body.Children))
	}
}

func TestParseNestedFileErrors(t *testing.T) {
	_, err := newParser(Options{}).Parse(`{% file "a.txt" %}{% file "b.txt" %}{% endfile %}{% endfile %}`)
	if err == nil {
		t.Fatalf("expected error for nested file statements")
	}
}

func TestParseSecondFileErrors(t *testing.T) {
	_, err := newParser(Options{}).Parse(`{% file "a.txt" %}{% endfile %}{% file "b.txt" %}{% endfile %}`)
	if err == nil {
		t.Fatalf("expected error for a second file statement")
	}
}

func TestParseSetStatement(t *testing.T) {
	root := mustParse(t, "{% set total = 1 + 2 %}")
	setNode, ok := root.Children[0].(*ast.Set)
	if !ok {
		t.Fatalf("child type = %T, want *ast.Set", root.Children[0])
	}
	if setNode.Key != "total" {
		t.Fatalf("key = %q", setNode.Key)
	}
}

func TestParseApplyTemplateWithIncludeCallback(t *testing.T) {
	calls := 0
	opts := Options{
		IncludeCallback: func(name string) (string, bool) {
			calls++
			if name == "child" {
				return "child body", true
			}
			return "", false
		},
	}
	p := newParser(opts)
	root, err := p.Parse("{% apply-template child field %}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	apply, ok := root.Children[0].(*ast.ApplyTemplate)
	if !ok {
		t.Fatalf("child type = %T, want *ast.ApplyTemplate", root.Children[0])
	}
	if apply.TemplateName != "child" {
		t.Fatalf("template name = %q", apply.TemplateName)
	}
	if calls != 1 {
		t.Fatalf("include callback called %d times, want 1", calls)
	}
}

type stubLoader map[string]string

func (l stubLoader) Load(filename string) (string, error) {
	if src, ok := l[filename]; ok {
		return src, nil
	}
	return "", errNotFound(filename)
}

type errNotFound string

func (e errNotFound) Error() string { return "not found: " + string(e) }

func TestParseApplyTemplateWithLoader(t *testing.T) {
	loader := stubLoader{"child.tpl": "child body {{ x }}"}
	opts := Options{ParseNestedTemplate: true, Loader: loader}
	store := template.NewStore()
	p := New(funcs.NewRegistry(), store, opts)
	root, err := p.Parse("{% apply-template child field %}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Children[0].(*ast.ApplyTemplate).TemplateName != "child" {
		t.Fatalf("unexpected apply-template node")
	}
	if !store.Has("child") {
		t.Fatalf("expected store to hold the resolved child template")
	}
}

func TestParseApplyTemplateReentryIsNoOp(t *testing.T) {
	loads := 0
	loader := stubLoader{"child.tpl": "child body"}
	opts := Options{ParseNestedTemplate: true, Loader: countingLoader{loader, &loads}}
	store := template.NewStore()
	p := New(funcs.NewRegistry(), store, opts)
	_, err := p.Parse("{% apply-template child a %}{% apply-template child b %}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if loads != 1 {
		t.Fatalf("loader called %d times, want 1", loads)
	}
}

type countingLoader struct {
	stubLoader
	n *int
}

func (l countingLoader) Load(filename string) (string, error) {
	*l.n++
	return l.stubLoader.Load(filename)
}

func TestParseComments(t *testing.T) {
	root, err := newParser(Options{KeepComments: true}).Parse("a{# note #}b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(root.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(root.Children))
	}
	if root.Children[1].Kind() != ast.KindComment {
		t.Fatalf("middle kind = %v, want Comment", root.Children[1].Kind())
	}
}

func TestParseCommentsDiscardedByDefault(t *testing.T) {
	root := mustParse(t, "a{# note #}b")
	if len(root.Children) != 2 {
		t.Fatalf("children = %d, want 2 (comment discarded)", len(root.Children))
	}
}

func TestParseStringComparison(t *testing.T) {
	root := mustParse(t, `{{ name == "bob" }}`)
	wrap := root.Children[0].(*ast.ExpressionWrapper)
	fn, ok := wrap.Root.(*ast.Function)
	if !ok || fn.Op != ast.OpEqual {
		t.Fatalf("root = %+v", wrap.Root)
	}
}

func TestParseParenthesizedExpression(t *testing.T) {
	// (1 + 2) * 3 must parse with '*' as the outer operation.
	root := mustParse(t, "{{ (1 + 2) * 3 }}")
	wrap := root.Children[0].(*ast.ExpressionWrapper)
	outer, ok := wrap.Root.(*ast.Function)
	if !ok || outer.Op != ast.OpMultiplication {
		t.Fatalf("outer = %+v", wrap.Root)
	}
}
