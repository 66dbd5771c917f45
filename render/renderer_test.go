package render

import (
	"strings"
	"testing"

	"github.com/motif-lang/motif/funcs"
	"github.com/motif-lang/motif/parser"
	"github.com/motif-lang/motif/template"
	"github.com/motif-lang/motif/value"

	"github.com/spf13/afero"
)

func renderSource(t *testing.T, src string, data value.JV, opts Options) (string, error) {
	t.Helper()
	registry := funcs.NewRegistry()
	store := template.NewStore()
	p := parser.New(registry, store, parser.Options{})
	root, err := p.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	tmpl := &template.Template{Source: src, Origin: "<test>", Root: root}
	if opts.FS == nil {
		opts.FS = afero.NewMemMapFs()
	}
	r := New(registry, store, tmpl, data, opts)
	var buf strings.Builder
	err = r.Render(&buf)
	return buf.String(), err
}

func mustRender(t *testing.T, src string, data value.JV) string {
	t.Helper()
	out, err := renderSource(t, src, data, Options{})
	if err != nil {
		t.Fatalf("render(%q): %v", src, err)
	}
	return out
}

func TestRenderText(t *testing.T) {
	if out := mustRender(t, "hello world", value.Null()); out != "hello world" {
		t.Fatalf("out = %q", out)
	}
}

func TestRenderExpressionLookup(t *testing.T) {
	obj := value.NewObject()
	obj.Set("name", value.String("Ada"))
	out := mustRender(t, "hi {{ name }}", value.ObjectValue(obj))
	if out != "hi Ada" {
		t.Fatalf("out = %q", out)
	}
}

func TestRenderMissingVariableLenient(t *testing.T) {
	out := mustRender(t, "[{{ missing }}]", value.Null())
	if out != "[]" {
		t.Fatalf("out = %q, want [] (null prints empty)", out)
	}
}

func TestRenderMissingVariableStrict(t *testing.T) {
	_, err := renderSource(t, "{{ missing }}", value.Null(), Options{Strict: true})
	if err == nil {
		t.Fatalf("expected strict-mode error")
	}
}

func TestRenderArithmeticPromotesToFloat(t *testing.T) {
	if out := mustRender(t, "{{ 1 + 2 }}", value.Null()); out != "3" {
		t.Fatalf("out = %q, want 3", out)
	}
	if out := mustRender(t, "{{ 7 / 2 }}", value.Null()); out != "3.5" {
		t.Fatalf("out = %q, want 3.5", out)
	}
}

func TestRenderModuloStaysInt(t *testing.T) {
	if out := mustRender(t, "{{ 7 % 2 }}", value.Null()); out != "1" {
		t.Fatalf("out = %q, want 1", out)
	}
}

func TestRenderDivisionByZeroErrors(t *testing.T) {
	_, err := renderSource(t, "{{ 1 / 0 }}", value.Null(), Options{})
	if err == nil {
		t.Fatalf("expected division by zero error")
	}
}

func TestRenderIfElse(t *testing.T) {
	src := "{% if flag %}yes{% else %}no{% endif %}"
	obj := value.NewObject()
	obj.Set("flag", value.Bool(true))
	if out := mustRender(t, src, value.ObjectValue(obj)); out != "yes" {
		t.Fatalf("out = %q", out)
	}
	obj.Set("flag", value.Bool(false))
	if out := mustRender(t, src, value.ObjectValue(obj)); out != "no" {
		t.Fatalf("out = %q", out)
	}
}

func TestRenderForArrayLoopFrame(t *testing.T) {
	src := "{% for v in items %}{{ loop.index }}:{{ v }}{% if not loop.is_last %},{% endif %}{% endfor %}"
	obj := value.NewObject()
	obj.Set("items", value.Array([]value.JV{value.String("a"), value.String("b"), value.String("c")}))
	out := mustRender(t, src, value.ObjectValue(obj))
	if out != "0:a,1:b,2:c" {
		t.Fatalf("out = %q", out)
	}
}

func TestRenderForObjectIteratesInsertionOrder(t *testing.T) {
	src := "{% for k, v in m %}{{ k }}={{ v }};{% endfor %}"
	m := value.NewObject()
	m.Set("b", value.Int(2))
	m.Set("a", value.Int(1))
	obj := value.NewObject()
	obj.Set("m", value.ObjectValue(m))
	out := mustRender(t, src, value.ObjectValue(obj))
	if out != "b=2;a=1;" {
		t.Fatalf("out = %q", out)
	}
}

func TestRenderForRequiresArray(t *testing.T) {
	src := "{% for v in items %}{{ v }}{% endfor %}"
	obj := value.NewObject()
	obj.Set("items", value.Int(5))
	_, err := renderSource(t, src, value.ObjectValue(obj), Options{})
	if err == nil {
		t.Fatalf("expected error for non-array for-target")
	}
}

func TestRenderSetWritesScope(t *testing.T) {
	src := "{% set total = 1 + 2 %}{{ total }}"
	if out := mustRender(t, src, value.Null()); out != "3" {
		t.Fatalf("out = %q", out)
	}
}

func TestRenderFileDryRunMarkers(t *testing.T) {
	src := `{% file "out.txt" %}contents{% endfile %}`
	out, err := renderSource(t, src, value.Null(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `Start file: "out.txt"`) || !strings.Contains(out, "contents") || !strings.Contains(out, `End file: "out.txt"`) {
		t.Fatalf("out = %q", out)
	}
}

func TestRenderFileWritesToFS(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := `{% file "sub/out.txt" %}hello{% endfile %}`
	_, err := renderSource(t, src, value.Null(), Options{OutputDir: "/dst", FS: fs})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := afero.ReadFile(fs, "/dst/sub/out.txt")
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("file contents = %q", data)
	}
}

func TestRenderApplyTemplateArrayFanOut(t *testing.T) {
	registry := funcs.NewRegistry()
	store := template.NewStore()
	p := parser.New(registry, store, parser.Options{})
	root, err := p.Parse(`{% apply-template item rows %}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	childSrc := "[{{ name }}:{{ loop.index }}]"
	childRoot, err := p.Parse(childSrc)
	if err != nil {
		t.Fatalf("Parse child: %v", err)
	}
	store.Set("item", &template.Template{Source: childSrc, Origin: "item", Root: childRoot})

	row1 := value.NewObject()
	row1.Set("name", value.String("a"))
	row2 := value.NewObject()
	row2.Set("name", value.String("b"))
	data := value.NewObject()
	data.Set("rows", value.Array([]value.JV{value.ObjectValue(row1), value.ObjectValue(row2)}))

	tmpl := &template.Template{Source: `{% apply-template item rows %}`, Origin: "<test>", Root: root}
	var buf strings.Builder
	r := New(registry, store, tmpl, value.ObjectValue(data), Options{FS: afero.NewMemMapFs()})
	if err := r.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	// Each array element becomes the child renderer's own input_data root,
	// and the shared "loop" frame carries the fan-out index into the child.
	if buf.String() != "[a:0][b:1]" {
		t.Fatalf("out = %q", buf.String())
	}
}
