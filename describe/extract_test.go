package describe

import (
	"testing"

	"github.com/motif-lang/motif/ast"
)

func TestExtractFiltersLoopVariable(t *testing.T) {
	root := ast.NewBlock(0)
	root.Children = append(root.Children,
		ast.NewExpressionWrapper(0, ast.NewData(0, "title", []string{"title"})),
		ast.NewExpressionWrapper(0, ast.NewData(0, "loop.index", []string{"loop", "index"})),
		ast.NewExpressionWrapper(0, ast.NewData(0, "person.age", []string{"person", "age"})),
	)

	desc := Extract("greeting", root, Options{})

	if desc.Variables.Len() != 2 {
		t.Fatalf("expected 2 variables, got %d", desc.Variables.Len())
	}
	if _, ok := desc.Variables.Get("title"); !ok {
		t.Fatal("expected title to be recorded")
	}
	if _, ok := desc.Variables.Get("person"); !ok {
		t.Fatal("expected person to be recorded (top-level segment of person.age)")
	}
	if _, ok := desc.Variables.Get("loop"); ok {
		t.Fatal("loop-prefixed variable should be filtered")
	}
}

func TestExtractRecordsApplyTemplate(t *testing.T) {
	root := ast.NewBlock(0)
	root.Children = append(root.Children, &ast.ApplyTemplate{TemplateName: "Item", Field: "xs"})

	desc := Extract("parent", root, Options{})

	names := desc.TemplateNames()
	if len(names) != 1 || names[0] != "Item" {
		t.Fatalf("expected nested template Item, got %v", names)
	}
	if _, ok := desc.Variables.Get("xs"); !ok {
		t.Fatal("expected apply-template field to be recorded as a variable")
	}
}

func TestExtractDeduplicatesTopLevelName(t *testing.T) {
	root := ast.NewBlock(0)
	root.Children = append(root.Children,
		ast.NewExpressionWrapper(0, ast.NewData(0, "person.age", []string{"person", "age"})),
		ast.NewExpressionWrapper(0, ast.NewData(0, "person.name", []string{"person", "name"})),
	)

	desc := Extract("t", root, Options{})
	if desc.Variables.Len() != 1 {
		t.Fatalf("expected single deduplicated 'person' entry, got %d", desc.Variables.Len())
	}
}
