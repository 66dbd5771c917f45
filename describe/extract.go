// Package describe implements the description extractor: an AST visitor
// that accumulates the top-level variable names a template references and
// the nested template names it applies.
package describe

import (
	"strings"

	"github.com/motif-lang/motif/ast"
	"github.com/motif-lang/motif/template"
)

// Options configures extraction: which synthesized loop-frame variable name
// to filter (default "loop") and the human-readable description text to
// stamp on the result.
type Options struct {
	LoopVariableName string
	Description      string
}

// Extract walks root and returns a Description recording every top-level
// DataNode name not prefixed by "<LoopVariableName>." and not already seen,
// plus every ApplyTemplate node's template name and field name.
func Extract(templateName string, root *ast.Block, opts Options) *template.Description {
	if opts.LoopVariableName == "" {
		opts.LoopVariableName = "loop"
	}
	desc := template.NewDescription(templateName)
	desc.Description = opts.Description

	loopPrefix := opts.LoopVariableName + "."
	seen := make(map[string]bool)

	record := func(name string) {
		if strings.HasPrefix(name, loopPrefix) || name == opts.LoopVariableName {
			return
		}
		top := name
		if i := strings.IndexByte(name, '.'); i >= 0 {
			top = name[:i]
		}
		if seen[top] {
			return
		}
		seen[top] = true
		desc.Variables.Set(top, template.NewVariable(top))
	}

	ast.Walk(root, func(n ast.Node) {
		switch t := n.(type) {
		case *ast.Data:
			record(t.Name)
		case *ast.ApplyTemplate:
			desc.AddTemplate(t.TemplateName)
			record(t.Field)
		}
	})

	return desc
}
