package cli

import (
	"fmt"

	"github.com/motif-lang/motif/ast"
)

// dumpBlock prints tmpl's parsed AST as an indented outline, for the
// --info/-i (no value, no --data) "raw structure" mode.
func dumpBlock(b *ast.Block, depth int) {
	for _, child := range b.Children {
		dumpNode(child, depth)
	}
}

func dumpNode(n ast.Node, depth int) {
	indent := func() { fmt.Print(repeat("  ", depth)) }
	switch node := n.(type) {
	case *ast.Text:
		indent()
		fmt.Printf("Text @%d len=%d\n", node.Offset(), node.Length)
	case *ast.Comment:
		indent()
		fmt.Printf("Comment @%d len=%d\n", node.Offset(), node.Length)
	case *ast.ExpressionWrapper:
		indent()
		fmt.Printf("Expression @%d\n", node.Offset())
		dumpNode(node.Root, depth+1)
	case *ast.Literal:
		indent()
		fmt.Printf("Literal @%d value=%s\n", node.Offset(), node.Value.JSON())
	case *ast.Data:
		indent()
		fmt.Printf("Data @%d name=%s\n", node.Offset(), node.Name)
	case *ast.Function:
		indent()
		fmt.Printf("Function @%d name=%s arity=%d\n", node.Offset(), node.Name, node.Arity)
		for _, arg := range node.Args {
			dumpNode(arg, depth+1)
		}
	case *ast.If:
		indent()
		fmt.Printf("If @%d hasFalse=%v\n", node.Offset(), node.HasFalse)
		dumpNode(node.Condition, depth+1)
		dumpBlock(node.True, depth+1)
		if node.HasFalse {
			dumpBlock(node.False, depth+1)
		}
	case *ast.ForArray:
		indent()
		fmt.Printf("ForArray @%d value=%s\n", node.Offset(), node.ValueName)
		dumpNode(node.Condition, depth+1)
		dumpBlock(node.Body, depth+1)
	case *ast.ForObject:
		indent()
		fmt.Printf("ForObject @%d key=%s value=%s\n", node.Offset(), node.KeyName, node.ValueName)
		dumpNode(node.Condition, depth+1)
		dumpBlock(node.Body, depth+1)
	case *ast.File:
		indent()
		fmt.Printf("File @%d\n", node.Offset())
		dumpNode(node.Filename, depth+1)
		dumpBlock(node.Body, depth+1)
	case *ast.ApplyTemplate:
		indent()
		fmt.Printf("ApplyTemplate @%d template=%s field=%s\n", node.Offset(), node.TemplateName, node.Field)
	case *ast.Set:
		indent()
		fmt.Printf("Set @%d key=%s\n", node.Offset(), node.Key)
		dumpNode(node.Expression, depth+1)
	default:
		indent()
		fmt.Printf("%s @%d\n", n.Kind(), n.Offset())
	}
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
