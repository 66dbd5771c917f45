// Package render implements the tree-walking renderer: the expression
// evaluator (operators, built-in functions, DataNode resolution with array
// fan-out, typed-variable coercion) and the statement executors (if/for/
// file/apply-template/set/text/comment/expression). Grounded on
// zipreport/miya's runtime package (ControlFlowEvaluator's EvalIfStatement/
// EvalForLoop shape, loopInfoPool's loop-frame fields, RuntimeError's
// line/column/template-name carrying error type) adapted from miya's
// mutable-Context-chain model to an explicit per-invocation state struct
// over this engine's ast.Node/value.JV types.
package render

import (
	"fmt"

	"github.com/motif-lang/motif/source"
)

// Error is a render-time failure: a type mismatch in an operator, division
// by zero, a function argument count mismatch, an array/object-required
// violation, a missing apply-template target when ThrowAtMissingIncludes
// is set, an unresolvable variable in strict mode, a non-string filename, or an
// output file/directory creation failure.
type Error struct {
	Template string
	Pos      source.Position
	Message  string
}

func (e *Error) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("render error in %q at %d:%d: %s", e.Template, e.Pos.Line, e.Pos.Column, e.Message)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

// FileError reports that a source template could not be read, or that a
// file-statement output target could not be created.
type FileError struct {
	Path    string
	Message string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file error for %q: %s", e.Path, e.Message)
}

// DataError reports an unsupported type coercion or an unknown type name
// encountered while resolving a typed variable.
type DataError struct {
	Message string
}

func (e *DataError) Error() string { return "data error: " + e.Message }

func (r *Renderer) errorf(n interface{ Offset() int }, format string, args ...interface{}) error {
	return &Error{
		Template: r.templateName,
		Pos:      source.Locate(r.source, n.Offset()),
		Message:  fmt.Sprintf(format, args...),
	}
}
