package ast

import "github.com/motif-lang/motif/value"

// Invocable is the shape of a user-registered callback stored on a
// Function node with Op == OpCallback. It mirrors funcs.Callback's
// signature exactly so a funcs.Callback value converts to it directly.
type Invocable func(args []value.JV) (value.JV, error)

// NewFunction builds a Function node, used by the parser both for
// operator nodes (Shunting-Yard reduction) and for named/user-callback
// function calls.
func NewFunction(offset int, op Operation, name string, arity, precedence int, assoc Associativity, args []Node) *Function {
	return &Function{
		base:          base{offset},
		Op:            op,
		Name:          name,
		Arity:         arity,
		Precedence:    precedence,
		Associativity: assoc,
		Args:          args,
	}
}
