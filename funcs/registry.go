// Package funcs resolves operator names and built-in/user function names
// (qualified by arity) to an Operation tag plus, for user callbacks, the
// invocable that produces a JV from an argument vector. Grounded on
// zipreport/miya's filters/filter.go FilterRegistry (RWMutex-guarded map,
// Register/Get/Unregister/List).
package funcs

import (
	"fmt"
	"sync"

	"github.com/motif-lang/motif/ast"
	"github.com/motif-lang/motif/value"
)

// Callback is a user-registered function: it receives the resolved
// argument vector and returns a JV or an error.
type Callback func(args []value.JV) (value.JV, error)

// key identifies a Function Entry by (name, arity); Variadic is used as the
// fallback arity when no exact-arity entry exists.
type key struct {
	name  string
	arity int
}

const Variadic = -1

// Entry is the resolved registry record for a call site: which Operation to
// tag the Function node with, its fixed arity/precedence/associativity (for
// operators and built-ins), and the user Callback when Op is OpCallback.
type Entry struct {
	Op            ast.Operation
	Arity         int
	Precedence    int
	Associativity ast.Associativity
	Callback      Callback
}

// Registry resolves operator and function names to Entries. Operators and
// built-in named functions are fixed at construction; user callbacks may be
// added at any time before a render begins, but not mutated concurrently
// with an in-progress render.
type Registry struct {
	mu        sync.RWMutex
	operators map[string]Entry
	builtins  map[string]Entry
	callbacks map[key]Entry
}

// NewRegistry builds a Registry pre-populated with every operator and
// every built-in named function.
func NewRegistry() *Registry {
	r := &Registry{
		operators: make(map[string]Entry),
		builtins:  make(map[string]Entry),
		callbacks: make(map[key]Entry),
	}
	r.registerOperators()
	r.registerBuiltins()
	return r
}

func (r *Registry) registerOperators() {
	type op struct {
		name  string
		tag   ast.Operation
		arity int
		prec  int
		assoc ast.Associativity
	}
	ops := []op{
		{"not", ast.OpNot, 1, 4, ast.LeftAssoc},
		{"and", ast.OpAnd, 2, 1, ast.LeftAssoc},
		{"or", ast.OpOr, 2, 1, ast.LeftAssoc},
		{"in", ast.OpIn, 2, 2, ast.LeftAssoc},
		{"==", ast.OpEqual, 2, 2, ast.LeftAssoc},
		{"!=", ast.OpNotEqual, 2, 2, ast.LeftAssoc},
		{">", ast.OpGreater, 2, 2, ast.LeftAssoc},
		{">=", ast.OpGreaterEqual, 2, 2, ast.LeftAssoc},
		{"<", ast.OpLess, 2, 2, ast.LeftAssoc},
		{"<=", ast.OpLessEqual, 2, 2, ast.LeftAssoc},
		{"+", ast.OpAdd, 2, 3, ast.LeftAssoc},
		{"-", ast.OpSubtract, 2, 3, ast.LeftAssoc},
		{"*", ast.OpMultiplication, 2, 4, ast.LeftAssoc},
		{"/", ast.OpDivision, 2, 4, ast.LeftAssoc},
		{"^", ast.OpPower, 2, 5, ast.RightAssoc},
		{"%", ast.OpModulo, 2, 4, ast.LeftAssoc},
		{"@", ast.OpAtId, 2, 8, ast.LeftAssoc},
	}
	for _, o := range ops {
		r.operators[o.name] = Entry{Op: o.tag, Arity: o.arity, Precedence: o.prec, Associativity: o.assoc}
	}
}

func (r *Registry) registerBuiltins() {
	type fn struct {
		name  string
		tag   ast.Operation
		arity int
	}
	fns := []fn{
		{"at", ast.OpAt, 2},
		{"default", ast.OpDefault, 2},
		{"divisibleBy", ast.OpDivisibleBy, 2},
		{"even", ast.OpEven, 1},
		{"exists", ast.OpExists, 1},
		{"existsIn", ast.OpExistsIn, 2},
		{"first", ast.OpFirst, 1},
		{"float", ast.OpFloat, 1},
		{"int", ast.OpInt, 1},
		{"last", ast.OpLast, 1},
		{"length", ast.OpLength, 1},
		{"lower", ast.OpLower, 1},
		{"max", ast.OpMax, 1},
		{"min", ast.OpMin, 1},
		{"odd", ast.OpOdd, 1},
		{"range", ast.OpRange, 1},
		{"round", ast.OpRound, 2},
		{"sort", ast.OpSort, 1},
		{"upper", ast.OpUpper, 1},
		{"isBoolean", ast.OpIsBoolean, 1},
		{"isNumber", ast.OpIsNumber, 1},
		{"isInteger", ast.OpIsInteger, 1},
		{"isFloat", ast.OpIsFloat, 1},
		{"isObject", ast.OpIsObject, 1},
		{"isArray", ast.OpIsArray, 1},
		{"isString", ast.OpIsString, 1},
		{"join", ast.OpJoin, 2},
		{"split", ast.OpSplit, 2},
	}
	for _, f := range fns {
		r.builtins[f.name] = Entry{Op: f.tag, Arity: f.arity, Precedence: 8, Associativity: ast.LeftAssoc}
	}
}

// LookupOperator resolves an operator token's Entry by its canonical name
// ("not", "and", "==", "+", ...).
func (r *Registry) LookupOperator(name string) (Entry, bool) {
	e, ok := r.operators[name]
	return e, ok
}

// Lookup resolves a call-site (name, arity) against built-ins first, then
// user callbacks: an exact-arity callback entry is preferred, falling back
// to a variadic (arity -1) entry.
func (r *Registry) Lookup(name string, arity int) (Entry, bool) {
	if e, ok := r.builtins[name]; ok {
		if e.Arity == arity {
			return e, true
		}
		return Entry{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.callbacks[key{name, arity}]; ok {
		return e, true
	}
	if e, ok := r.callbacks[key{name, Variadic}]; ok {
		return e, true
	}
	return Entry{}, false
}

// AddCallback registers a user function under (name, arity). arity == -1
// registers it as the variadic fallback for that name.
func (r *Registry) AddCallback(name string, arity int, fn Callback) error {
	if fn == nil {
		return fmt.Errorf("funcs: nil callback for %q", name)
	}
	if _, ok := r.operators[name]; ok {
		return fmt.Errorf("funcs: %q shadows a built-in operator", name)
	}
	if _, ok := r.builtins[name]; ok {
		return fmt.Errorf("funcs: %q shadows a built-in function", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[key{name, arity}] = Entry{Op: ast.OpCallback, Arity: arity, Precedence: 8, Associativity: ast.LeftAssoc, Callback: fn}
	return nil
}

// AddVoidCallback registers fn as a Callback that always returns Null,
// matching the engine facade's add_void_callback wrapper.
func (r *Registry) AddVoidCallback(name string, arity int, fn func(args []value.JV) error) error {
	return r.AddCallback(name, arity, func(args []value.JV) (value.JV, error) {
		if err := fn(args); err != nil {
			return value.Null(), err
		}
		return value.Null(), nil
	})
}

// Names lists every registered built-in and user callback name, for
// diagnostics/tests.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builtins)+len(r.callbacks))
	for n := range r.builtins {
		names = append(names, n)
	}
	seen := make(map[string]bool)
	for k := range r.callbacks {
		if !seen[k.name] {
			seen[k.name] = true
			names = append(names, k.name)
		}
	}
	return names
}
