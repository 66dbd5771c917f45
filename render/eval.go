package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/motif-lang/motif/ast"
	"github.com/motif-lang/motif/source"
	"github.com/motif-lang/motif/template"
	"github.com/motif-lang/motif/value"
)

// evalResult carries a DataNode's resolution alongside whether it was a
// genuine miss (nothing matched in scope, input_data, a 0-arity callback,
// or a typed-variable fallback) rather than a real null value. The
// distinction drives default/exists-style lenient handling and strict-mode
// errors the same way a parallel not-found stack would, without needing
// one: the flag travels with the value itself.
type evalResult struct {
	value   value.JV
	missing bool
}

func ok(v value.JV) evalResult { return evalResult{value: v} }

// eval evaluates a single AST node (Literal, Data, or Function) into an
// evalResult, never consulting strict-mode: the caller (resolveMissing or
// argValue) decides what a missing value means at its own boundary.
func (r *Renderer) eval(n ast.Node) (evalResult, error) {
	switch node := n.(type) {
	case *ast.Literal:
		return ok(node.Value), nil
	case *ast.Data:
		return r.resolveData(node)
	case *ast.Function:
		return r.evalFunction(node)
	case *ast.ExpressionWrapper:
		return r.eval(node.Root)
	default:
		return evalResult{}, r.errorf(n, "cannot evaluate node kind %v", n.Kind())
	}
}

// resolveMissing applies the strict/lenient rule to the result of
// evaluating an ExpressionWrapper or a statement's condition/expression:
// a missing resolution is an error under strict mode, else it prints/acts
// as null.
func (r *Renderer) resolveMissing(n ast.Node, res evalResult) (value.JV, error) {
	if !res.missing {
		return res.value, nil
	}
	if r.opts.Strict {
		return value.Null(), r.errorf(n, "variable not found")
	}
	return value.Null(), nil
}

// EvaluateExpression evaluates a single expression node against this
// Renderer's scope and input data, applying the same strict/lenient
// missing-value rule as rendering an ExpressionWrapper inline would. It is
// the entry point motif.Engine.Evaluate uses to get a JV back instead of
// printed text.
func (r *Renderer) EvaluateExpression(n *ast.ExpressionWrapper) (value.JV, error) {
	res, err := r.eval(n.Root)
	if err != nil {
		return value.Null(), err
	}
	return r.resolveMissing(n, res)
}

// argValue evaluates n as a function argument, applying the same
// strict/lenient missing-value rule as resolveMissing.
func (r *Renderer) argValue(n ast.Node) (value.JV, error) {
	res, err := r.eval(n)
	if err != nil {
		return value.Null(), err
	}
	return r.resolveMissing(n, res)
}

// resolveData implements DataNode resolution: scope, then input_data
// (both fanning out across arrays at any level of descent), then a
// 0-arity callback, then the enclosing template's typed-variable
// declaration for this dotted path, which can supply a default, demand
// the value be present, coerce a found value to its declared type, or
// pass it through untouched when no Description covers the path.
func (r *Renderer) resolveData(n *ast.Data) (evalResult, error) {
	matches := resolveDotted(value.ObjectValue(r.scope), n.Parts)
	if len(matches) == 0 {
		matches = resolveDotted(r.inputData, n.Parts)
	}
	if len(matches) == 0 {
		if entry, found := r.registry.Lookup(n.Name, 0); found && entry.Op == ast.OpCallback {
			v, err := entry.Callback(nil)
			if err != nil {
				return evalResult{}, r.errorf(n, "callback %q: %s", n.Name, err)
			}
			matches = []value.JV{v}
		}
	}

	var found value.JV
	hasFound := false
	switch len(matches) {
	case 0:
	case 1:
		found, hasFound = matches[0], true
	default:
		found, hasFound = value.Array(matches), true
	}

	if r.tmpl.Description != nil {
		if variable, declared := r.tmpl.Description.FindVariable(n.Parts); declared {
			if !hasFound {
				switch {
				case variable.HasDefault:
					return ok(variable.Default), nil
				case variable.Required:
					return evalResult{}, r.errorf(n, "the %q variable should be set", n.Name)
				default:
					return ok(value.Null()), nil
				}
			}
			if variable.Type == template.VarTypeNone || variable.Type == template.VarTypeNull {
				return ok(found), nil
			}
			coerced, err := coerce(found, variable.Type)
			if err != nil {
				return evalResult{}, r.errorf(n, "%s", err)
			}
			return ok(coerced), nil
		}
	}

	if hasFound {
		return ok(found), nil
	}
	return evalResult{value: value.Null(), missing: true}, nil
}

// evalFunction dispatches a Function node by its Operation tag: the built-in
// operator and named-function table, plus OpCallback for user invocables.
func (r *Renderer) evalFunction(n *ast.Function) (evalResult, error) {
	switch n.Op {
	case ast.OpCallback:
		args, err := r.argValues(n.Args)
		if err != nil {
			return evalResult{}, err
		}
		v, err := n.Invocable(args)
		if err != nil {
			return evalResult{}, r.errorf(n, "%s: %s", n.Name, err)
		}
		return ok(v), nil

	case ast.OpNot:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(!a.Truthy())), nil

	case ast.OpAnd:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		if !a.Truthy() {
			return ok(value.Bool(false)), nil
		}
		b, err := r.argValue(n.Args[1])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(b.Truthy())), nil

	case ast.OpOr:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		if a.Truthy() {
			return ok(value.Bool(true)), nil
		}
		b, err := r.argValue(n.Args[1])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(b.Truthy())), nil

	case ast.OpIn:
		a, b, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		if !b.IsArray() {
			return evalResult{}, r.errorf(n, "the 'in' operator requires an array on the right")
		}
		found := false
		for _, item := range b.AsArray() {
			if value.Equal(a, item) {
				found = true
				break
			}
		}
		return ok(value.Bool(found)), nil

	case ast.OpEqual:
		a, b, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(value.Equal(a, b))), nil

	case ast.OpNotEqual:
		a, b, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(!value.Equal(a, b))), nil

	case ast.OpGreater, ast.OpGreaterEqual, ast.OpLess, ast.OpLessEqual:
		a, b, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		c, err := value.Compare(a, b)
		if err != nil {
			return evalResult{}, r.errorf(n, "%s", err)
		}
		var result bool
		switch n.Op {
		case ast.OpGreater:
			result = c > 0
		case ast.OpGreaterEqual:
			result = c >= 0
		case ast.OpLess:
			result = c < 0
		case ast.OpLessEqual:
			result = c <= 0
		}
		return ok(value.Bool(result)), nil

	case ast.OpAdd:
		a, b, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		if a.IsString() && b.IsString() {
			return ok(value.String(a.AsString() + b.AsString())), nil
		}
		if a.IsNumber() && b.IsNumber() {
			return ok(value.Float(a.Float64() + b.Float64())), nil
		}
		return evalResult{}, r.errorf(n, "the '+' operator works only with strings or numbers")

	case ast.OpSubtract, ast.OpMultiplication, ast.OpDivision, ast.OpPower:
		a, b, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		if !a.IsNumber() || !b.IsNumber() {
			return evalResult{}, r.errorf(n, "operator %q works only with numbers", n.Name)
		}
		switch n.Op {
		case ast.OpSubtract:
			return ok(value.Float(a.Float64() - b.Float64())), nil
		case ast.OpMultiplication:
			return ok(value.Float(a.Float64() * b.Float64())), nil
		case ast.OpDivision:
			if b.Float64() == 0 {
				return evalResult{}, r.errorf(n, "division by zero")
			}
			return ok(value.Float(a.Float64() / b.Float64())), nil
		default: // OpPower
			return ok(value.Float(math.Pow(a.Float64(), b.Float64()))), nil
		}

	case ast.OpModulo:
		a, b, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		aIsInt := a.Kind() == value.KindInt || a.Kind() == value.KindUInt
		bIsInt := b.Kind() == value.KindInt || b.Kind() == value.KindUInt
		if !aIsInt || !bIsInt {
			return evalResult{}, r.errorf(n, "the '%%' operator works only with integers")
		}
		if b.Int64() == 0 {
			return evalResult{}, r.errorf(n, "modulo by zero")
		}
		return ok(value.Int(a.Int64() % b.Int64())), nil

	case ast.OpAtId:
		return r.evalAtId(n)

	case ast.OpAt:
		container, key, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		return r.evalAt(n, container, key)

	case ast.OpDefault:
		res, err := r.eval(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		if !res.missing {
			return ok(res.value), nil
		}
		d, err := r.argValue(n.Args[1])
		if err != nil {
			return evalResult{}, err
		}
		return ok(d), nil

	case ast.OpDivisibleBy:
		a, b, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		divisor := b.Int64()
		return ok(value.Bool(divisor != 0 && a.Int64()%divisor == 0)), nil

	case ast.OpEven:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(a.Int64()%2 == 0)), nil

	case ast.OpOdd:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(a.Int64()%2 != 0)), nil

	case ast.OpExists:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		if !a.IsString() {
			return evalResult{}, r.errorf(n, "exists() requires a string path")
		}
		_, found := value.Lookup(r.inputData, source.ToPointer(a.AsString()))
		return ok(value.Bool(found)), nil

	case ast.OpExistsIn:
		obj, key, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		if !obj.IsObject() {
			return evalResult{}, r.errorf(n, "existsIn() requires an object")
		}
		_, found := obj.AsObject().Get(key.AsString())
		return ok(value.Bool(found)), nil

	case ast.OpFirst:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		if !a.IsArray() || a.Len() == 0 {
			return evalResult{}, r.errorf(n, "the 'first' function works only with a non-empty array")
		}
		return ok(a.AsArray()[0]), nil

	case ast.OpLast:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		if !a.IsArray() || a.Len() == 0 {
			return evalResult{}, r.errorf(n, "the 'last' function works only with a non-empty array")
		}
		arr := a.AsArray()
		return ok(arr[len(arr)-1]), nil

	case ast.OpFloat:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		f, perr := strconv.ParseFloat(a.AsString(), 64)
		if perr != nil {
			return evalResult{}, r.errorf(n, "float(): %s", perr)
		}
		return ok(value.Float(f)), nil

	case ast.OpInt:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		i, perr := strconv.ParseInt(a.AsString(), 10, 64)
		if perr != nil {
			return evalResult{}, r.errorf(n, "int(): %s", perr)
		}
		return ok(value.Int(i)), nil

	case ast.OpLength:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		if !a.IsString() && !a.IsArray() && !a.IsObject() {
			return evalResult{}, r.errorf(n, "the 'length' function works only with a string, array, or object")
		}
		return ok(value.Int(int64(a.Len()))), nil

	case ast.OpLower:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.String(strings.ToLower(a.AsString()))), nil

	case ast.OpUpper:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.String(strings.ToUpper(a.AsString()))), nil

	case ast.OpMax, ast.OpMin, ast.OpSort:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		if !a.IsArray() {
			return evalResult{}, r.errorf(n, "%q works only with an array", n.Name)
		}
		sorted, serr := value.SortSlice(a.AsArray())
		if serr != nil {
			return evalResult{}, r.errorf(n, "%s", serr)
		}
		switch n.Op {
		case ast.OpMax:
			if len(sorted) == 0 {
				return evalResult{}, r.errorf(n, "max() requires a non-empty array")
			}
			return ok(sorted[len(sorted)-1]), nil
		case ast.OpMin:
			if len(sorted) == 0 {
				return evalResult{}, r.errorf(n, "min() requires a non-empty array")
			}
			return ok(sorted[0]), nil
		default: // OpSort
			return ok(value.Array(sorted)), nil
		}

	case ast.OpRange:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		count := a.Int64()
		items := make([]value.JV, 0, count)
		for i := int64(0); i < count; i++ {
			items = append(items, value.Int(i))
		}
		return ok(value.Array(items)), nil

	case ast.OpRound:
		x, p, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		precision := p.Int64()
		scale := math.Pow(10, float64(precision))
		rounded := math.Round(x.Float64()*scale) / scale
		if precision == 0 {
			return ok(value.Int(int64(rounded))), nil
		}
		return ok(value.Float(rounded)), nil

	case ast.OpJoin:
		a, sep, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		if !a.IsArray() {
			return evalResult{}, r.errorf(n, "join() requires an array")
		}
		parts := make([]string, 0, a.Len())
		for _, item := range a.AsArray() {
			parts = append(parts, item.String())
		}
		return ok(value.String(strings.Join(parts, sep.AsString()))), nil

	case ast.OpSplit:
		s, delim, err := r.binaryArgs(n)
		if err != nil {
			return evalResult{}, err
		}
		pieces := strings.Split(s.AsString(), delim.AsString())
		items := make([]value.JV, len(pieces))
		for i, p := range pieces {
			items[i] = value.String(p)
		}
		return ok(value.Array(items)), nil

	case ast.OpIsBoolean:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(a.IsBool())), nil

	case ast.OpIsNumber:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(a.IsNumber())), nil

	case ast.OpIsInteger:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(a.Kind() == value.KindInt || a.Kind() == value.KindUInt)), nil

	case ast.OpIsFloat:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(a.Kind() == value.KindFloat)), nil

	case ast.OpIsObject:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(a.IsObject())), nil

	case ast.OpIsArray:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(a.IsArray())), nil

	case ast.OpIsString:
		a, err := r.argValue(n.Args[0])
		if err != nil {
			return evalResult{}, err
		}
		return ok(value.Bool(a.IsString())), nil

	default:
		return evalResult{}, r.errorf(n, "unhandled operation")
	}
}

func (r *Renderer) argValues(nodes []ast.Node) ([]value.JV, error) {
	out := make([]value.JV, len(nodes))
	for i, n := range nodes {
		v, err := r.argValue(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *Renderer) binaryArgs(n *ast.Function) (value.JV, value.JV, error) {
	a, err := r.argValue(n.Args[0])
	if err != nil {
		return value.Null(), value.Null(), err
	}
	b, err := r.argValue(n.Args[1])
	if err != nil {
		return value.Null(), value.Null(), err
	}
	return a, b, nil
}

// evalAtId implements the "@" operator: container @ field reads field's
// name directly off the right-hand DataNode rather than resolving it as a
// variable, the same way a.b dot access differs from a and b both being
// independently-resolved expressions.
func (r *Renderer) evalAtId(n *ast.Function) (evalResult, error) {
	container, err := r.argValue(n.Args[0])
	if err != nil {
		return evalResult{}, err
	}
	field, isData := n.Args[1].(*ast.Data)
	if !isData {
		return evalResult{}, r.errorf(n, "the '@' operator requires an identifier on the right")
	}
	return r.evalAt(n, container, value.String(field.Name))
}

func (r *Renderer) evalAt(n *ast.Function, container, key value.JV) (evalResult, error) {
	switch {
	case container.IsObject():
		v, found := container.AsObject().Get(key.AsString())
		if !found {
			return evalResult{}, r.errorf(n, "key %q not found", key.AsString())
		}
		return ok(v), nil
	case container.IsArray():
		idx := key.Int64()
		arr := container.AsArray()
		if idx < 0 || idx >= int64(len(arr)) {
			return evalResult{}, r.errorf(n, "index %d out of range", idx)
		}
		return ok(arr[idx]), nil
	default:
		return evalResult{}, r.errorf(n, "at() requires an object or array")
	}
}
