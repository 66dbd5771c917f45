// Package value implements the canonical JSON Value (JV) type shared by the
// parser, description extractor, and renderer: a tagged union over Null,
// Bool, Int, UInt, Float, String, Array, and Object, with an
// insertion-order-preserving Object backed by github.com/wk8/go-ordered-map/v2.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind tags the dynamic variant of a JV.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUInt
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "integer"
	case KindUInt:
		return "uint"
	case KindFloat:
		return "double"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Object is the ordered string->JV mapping backing KindObject values.
type Object = orderedmap.OrderedMap[string, JV]

// NewObject returns an empty, insertion-order-preserving object.
func NewObject() *Object {
	return orderedmap.New[string, JV]()
}

// JV is the canonical JSON value. Only the field matching Kind is meaningful.
type JV struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	arr  []JV
	obj  *Object
}

func Null() JV               { return JV{kind: KindNull} }
func Bool(b bool) JV         { return JV{kind: KindBool, b: b} }
func Int(i int64) JV         { return JV{kind: KindInt, i: i} }
func UInt(u uint64) JV       { return JV{kind: KindUInt, u: u} }
func Float(f float64) JV     { return JV{kind: KindFloat, f: f} }
func String(s string) JV     { return JV{kind: KindString, s: s} }
func Array(a []JV) JV        { return JV{kind: KindArray, arr: a} }
func ObjectValue(o *Object) JV {
	if o == nil {
		o = NewObject()
	}
	return JV{kind: KindObject, obj: o}
}

func (v JV) Kind() Kind    { return v.kind }
func (v JV) IsNull() bool  { return v.kind == KindNull }
func (v JV) IsArray() bool { return v.kind == KindArray }
func (v JV) IsObject() bool { return v.kind == KindObject }
func (v JV) IsString() bool { return v.kind == KindString }
func (v JV) IsNumber() bool {
	return v.kind == KindInt || v.kind == KindUInt || v.kind == KindFloat
}
func (v JV) IsBool() bool { return v.kind == KindBool }

func (v JV) Bool() bool { return v.b }

// AsString returns the raw string payload; only meaningful for KindString.
func (v JV) AsString() string { return v.s }

// AsArray returns the backing slice; only meaningful for KindArray.
func (v JV) AsArray() []JV { return v.arr }

// AsObject returns the backing ordered map; only meaningful for KindObject.
func (v JV) AsObject() *Object { return v.obj }

// Float64 coerces any numeric kind to float64. Panics are never raised;
// non-numeric kinds return 0.
func (v JV) Float64() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindUInt:
		return float64(v.u)
	case KindFloat:
		return v.f
	}
	return 0
}

// Int64 coerces any numeric kind to int64, truncating floats.
func (v JV) Int64() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindUInt:
		return int64(v.u)
	case KindFloat:
		return int64(v.f)
	}
	return 0
}

// Len reports string rune-length, array size, or object size. Returns -1 for
// kinds with no notion of length.
func (v JV) Len() int {
	switch v.kind {
	case KindString:
		return len([]rune(v.s))
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return -1
	}
}

// Truthy reports whether v counts as true in a boolean context.
func (v JV) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindUInt:
		return v.u != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return v.obj.Len() > 0
	}
	return false
}

// Equal implements deep JV equality (element-wise array/object comparison,
// not identity), used by the == operator.
func Equal(a, b JV) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.Float64() == b.Float64()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for pair := a.obj.Oldest(); pair != nil; pair = pair.Next() {
			bv, ok := b.obj.Get(pair.Key)
			if !ok || !Equal(pair.Value, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two JV for <, <=, >, >= and sort/min/max. Numbers compare
// numerically, strings lexicographically; any other pairing is an error.
func Compare(a, b JV) (int, error) {
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.Float64(), b.Float64()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.kind == KindString && b.kind == KindString {
		return strings.Compare(a.s, b.s), nil
	}
	return 0, fmt.Errorf("cannot compare %s and %s", a.kind, b.kind)
}

// SortSlice sorts JVs ascending by the same discipline as Compare, erroring
// on mixed or unorderable element types (used by the sort/min/max builtins).
func SortSlice(items []JV) ([]JV, error) {
	out := make([]JV, len(items))
	copy(out, items)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := Compare(out[i], out[j])
		if err != nil {
			sortErr = err
			return false
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

// String renders the value the way the renderer prints it into output text:
// unquoted strings/bools/numbers, canonical JSON for arrays/objects, empty
// for null.
func (v JV) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUInt:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindArray, KindObject:
		return v.JSON()
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
