package value

import (
	"fmt"

	"github.com/go-openapi/jsonpointer"
)

// JSONLookup implements github.com/go-openapi/jsonpointer's JSONPointable
// interface so a jsonpointer.Pointer can walk a JV tree directly: object
// lookup by key, array lookup by decimal index, matching the library's own
// reflection-based behavior for plain maps/slices but without reflection.
func (v JV) JSONLookup(token string) (interface{}, error) {
	switch v.kind {
	case KindObject:
		child, ok := v.obj.Get(token)
		if !ok {
			return nil, fmt.Errorf("object has no key %q", token)
		}
		return child, nil
	case KindArray:
		idx, err := arrayIndex(token, len(v.arr))
		if err != nil {
			return nil, err
		}
		return v.arr[idx], nil
	default:
		return nil, fmt.Errorf("cannot index into %s with %q", v.kind, token)
	}
}

// Lookup resolves an RFC 6901 JSON Pointer ("/a/b/0") against v, used for
// exists(path) and apply-template's field resolution.
func Lookup(v JV, pointer string) (JV, bool) {
	if pointer == "" {
		return v, true
	}
	ptr, err := jsonpointer.New(pointer)
	if err != nil {
		return Null(), false
	}
	result, _, err := ptr.Get(v)
	if err != nil {
		return Null(), false
	}
	jv, ok := result.(JV)
	if !ok {
		return Null(), false
	}
	return jv, true
}

func arrayIndex(token string, length int) (int, error) {
	n := 0
	if token == "" {
		return 0, fmt.Errorf("empty array index")
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid array index %q", token)
		}
		n = n*10 + int(r-'0')
	}
	if n < 0 || n >= length {
		return 0, fmt.Errorf("array index %q out of range", token)
	}
	return n, nil
}
