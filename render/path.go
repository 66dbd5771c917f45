package render

import (
	"github.com/motif-lang/motif/source"
	"github.com/motif-lang/motif/value"
)

// resolveDotted descends root through parts, fanning out across arrays at
// any level: an Array encountered mid-descent is treated transparently,
// recursing into every element and collecting the matches each yields.
func resolveDotted(root value.JV, parts []string) []value.JV {
	current := []value.JV{root}
	for _, part := range parts {
		var next []value.JV
		for _, node := range current {
			next = append(next, descend(node, part)...)
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	return current
}

func descend(node value.JV, part string) []value.JV {
	switch node.Kind() {
	case value.KindObject:
		if v, ok := node.AsObject().Get(part); ok {
			return []value.JV{v}
		}
		return nil
	case value.KindArray:
		var out []value.JV
		for _, elem := range node.AsArray() {
			out = append(out, descend(elem, part)...)
		}
		return out
	default:
		return nil
	}
}

// scopeSet writes value at a (possibly dotted) key within scope, creating
// intermediate objects as needed, for the SetStatement.
func scopeSet(scope *value.Object, dotted string, val value.JV) {
	setNested(scope, source.SplitDotted(dotted), val)
}

func setNested(obj *value.Object, parts []string, val value.JV) {
	if len(parts) == 1 {
		obj.Set(parts[0], val)
		return
	}
	child, ok := obj.Get(parts[0])
	var childObj *value.Object
	if ok && child.IsObject() {
		childObj = child.AsObject()
	} else {
		childObj = value.NewObject()
	}
	setNested(childObj, parts[1:], val)
	obj.Set(parts[0], value.ObjectValue(childObj))
}
