package render

import "github.com/motif-lang/motif/value"

// newLoopFrame builds the "loop" object for iteration i of n: index (0-
// based), index1 (1-based), is_first, is_last, and a parent link to the
// loop frame this one shadows, if any.
func newLoopFrame(i, n int, parent value.JV, hasParent bool) value.JV {
	obj := value.NewObject()
	obj.Set("index", value.Int(int64(i)))
	obj.Set("index1", value.Int(int64(i+1)))
	obj.Set("is_first", value.Bool(i == 0))
	obj.Set("is_last", value.Bool(i == n-1))
	if hasParent {
		obj.Set("parent", parent)
	}
	return value.ObjectValue(obj)
}

// withLoopFrame installs name (the engine's configured loop variable name)
// in scope for the duration of fn, restoring whatever was there before
// (or removing the key entirely if nothing was), matching the
// save/restore discipline every nested loop and apply-template iteration
// shares.
func withLoopFrame(scope *value.Object, name string, frame value.JV, fn func() error) error {
	prev, had := scope.Get(name)
	scope.Set(name, frame)
	err := fn()
	if had {
		scope.Set(name, prev)
	} else {
		scope.Delete(name)
	}
	return err
}

// withScopeValue installs val under name in scope for the duration of fn,
// restoring the prior binding (or removing it) the same way withLoopFrame
// does, for the value-name and key-name bindings ForArrayStatement and
// ForObjectStatement introduce per iteration.
func withScopeValue(scope *value.Object, name string, val value.JV, fn func() error) error {
	prev, had := scope.Get(name)
	scope.Set(name, val)
	err := fn()
	if had {
		scope.Set(name, prev)
	} else {
		scope.Delete(name)
	}
	return err
}
