package render

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/motif-lang/motif/ast"
	"github.com/motif-lang/motif/funcs"
	"github.com/motif-lang/motif/template"
	"github.com/motif-lang/motif/value"
)

// Options configures a Renderer's behavior; every field has a usable zero
// value except FS, which defaults to the OS filesystem when nil.
type Options struct {
	Strict                 bool
	LoopVariableName       string
	ThrowAtMissingIncludes bool
	DryRun                 bool
	OutputDir              string
	FS                     afero.Fs
	Logger                 *log.Logger
	// InitialScope seeds the auxiliary scope, used when a sub-renderer is
	// spawned for apply-template and inherits the parent's scope.
	InitialScope *value.Object
}

// Renderer walks one Template's AST against one JV data tree, writing text
// to an active sink. Each top-level Render call, and each apply-template
// sub-render, owns a fresh Renderer: registry and store are shared, but
// scope, the loop-frame chain, and the output stack are not.
type Renderer struct {
	registry *funcs.Registry
	store    *template.Store
	tmpl     *template.Template

	templateName string
	source       string

	opts Options

	inputData value.JV
	scope     *value.Object

	out        io.Writer
	outStack   []io.Writer
	fileStack  []afero.File
}

// New constructs a Renderer for tmpl against inputData.
func New(registry *funcs.Registry, store *template.Store, tmpl *template.Template, inputData value.JV, opts Options) *Renderer {
	if opts.LoopVariableName == "" {
		opts.LoopVariableName = "loop"
	}
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	scope := opts.InitialScope
	if scope == nil {
		scope = value.NewObject()
	} else {
		scope = cloneObject(scope)
	}
	return &Renderer{
		registry:     registry,
		store:        store,
		tmpl:         tmpl,
		templateName: tmpl.Origin,
		source:       tmpl.Source,
		opts:         opts,
		inputData:    inputData,
		scope:        scope,
	}
}

func cloneObject(src *value.Object) *value.Object {
	dst := value.NewObject()
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		dst.Set(pair.Key, pair.Value)
	}
	return dst
}

// Render executes the template's root block against w.
func (r *Renderer) Render(w io.Writer) error {
	r.out = w
	return r.renderBlock(r.tmpl.Root)
}

func (r *Renderer) write(s string) error {
	_, err := io.WriteString(r.out, s)
	return err
}

func (r *Renderer) renderBlock(b *ast.Block) error {
	for _, child := range b.Children {
		if err := r.renderNode(child); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderNode(n ast.Node) error {
	switch node := n.(type) {
	case *ast.Text:
		return r.write(r.source[node.Offset() : node.Offset()+node.Length])
	case *ast.Comment:
		return nil
	case *ast.ExpressionWrapper:
		res, err := r.eval(node.Root)
		if err != nil {
			return err
		}
		v, err := r.resolveMissing(node, res)
		if err != nil {
			return err
		}
		return r.write(v.String())
	case *ast.If:
		return r.renderIf(node)
	case *ast.ForArray:
		return r.renderForArray(node)
	case *ast.ForObject:
		return r.renderForObject(node)
	case *ast.File:
		return r.renderFile(node)
	case *ast.ApplyTemplate:
		return r.renderApplyTemplate(node)
	case *ast.Set:
		return r.renderSet(node)
	default:
		return r.errorf(n, "renderer: unhandled node kind %v", n.Kind())
	}
}

func (r *Renderer) renderIf(n *ast.If) error {
	res, err := r.eval(n.Condition.Root)
	if err != nil {
		return err
	}
	cond, err := r.resolveMissing(n.Condition, res)
	if err != nil {
		return err
	}
	if cond.Truthy() {
		return r.renderBlock(n.True)
	}
	if n.HasFalse {
		return r.renderBlock(n.False)
	}
	return nil
}

func (r *Renderer) renderForArray(n *ast.ForArray) error {
	res, err := r.eval(n.Condition.Root)
	if err != nil {
		return err
	}
	container, err := r.resolveMissing(n.Condition, res)
	if err != nil {
		return err
	}
	if !container.IsArray() {
		return r.errorf(n, "for loop requires an array")
	}
	items := container.AsArray()

	prevLoop, hadLoop := r.scope.Get(r.opts.LoopVariableName)
	for i, item := range items {
		frame := newLoopFrame(i, len(items), prevLoop, hadLoop)
		err := withScopeValue(r.scope, n.ValueName, item, func() error {
			return withLoopFrame(r.scope, r.opts.LoopVariableName, frame, func() error {
				return r.renderBlock(n.Body)
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderForObject(n *ast.ForObject) error {
	res, err := r.eval(n.Condition.Root)
	if err != nil {
		return err
	}
	container, err := r.resolveMissing(n.Condition, res)
	if err != nil {
		return err
	}
	if !container.IsObject() {
		return r.errorf(n, "for loop requires an object")
	}
	obj := container.AsObject()
	count := obj.Len()

	prevLoop, hadLoop := r.scope.Get(r.opts.LoopVariableName)
	i := 0
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		frame := newLoopFrame(i, count, prevLoop, hadLoop)
		key, val := pair.Key, pair.Value
		err := withScopeValue(r.scope, n.KeyName, value.String(key), func() error {
			return withScopeValue(r.scope, n.ValueName, val, func() error {
				return withLoopFrame(r.scope, r.opts.LoopVariableName, frame, func() error {
					return r.renderBlock(n.Body)
				})
			})
		})
		if err != nil {
			return err
		}
		i++
	}
	return nil
}

func (r *Renderer) renderFile(n *ast.File) error {
	res, err := r.eval(n.Filename.Root)
	if err != nil {
		return err
	}
	name, err := r.resolveMissing(n.Filename, res)
	if err != nil {
		return err
	}
	if !name.IsString() {
		return r.errorf(n, "file statement requires a string filename")
	}
	filename := name.AsString()

	if r.opts.DryRun {
		if err := r.write(fmt.Sprintf(">>>>>> Start file: %q\n", filename)); err != nil {
			return err
		}
		if err := r.renderBlock(n.Body); err != nil {
			return err
		}
		return r.write(fmt.Sprintf("<<<<<< End file: %q\n", filename))
	}

	normalized := filepath.FromSlash(strings.ReplaceAll(filename, "\\", "/"))
	path := filepath.Join(r.opts.OutputDir, normalized)
	if err := r.opts.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &FileError{Path: path, Message: err.Error()}
	}
	f, err := r.opts.FS.Create(path)
	if err != nil {
		return &FileError{Path: path, Message: err.Error()}
	}
	r.pushOutput(f)
	r.opts.Logger.Debug("writing file", "path", path)
	err = r.renderBlock(n.Body)
	closeErr := f.Close()
	r.popOutput()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return &FileError{Path: path, Message: closeErr.Error()}
	}
	return nil
}

func (r *Renderer) pushOutput(f afero.File) {
	r.outStack = append(r.outStack, r.out)
	r.fileStack = append(r.fileStack, f)
	r.out = f
}

func (r *Renderer) popOutput() {
	r.fileStack = r.fileStack[:len(r.fileStack)-1]
	r.out = r.outStack[len(r.outStack)-1]
	r.outStack = r.outStack[:len(r.outStack)-1]
}

func (r *Renderer) renderApplyTemplate(n *ast.ApplyTemplate) error {
	child, ok := r.store.Get(n.TemplateName)
	if !ok {
		if r.opts.ThrowAtMissingIncludes {
			return r.errorf(n, "apply-template: %q is not in the template store", n.TemplateName)
		}
		return nil
	}

	field, ok := value.Lookup(r.inputData, n.FieldPointer)
	if !ok {
		return nil
	}

	if field.IsArray() {
		items := field.AsArray()
		prevLoop, hadLoop := r.scope.Get(r.opts.LoopVariableName)
		for i, elem := range items {
			frame := newLoopFrame(i, len(items), prevLoop, hadLoop)
			err := withLoopFrame(r.scope, r.opts.LoopVariableName, frame, func() error {
				return r.renderSubTemplate(child, elem)
			})
			if err != nil {
				return err
			}
		}
		return nil
	}

	return r.renderSubTemplate(child, field)
}

func (r *Renderer) renderSubTemplate(child *template.Template, data value.JV) error {
	sub := New(r.registry, r.store, child, data, Options{
		Strict:                 r.opts.Strict,
		LoopVariableName:       r.opts.LoopVariableName,
		ThrowAtMissingIncludes: r.opts.ThrowAtMissingIncludes,
		DryRun:                 r.opts.DryRun,
		OutputDir:              r.opts.OutputDir,
		FS:                     r.opts.FS,
		Logger:                 r.opts.Logger,
		InitialScope:           r.scope,
	})
	return sub.Render(r.out)
}

func (r *Renderer) renderSet(n *ast.Set) error {
	res, err := r.eval(n.Expression.Root)
	if err != nil {
		return err
	}
	v, err := r.resolveMissing(n.Expression, res)
	if err != nil {
		return err
	}
	scopeSet(r.scope, n.Key, v)
	return nil
}
