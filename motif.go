// Package motif implements a data-driven text template engine: delimiter-
// configurable lexing, a recursive-descent/Shunting-Yard parser, and a
// tree-walking renderer with scoped variable frames, loop state, file
// emission, and typed-variable validation against a template's extracted
// or user-supplied Description. Engine is the facade every other package
// in this module sits behind; callers should rarely need to import
// ast/lexer/parser/render/template directly.
//
// Grounded on zipreport/miya's Environment facade (functional-options
// construction, a shared registry/store mutated only outside an
// in-progress render, WithX option constructors).
package motif

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/motif-lang/motif/ast"
	"github.com/motif-lang/motif/describe"
	"github.com/motif-lang/motif/funcs"
	"github.com/motif-lang/motif/lexer"
	"github.com/motif-lang/motif/parser"
	"github.com/motif-lang/motif/render"
	"github.com/motif-lang/motif/template"
	"github.com/motif-lang/motif/value"
)

// Re-exported domain error types, so callers can type-switch on the four
// error kinds without importing the internal packages that define them.
type (
	ParseError = parser.Error
	RenderError = render.Error
	FileError   = render.FileError
	DataError   = render.DataError
)

// Template is a parsed template together with the store of sub-templates
// apply-template statements resolved while parsing it. The store travels
// with the Template (rather than living only on the Engine) because two
// Templates parsed from unrelated sources must not see each other's
// apply-template children.
type Template struct {
	tmpl  *template.Template
	store *template.Store
}

// Description returns the template's attached Description: auto-extracted
// at parse time unless an explicit one was supplied to ParseFile.
func (t *Template) Description() *template.Description { return t.tmpl.Description }

// Root returns the template's parsed AST, for tooling (such as the CLI's
// raw-structure dump) that needs to walk it directly rather than through
// Render/Evaluate.
func (t *Template) Root() *ast.Block { return t.tmpl.Root }

// Engine is the template engine facade: one Engine owns a function
// registry (built-in operators/functions plus user callbacks) and the
// delimiter/behavior configuration every Parse/Render call uses. Its
// registry must not be mutated (via AddCallback/AddVoidCallback) while a
// Render from this Engine is in progress.
type Engine struct {
	registry *funcs.Registry

	cfg                    *lexer.Config
	keepComments           bool
	templatesDir           string
	parseNested            bool
	outputDir              string
	dryRun                 bool
	strict                 bool
	loopVariableName       string
	throwAtMissingIncludes bool

	fs     afero.Fs
	logger *log.Logger
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// New builds an Engine with the default delimiter set ({{ }}, {% %}, {# #},
// ## line statements), no templates directory (apply-template children are
// not loaded from files until SetTemplatesDir is called), strict mode off,
// and the loop variable named "loop".
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		registry:         funcs.NewRegistry(),
		cfg:              lexer.DefaultConfig(),
		loopVariableName: "loop",
		fs:               afero.NewOsFs(),
		logger:           log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithFS overrides the filesystem used to load sub-templates and template
// files, for testing against an in-memory afero.Fs.
func WithFS(fs afero.Fs) EngineOption {
	return func(e *Engine) { e.fs = fs }
}

// WithLogger overrides the engine's structured logger, used to report file
// creation during FileStatement rendering.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithKeepComments retains comment nodes in the parsed AST instead of
// discarding them.
func WithKeepComments(keep bool) EngineOption {
	return func(e *Engine) { e.keepComments = keep }
}

// Setters. The spec's engine facade exposes these as mutators rather than
// constructor-only options, since a CLI wrapper typically builds one Engine
// and then applies flags to it.

// SetDelimiters overrides the expression/statement/comment/line-statement
// delimiters; lstrip/rstrip trim variants are derived automatically by the
// lexer (opener+"-" and "-"+closer).
func (e *Engine) SetDelimiters(exprOpen, exprClose, stmtOpen, stmtClose, commentOpen, commentClose, lineStmt string) {
	e.cfg = &lexer.Config{
		ExpressionOpen:    exprOpen,
		ExpressionClose:   exprClose,
		StatementOpen:     stmtOpen,
		StatementClose:    stmtClose,
		CommentOpen:       commentOpen,
		CommentClose:      commentClose,
		LineStatementOpen: lineStmt,
	}
}

// SetTemplatesDir enables apply-template resolution by recursively parsing
// "<dir>/<name>.tpl" files; an empty dir disables nested parsing. The
// engine configures no include callback, so with nested parsing disabled
// apply-template targets stay out of the store.
func (e *Engine) SetTemplatesDir(dir string) {
	e.templatesDir = dir
	e.parseNested = dir != ""
}

// SetOutputDir sets where FileStatement output is written when DryRun is
// false.
func (e *Engine) SetOutputDir(dir string) { e.outputDir = dir }

// SetDryRun toggles whether FileStatement bodies are bracketed with start/
// end markers and written to the active output instead of real files.
func (e *Engine) SetDryRun(dryRun bool) { e.dryRun = dryRun }

// SetStrict toggles whether an unresolved variable raises a render error
// (true) or renders as null (false, the default).
func (e *Engine) SetStrict(strict bool) { e.strict = strict }

// SetLoopVariableName renames the synthesized per-iteration loop object
// (default "loop").
func (e *Engine) SetLoopVariableName(name string) {
	if name == "" {
		name = "loop"
	}
	e.loopVariableName = name
}

// SetThrowAtMissingIncludes toggles whether an apply-template statement
// naming a template absent from the store is a render error (true) or a
// silent no-op (false, the default).
func (e *Engine) SetThrowAtMissingIncludes(b bool) { e.throwAtMissingIncludes = b }

// AddCallback registers a user function under (name, arity); arity -1
// registers a variadic fallback. Must not be called while a Render from
// this Engine is in progress.
func (e *Engine) AddCallback(name string, arity int, fn funcs.Callback) error {
	return e.registry.AddCallback(name, arity, fn)
}

// AddVoidCallback registers fn as a callback that always resolves to null,
// for callbacks invoked purely for a side effect.
func (e *Engine) AddVoidCallback(name string, arity int, fn func(args []value.JV) error) error {
	return e.registry.AddVoidCallback(name, arity, fn)
}

type fsLoader struct {
	fs  afero.Fs
	dir string
}

func (l fsLoader) Load(filename string) (string, error) {
	data, err := afero.ReadFile(l.fs, joinPath(l.dir, filename))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimRight(dir, "/") + "/" + name
}

func (e *Engine) newParser(store *template.Store) *parser.Parser {
	return parser.New(e.registry, store, parser.Options{
		Config:              e.cfg,
		KeepComments:        e.keepComments,
		ParseNestedTemplate: e.parseNested,
		Loader:              fsLoader{fs: e.fs, dir: e.templatesDir},
	})
}

// Parse parses source into a Template. Any apply-template statement it
// contains is resolved immediately, per SetTemplatesDir's configuration.
func (e *Engine) Parse(source string) (*Template, error) {
	return e.parseNamed("<string>", source)
}

func (e *Engine) parseNamed(name, source string) (*Template, error) {
	store := template.NewStore()
	p := e.newParser(store)
	t, err := p.ParseNamed(name, source)
	if err != nil {
		return nil, err
	}
	t.Description = describe.Extract(name, t.Root, describe.Options{LoopVariableName: e.loopVariableName})
	return &Template{tmpl: t, store: store}, nil
}

// ParseFile reads path from the engine's filesystem and parses it. info,
// if supplied, replaces the auto-extracted Description (for typed-variable
// validation); otherwise the template's variable/nested-template names are
// extracted automatically.
func (e *Engine) ParseFile(path string, info ...*template.Description) (*Template, error) {
	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return nil, &FileError{Path: path, Message: err.Error()}
	}
	t, err := e.parseNamed(path, string(data))
	if err != nil {
		return nil, err
	}
	if len(info) > 0 && info[0] != nil {
		t.tmpl.Description = info[0]
	}
	return t, nil
}

// ParseExpression wraps source in the engine's expression delimiters
// (unless it already looks wrapped) and parses it as a single-expression
// template, for use with Evaluate.
func (e *Engine) ParseExpression(source string) (*Template, error) {
	trimmed := strings.TrimSpace(source)
	if !strings.HasPrefix(trimmed, e.cfg.ExpressionOpen) {
		source = e.cfg.ExpressionOpen + " " + source + " " + e.cfg.ExpressionClose
	}
	return e.Parse(source)
}

// Render renders tmpl against data and returns the produced text.
func (e *Engine) Render(tmpl *Template, data value.JV) (string, error) {
	var buf strings.Builder
	r := render.New(e.registry, tmpl.store, tmpl.tmpl, data, e.renderOptions())
	if err := r.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderFile parses path (see ParseFile) and renders it against data.
func (e *Engine) RenderFile(path string, data value.JV, info ...*template.Description) (string, error) {
	t, err := e.ParseFile(path, info...)
	if err != nil {
		return "", err
	}
	return e.Render(t, data)
}

// Evaluate parses expr as a single expression (see ParseExpression) and
// evaluates it against data, returning the resulting JV directly rather
// than its printed text form.
func (e *Engine) Evaluate(expr string, data value.JV) (value.JV, error) {
	t, err := e.ParseExpression(expr)
	if err != nil {
		return value.Null(), err
	}
	if len(t.tmpl.Root.Children) != 1 {
		return value.Null(), fmt.Errorf("motif: expression must evaluate to a single value")
	}
	wrapper, isExpr := t.tmpl.Root.Children[0].(*ast.ExpressionWrapper)
	if !isExpr {
		return value.Null(), fmt.Errorf("motif: source is not a single expression")
	}
	r := render.New(e.registry, t.store, t.tmpl, data, e.renderOptions())
	return r.EvaluateExpression(wrapper)
}

// Describe returns tmpl's attached Description.
func (e *Engine) Describe(tmpl *Template) *template.Description {
	return tmpl.Description()
}

// DescribeFromFile parses path and returns its Description, without
// rendering it.
func (e *Engine) DescribeFromFile(path string) (*template.Description, error) {
	t, err := e.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return t.Description(), nil
}

func (e *Engine) renderOptions() render.Options {
	return render.Options{
		Strict:                 e.strict,
		LoopVariableName:       e.loopVariableName,
		ThrowAtMissingIncludes: e.throwAtMissingIncludes,
		DryRun:                 e.dryRun,
		OutputDir:              e.outputDir,
		FS:                     e.fs,
		Logger:                 e.logger,
	}
}
