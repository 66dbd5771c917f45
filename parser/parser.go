// Package parser drives the lexer to build an AST: statements via
// recursive descent, expressions via Shunting-Yard, and apply-template
// references resolved by recursively parsing included templates (or
// delegating to an include callback). Grounded on zipreport/miya's
// parser/parser.go token-cursor shape (materialized token slice, current
// index, peek/advance/check helpers), generalized to this grammar.
package parser

import (
	"fmt"

	"github.com/motif-lang/motif/ast"
	"github.com/motif-lang/motif/funcs"
	"github.com/motif-lang/motif/lexer"
	"github.com/motif-lang/motif/source"
	"github.com/motif-lang/motif/template"
)

// Loader resolves a sub-template filename (already suffixed with ".tpl")
// to its source text, used when Options.ParseNestedTemplate is set.
type Loader interface {
	Load(filename string) (string, error)
}

// IncludeCallback is consulted for apply-template resolution when
// Options.ParseNestedTemplate is false; it returns the child source and
// whether one was supplied.
type IncludeCallback func(templateName string) (string, bool)

// Options configures a Parser's behavior.
type Options struct {
	Config              *lexer.Config
	KeepComments        bool
	ParseNestedTemplate bool
	Loader              Loader
	IncludeCallback     IncludeCallback
}

// Parser parses template sources into ASTs, inserting apply-template
// children into a shared Store as they are discovered.
type Parser struct {
	registry *funcs.Registry
	store    *template.Store
	opts     Options
}

// New constructs a Parser sharing registry (for function/operator
// resolution) and store (for apply-template children) with its caller.
func New(registry *funcs.Registry, store *template.Store, opts Options) *Parser {
	if opts.Config == nil {
		opts.Config = lexer.DefaultConfig()
	}
	return &Parser{registry: registry, store: store, opts: opts}
}

// Parse parses source into a root Block without inserting it into the
// Store. ParseNamed builds on it; the engine's entry points call
// ParseNamed, so their templates are stored.
func (p *Parser) Parse(source string) (*ast.Block, error) {
	toks := lexer.New(source, p.opts.Config).All()
	st := &state{p: p, source: source, tokens: toks}
	return st.parseProgram()
}

// ParseNamed parses source and stores the resulting Template under name,
// unless name is already present, in which case it is a no-op so that
// recursive or repeated apply-template references to the same name don't
// reparse it.
func (p *Parser) ParseNamed(name, src string) (*template.Template, error) {
	if t, ok := p.store.Get(name); ok {
		return t, nil
	}
	root, err := p.Parse(src)
	if err != nil {
		return nil, err
	}
	t := &template.Template{Source: src, Origin: name, Root: root}
	p.store.Set(name, t)
	return t, nil
}

// state holds one parse's token cursor; a fresh state is created per
// Parse call (including recursive apply-template parses) so nested parses
// never disturb an in-progress parent's cursor.
type state struct {
	p      *Parser
	source string
	tokens []lexer.Token
	pos    int

	ifStack  []*ast.If
	forStack []ast.Node
	openFile *ast.File
	fileSeen bool
}

func (s *state) peek() lexer.Token  { return s.tokens[s.pos] }
func (s *state) atEnd() bool        { return s.peek().Kind == lexer.Eof }
func (s *state) advance() lexer.Token {
	tok := s.tokens[s.pos]
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
	return tok
}
func (s *state) check(k lexer.Kind) bool { return s.peek().Kind == k }

func (s *state) expect(k lexer.Kind, what string) (lexer.Token, error) {
	if !s.check(k) {
		return lexer.Token{}, s.errorf(s.peek().Offset, "expected %s, found %s", what, s.peek().Kind)
	}
	return s.advance(), nil
}

func (s *state) parseProgram() (*ast.Block, error) {
	root := ast.NewBlock(0)
	current := root

	for !s.atEnd() {
		tok := s.peek()
		switch tok.Kind {
		case lexer.Text:
			s.advance()
			current.Children = append(current.Children, ast.NewText(tok.Offset, len(tok.Text)))

		case lexer.CommentOpen:
			node, err := s.parseComment(tok)
			if err != nil {
				return nil, err
			}
			if node != nil {
				current.Children = append(current.Children, node)
			}

		case lexer.ExpressionOpen:
			node, err := s.parseExpressionWrapper(tok, lexer.ExpressionClose)
			if err != nil {
				return nil, err
			}
			current.Children = append(current.Children, node)

		case lexer.StatementOpen, lexer.LineStatementOpen:
			next, newCurrent, err := s.parseStatement(tok, &current)
			if err != nil {
				return nil, err
			}
			if next != nil {
				current.Children = append(current.Children, next)
			}
			if newCurrent != nil {
				current = newCurrent
			}

		default:
			return nil, s.errorf(tok.Offset, "unexpected token %s", tok.Kind)
		}
	}

	if len(s.ifStack) > 0 {
		return nil, s.errorf(s.peek().Offset, "unclosed if statement")
	}
	if len(s.forStack) > 0 {
		return nil, s.errorf(s.peek().Offset, "unclosed for statement")
	}
	if s.openFile != nil {
		return nil, s.errorf(s.peek().Offset, "unclosed file statement")
	}

	return root, nil
}

func (s *state) parseComment(openTok lexer.Token) (ast.Node, error) {
	s.advance() // consume opener
	closeTok, err := s.expect(lexer.CommentClose, "'#}'")
	if err != nil {
		return nil, err
	}
	if !s.p.opts.KeepComments {
		return nil, nil
	}
	afterBody := closeTok.Offset + len(closeTok.Text)
	closerLen := len(s.p.opts.Config.CommentClose)
	if hasPrefixAt(s.source, afterBody, "-"+s.p.opts.Config.CommentClose) {
		closerLen = len(s.p.opts.Config.CommentClose) + 1
	}
	end := afterBody + closerLen
	return ast.NewComment(openTok.Offset, end-openTok.Offset), nil
}

func hasPrefixAt(s string, at int, prefix string) bool {
	return at >= 0 && at+len(prefix) <= len(s) && s[at:at+len(prefix)] == prefix
}

func (s *state) parseExpressionWrapper(openTok lexer.Token, closeKind lexer.Kind) (ast.Node, error) {
	s.advance() // consume opener
	if s.check(closeKind) {
		return nil, s.errorf(openTok.Offset, "empty expression")
	}
	root, err := s.parseExpression(closeKind)
	if err != nil {
		return nil, err
	}
	if _, err := s.expect(closeKind, "expression close"); err != nil {
		return nil, err
	}
	return ast.NewExpressionWrapper(openTok.Offset, root), nil
}

// parseStatement dispatches on the statement keyword after a
// StatementOpen/LineStatementOpen. It returns (newNode, newCurrentBlock):
// newNode is appended to the caller's current block if non-nil (used for
// leaf statements like set/apply-template and for the first opening of a
// compound statement); newCurrentBlock, if non-nil, replaces the parser's
// notion of "current block" for subsequent top-level nodes.
func (s *state) parseStatement(openTok lexer.Token, current **ast.Block) (ast.Node, *ast.Block, error) {
	closeKind := lexer.StatementClose
	if openTok.Kind == lexer.LineStatementOpen {
		closeKind = lexer.LineStatementClose
	}
	s.advance() // consume opener

	kwTok, err := s.expect(lexer.Id, "statement keyword")
	if err != nil {
		return nil, nil, err
	}

	switch kwTok.Text {
	case "if":
		return s.parseIf(openTok, closeKind, *current)
	case "else":
		return s.parseElse(openTok, closeKind, *current)
	case "endif":
		return s.parseEndIf(openTok, closeKind)
	case "for":
		return s.parseFor(openTok, closeKind, *current)
	case "endfor":
		return s.parseEndFor(openTok, closeKind)
	case "file":
		return s.parseFile(openTok, closeKind, *current)
	case "endfile":
		return s.parseEndFile(openTok, closeKind)
	case "apply-template":
		node, err := s.parseApplyTemplate(openTok, closeKind)
		return node, nil, err
	case "set":
		node, err := s.parseSet(openTok, closeKind)
		return node, nil, err
	default:
		return nil, nil, s.errorf(kwTok.Offset, "unknown statement %q", kwTok.Text)
	}
}

func (s *state) parseIf(openTok lexer.Token, closeKind lexer.Kind, current *ast.Block) (ast.Node, *ast.Block, error) {
	cond, err := s.parseCondition(closeKind)
	if err != nil {
		return nil, nil, err
	}
	node := ast.NewIf(openTok.Offset, cond, ast.NewBlock(openTok.Offset), false)
	node.SetParent(current)
	s.ifStack = append(s.ifStack, node)
	return node, node.True, nil
}

func (s *state) parseElse(openTok lexer.Token, closeKind lexer.Kind, current *ast.Block) (ast.Node, *ast.Block, error) {
	if len(s.ifStack) == 0 {
		return nil, nil, s.errorf(openTok.Offset, "'else' without matching 'if'")
	}
	top := s.ifStack[len(s.ifStack)-1]
	top.False = ast.NewBlock(openTok.Offset)
	top.HasFalse = true

	if s.check(lexer.Id) && s.peek().Text == "if" {
		s.advance()
		cond, err := s.parseCondition(closeKind)
		if err != nil {
			return nil, nil, err
		}
		nested := ast.NewIf(openTok.Offset, cond, ast.NewBlock(openTok.Offset), true)
		nested.SetParent(top.False)
		top.False.Children = append(top.False.Children, nested)
		s.ifStack = append(s.ifStack, nested)
		return nil, nested.True, nil
	}

	if _, err := s.expect(closeKind, "statement close"); err != nil {
		return nil, nil, err
	}
	return nil, top.False, nil
}

func (s *state) parseEndIf(openTok lexer.Token, closeKind lexer.Kind) (ast.Node, *ast.Block, error) {
	if _, err := s.expect(closeKind, "statement close"); err != nil {
		return nil, nil, err
	}
	for len(s.ifStack) > 0 && s.ifStack[len(s.ifStack)-1].IsNested {
		s.ifStack = s.ifStack[:len(s.ifStack)-1]
	}
	if len(s.ifStack) == 0 {
		return nil, nil, s.errorf(openTok.Offset, "'endif' without matching 'if'")
	}
	outer := s.ifStack[len(s.ifStack)-1]
	s.ifStack = s.ifStack[:len(s.ifStack)-1]
	return nil, outer.Parent(), nil
}

// parseCondition parses the expression following "if"/"else if" and
// expects the statement's closing token.
func (s *state) parseCondition(closeKind lexer.Kind) (*ast.ExpressionWrapper, error) {
	offset := s.peek().Offset
	root, err := s.parseExpression(closeKind)
	if err != nil {
		return nil, err
	}
	if _, err := s.expect(closeKind, "statement close"); err != nil {
		return nil, err
	}
	return ast.NewExpressionWrapper(offset, root), nil
}

func (s *state) parseFor(openTok lexer.Token, closeKind lexer.Kind, current *ast.Block) (ast.Node, *ast.Block, error) {
	first, err := s.expect(lexer.Id, "loop variable name")
	if err != nil {
		return nil, nil, err
	}

	if s.check(lexer.Comma) {
		s.advance()
		second, err := s.expect(lexer.Id, "loop value name")
		if err != nil {
			return nil, nil, err
		}
		if err := s.expectKeyword("in"); err != nil {
			return nil, nil, err
		}
		cond, err := s.parseCondition(closeKind)
		if err != nil {
			return nil, nil, err
		}
		node := ast.NewForObject(openTok.Offset, first.Text, second.Text, cond, ast.NewBlock(openTok.Offset))
		node.SetParent(current)
		s.forStack = append(s.forStack, node)
		return node, node.Body, nil
	}

	if err := s.expectKeyword("in"); err != nil {
		return nil, nil, err
	}
	cond, err := s.parseCondition(closeKind)
	if err != nil {
		return nil, nil, err
	}
	node := ast.NewForArray(openTok.Offset, first.Text, cond, ast.NewBlock(openTok.Offset))
	node.SetParent(current)
	s.forStack = append(s.forStack, node)
	return node, node.Body, nil
}

func (s *state) expectKeyword(word string) error {
	if !s.check(lexer.Id) || s.peek().Text != word {
		return s.errorf(s.peek().Offset, "expected %q", word)
	}
	s.advance()
	return nil
}

func (s *state) parseEndFor(openTok lexer.Token, closeKind lexer.Kind) (ast.Node, *ast.Block, error) {
	if _, err := s.expect(closeKind, "statement close"); err != nil {
		return nil, nil, err
	}
	if len(s.forStack) == 0 {
		return nil, nil, s.errorf(openTok.Offset, "'endfor' without matching 'for'")
	}
	top := s.forStack[len(s.forStack)-1]
	s.forStack = s.forStack[:len(s.forStack)-1]
	switch t := top.(type) {
	case *ast.ForArray:
		return nil, t.Parent(), nil
	case *ast.ForObject:
		return nil, t.Parent(), nil
	}
	return nil, nil, fmt.Errorf("parser: unreachable for-frame type")
}

func (s *state) parseFile(openTok lexer.Token, closeKind lexer.Kind, current *ast.Block) (ast.Node, *ast.Block, error) {
	if s.openFile != nil {
		return nil, nil, s.errorf(openTok.Offset, "nested file statements are not allowed")
	}
	if s.fileSeen {
		return nil, nil, s.errorf(openTok.Offset, "only one file statement is permitted per template")
	}
	offset := s.peek().Offset
	root, err := s.parseExpression(closeKind)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.expect(closeKind, "statement close"); err != nil {
		return nil, nil, err
	}
	node := ast.NewFile(openTok.Offset, ast.NewExpressionWrapper(offset, root), ast.NewBlock(openTok.Offset))
	node.SetParent(current)
	s.openFile = node
	s.fileSeen = true
	return node, node.Body, nil
}

func (s *state) parseEndFile(openTok lexer.Token, closeKind lexer.Kind) (ast.Node, *ast.Block, error) {
	if _, err := s.expect(closeKind, "statement close"); err != nil {
		return nil, nil, err
	}
	if s.openFile == nil {
		return nil, nil, s.errorf(openTok.Offset, "'endfile' without matching 'file'")
	}
	parent := s.openFile.Parent()
	s.openFile = nil
	return nil, parent, nil
}

func (s *state) parseApplyTemplate(openTok lexer.Token, closeKind lexer.Kind) (ast.Node, error) {
	nameTok, err := s.expect(lexer.Id, "template name")
	if err != nil {
		return nil, err
	}
	fieldTok, err := s.expect(lexer.Id, "field name")
	if err != nil {
		return nil, err
	}
	if _, err := s.expect(closeKind, "statement close"); err != nil {
		return nil, err
	}

	if err := s.resolveApplyTemplate(nameTok.Text); err != nil {
		return nil, err
	}

	return ast.NewApplyTemplate(openTok.Offset, nameTok.Text, fieldTok.Text, source.ToPointer(fieldTok.Text)), nil
}

func (s *state) resolveApplyTemplate(name string) error {
	if s.p.store.Has(name) {
		return nil
	}
	if s.p.opts.ParseNestedTemplate {
		if s.p.opts.Loader == nil {
			return fmt.Errorf("parser: apply-template %q: no template loader configured", name)
		}
		src, err := s.p.opts.Loader.Load(name + ".tpl")
		if err != nil {
			return fmt.Errorf("parser: apply-template %q: %w", name, err)
		}
		_, err = s.p.ParseNamed(name, src)
		return err
	}
	if s.p.opts.IncludeCallback != nil {
		if src, ok := s.p.opts.IncludeCallback(name); ok {
			_, err := s.p.ParseNamed(name, src)
			return err
		}
	}
	return nil
}

func (s *state) parseSet(openTok lexer.Token, closeKind lexer.Kind) (ast.Node, error) {
	keyTok, err := s.expect(lexer.Id, "set target")
	if err != nil {
		return nil, err
	}
	if _, err := s.expect(lexer.Equal, "'='"); err != nil {
		return nil, err
	}
	offset := s.peek().Offset
	root, err := s.parseExpression(closeKind)
	if err != nil {
		return nil, err
	}
	if _, err := s.expect(closeKind, "statement close"); err != nil {
		return nil, err
	}
	return ast.NewSet(openTok.Offset, keyTok.Text, ast.NewExpressionWrapper(offset, root)), nil
}
