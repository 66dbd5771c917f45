package lexer

import (
	"strings"
)

// state names the lexer's current scanning context. Force-lstrip openers
// have no states of their own: scanText checks whether the opener that ends
// a Text run is a "-" variant and, if so, trims that run's trailing
// whitespace.
type state int

const (
	stateText state = iota
	stateExpressionBody
	stateStatementBody
	stateCommentBody
	stateLineBody
)

// Lexer scans template source into a Token stream on demand. It is not
// safe for concurrent use; callers wanting concurrent parses construct one
// Lexer per goroutine, mirroring zipreport/miya's lexer/lexer.go.
type Lexer struct {
	cfg *Config
	src string
	pos int

	st state

	// pendingLstrip is set when a body closes with a "-" trim marker (e.g.
	// "-}}"); the next Text token produced has its leading whitespace
	// stripped.
	pendingLstrip bool

	// numberContext mirrors the original implementation's MinusState: true
	// means a following '-' begins a signed number literal; false means it is
	// binary subtraction. It starts true (a '-' at the very start of a body
	// is a signed number) and flips to false after scanning an identifier,
	// a number, or a closing ')' ']' '}'.
	numberContext bool

	atLineStart bool
}

// New constructs a Lexer over src using cfg (DefaultConfig() if nil).
func New(src string, cfg *Config) *Lexer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	src = strings.TrimPrefix(src, "\xef\xbb\xbf")
	return &Lexer{
		cfg:           cfg,
		src:           src,
		st:            stateText,
		numberContext: true,
		atLineStart:   true,
	}
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peekAt(off int) byte {
	p := l.pos + off
	if p < 0 || p >= len(l.src) {
		return 0
	}
	return l.src[p]
}

func (l *Lexer) hasPrefixAt(p int, s string) bool {
	return p >= 0 && p+len(s) <= len(l.src) && l.src[p:p+len(s)] == s
}

// Next returns the next Token in the stream, terminating with an Eof token
// that repeats forever once the source is exhausted.
func (l *Lexer) Next() Token {
	switch l.st {
	case stateText:
		return l.scanText()
	case stateExpressionBody:
		return l.scanBody(ExpressionClose, l.cfg.ExpressionClose, l.cfg.expressionCloseTrim())
	case stateStatementBody:
		return l.scanBody(StatementClose, l.cfg.StatementClose, l.cfg.statementCloseTrim())
	case stateLineBody:
		return l.scanLineBody()
	case stateCommentBody:
		return l.scanComment()
	}
	return Token{Kind: Eof, Offset: l.pos}
}

// All drains the lexer into a slice, for callers (tests, the parser) that
// prefer a materialized stream over a pull loop. The returned slice always ends with one Eof token.
func (l *Lexer) All() []Token {
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == Eof {
			return toks
		}
	}
}

// scanText accumulates plain text up to the next recognized delimiter
// (expression/statement/comment open, or a line-statement marker at the
// start of a line), applying any pending lstrip from a previous "-}}" style
// closer and preferring an opener's own "-" force-lstrip form when both it
// and the plain form match at the same position.
func (l *Lexer) scanText() Token {
	if l.eof() {
		return Token{Kind: Eof, Offset: l.pos}
	}
	start := l.pos
	startedAtLineStart := l.atLineStart

	for !l.eof() {
		if startedAtLineStart && l.pos == start && l.hasPrefixAt(l.pos, l.cfg.LineStatementOpen) {
			break
		}
		if l.matchesAnyOpen(l.pos) {
			break
		}
		if l.src[l.pos] == '\n' {
			l.pos++
			l.atLineStart = true
			if l.hasPrefixAt(l.pos, l.cfg.LineStatementOpen) {
				break
			}
			continue
		}
		l.atLineStart = false
		l.pos++
	}

	text := l.src[start:l.pos]
	offset := start
	if l.pendingLstrip {
		trimmed := lstrip(text)
		offset += len(text) - len(trimmed)
		text = trimmed
		l.pendingLstrip = false
	}
	c := l.cfg
	if l.hasPrefixAt(l.pos, c.expressionOpenTrim()) || l.hasPrefixAt(l.pos, c.statementOpenTrim()) ||
		l.hasPrefixAt(l.pos, c.commentOpenTrim()) {
		text = strings.TrimRight(text, " \t\n\r")
	}

	if l.pos == start {
		// No text consumed: the very next characters are a delimiter.
		// Dispatch directly into opener scanning so we never emit an
		// empty Text token.
		return l.scanOpener()
	}

	if l.eof() {
		return Token{Kind: Text, Text: text, Offset: offset}
	}

	if text == "" {
		return l.scanOpener()
	}
	return Token{Kind: Text, Text: text, Offset: offset}
}

// matchesAnyOpen reports whether any configured opener (plain or its
// force-lstrip variant) begins at position p.
func (l *Lexer) matchesAnyOpen(p int) bool {
	c := l.cfg
	return l.hasPrefixAt(p, c.expressionOpenTrim()) || l.hasPrefixAt(p, c.ExpressionOpen) ||
		l.hasPrefixAt(p, c.statementOpenTrim()) || l.hasPrefixAt(p, c.StatementOpen) ||
		l.hasPrefixAt(p, c.commentOpenTrim()) || l.hasPrefixAt(p, c.CommentOpen)
}

// scanOpener matches the longest applicable opener at the current position
// (preferring its force-lstrip form), emits the open Token, and switches
// lexer state into that body.
func (l *Lexer) scanOpener() Token {
	c := l.cfg
	start := l.pos

	if l.atLineStart && l.hasPrefixAt(l.pos, c.LineStatementOpen) {
		l.pos += len(c.LineStatementOpen)
		l.atLineStart = false
		l.numberContext = true
		l.st = stateLineBody
		return Token{Kind: LineStatementOpen, Text: c.LineStatementOpen, Offset: start}
	}

	switch {
	case l.hasPrefixAt(l.pos, c.expressionOpenTrim()):
		l.pos += len(c.expressionOpenTrim())
		l.st = stateExpressionBody
		l.numberContext = true
		return Token{Kind: ExpressionOpen, Text: c.expressionOpenTrim(), Offset: start}
	case l.hasPrefixAt(l.pos, c.ExpressionOpen):
		l.pos += len(c.ExpressionOpen)
		l.st = stateExpressionBody
		l.numberContext = true
		return Token{Kind: ExpressionOpen, Text: c.ExpressionOpen, Offset: start}
	case l.hasPrefixAt(l.pos, c.statementOpenTrim()):
		l.pos += len(c.statementOpenTrim())
		l.st = stateStatementBody
		l.numberContext = true
		return Token{Kind: StatementOpen, Text: c.statementOpenTrim(), Offset: start}
	case l.hasPrefixAt(l.pos, c.StatementOpen):
		l.pos += len(c.StatementOpen)
		l.st = stateStatementBody
		l.numberContext = true
		return Token{Kind: StatementOpen, Text: c.StatementOpen, Offset: start}
	case l.hasPrefixAt(l.pos, c.commentOpenTrim()):
		l.pos += len(c.commentOpenTrim())
		l.st = stateCommentBody
		return Token{Kind: CommentOpen, Text: c.commentOpenTrim(), Offset: start}
	case l.hasPrefixAt(l.pos, c.CommentOpen):
		l.pos += len(c.CommentOpen)
		l.st = stateCommentBody
		return Token{Kind: CommentOpen, Text: c.CommentOpen, Offset: start}
	}

	// Unreachable given matchesAnyOpen/atLineStart gated the call, but keep
	// the lexer progressing rather than looping forever.
	l.pos++
	return Token{Kind: Unknown, Text: l.src[start:l.pos], Offset: start}
}

// scanComment consumes everything up to the comment closer as one token:
// the entire span between the opener and the closer is emitted as one
// CommentClose token whose text is the comment body.
func (l *Lexer) scanComment() Token {
	c := l.cfg
	start := l.pos
	forceRstrip := false
	for !l.eof() {
		if l.hasPrefixAt(l.pos, c.commentCloseTrim()) {
			forceRstrip = true
			break
		}
		if l.hasPrefixAt(l.pos, c.CommentClose) {
			break
		}
		l.pos++
	}
	body := l.src[start:l.pos]
	closer := c.CommentClose
	if forceRstrip {
		closer = c.commentCloseTrim()
		l.pendingLstrip = true
	}
	l.pos += len(closer)
	l.st = stateText
	l.atLineStart = false
	return Token{Kind: CommentClose, Text: body, Offset: start}
}

// scanBody scans one token inside an expression/statement body: skip
// horizontal whitespace, check for the closer (plain or rstrip variant; the
// rstrip variant marks the next Text run for leading-whitespace stripping),
// otherwise lex one expression token. A bare '\n' that isn't part of a closer is insignificant
// whitespace here (unlike scanLineBody, where it terminates the statement),
// so it loops back rather than falling into scanExpressionToken.
func (l *Lexer) scanBody(closeKind Kind, plainClose, trimClose string) Token {
	for {
		for !l.eof() && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t' || l.src[l.pos] == '\r') {
			l.pos++
		}

		if l.hasPrefixAt(l.pos, trimClose) {
			start := l.pos
			l.pos += len(trimClose)
			l.pendingLstrip = true
			l.st = stateText
			l.atLineStart = false
			return Token{Kind: closeKind, Text: trimClose, Offset: start}
		}
		if l.hasPrefixAt(l.pos, plainClose) {
			start := l.pos
			l.pos += len(plainClose)
			l.st = stateText
			l.atLineStart = false
			return Token{Kind: closeKind, Text: plainClose, Offset: start}
		}
		if l.eof() {
			return Token{Kind: Eof, Offset: l.pos}
		}
		if l.src[l.pos] == '\n' {
			l.pos++
			continue
		}
		return l.scanExpressionToken()
	}
}

// scanLineBody scans one token inside a "##" line statement; it is
// terminated implicitly by a newline or EOF rather than a closing
// delimiter, and consumes that newline so the following Text token does not
// see it.
func (l *Lexer) scanLineBody() Token {
	for !l.eof() && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t' || l.src[l.pos] == '\r') {
		l.pos++
	}
	if l.eof() {
		l.st = stateText
		return Token{Kind: LineStatementClose, Offset: l.pos}
	}
	if l.src[l.pos] == '\n' {
		start := l.pos
		l.pos++
		l.st = stateText
		l.atLineStart = true
		return Token{Kind: LineStatementClose, Offset: start}
	}
	return l.scanExpressionToken()
}

// scanExpressionToken lexes a single token of expression syntax: an
// identifier, a number (possibly a leading-minus signed literal, per the
// numberContext disambiguation), a quoted string, an operator, or
// punctuation.
func (l *Lexer) scanExpressionToken() Token {
	start := l.pos
	ch := l.src[l.pos]

	switch {
	case isAlpha(ch) || ch == '_' || ch == '@' || ch == '$':
		return l.scanIdentifier()
	case isDigit(ch):
		l.numberContext = false
		return l.scanNumber()
	case ch == '-':
		if l.numberContext {
			l.numberContext = false
			return l.scanNumber()
		}
		l.pos++
		l.numberContext = true
		return Token{Kind: Minus, Text: "-", Offset: start}
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	}

	// Every other single/double-char operator or punctuation token resets
	// numberContext to true except the specific closers handled below.
	l.numberContext = true

	two := string(ch) + string(l.peekAt(1))
	switch two {
	case ">=":
		l.pos += 2
		return Token{Kind: GreaterEqual, Text: two, Offset: start}
	case "<=":
		l.pos += 2
		return Token{Kind: LessEqual, Text: two, Offset: start}
	case "==":
		l.pos += 2
		return Token{Kind: Equal, Text: two, Offset: start}
	case "!=":
		l.pos += 2
		return Token{Kind: NotEqual, Text: two, Offset: start}
	}

	l.pos++
	switch ch {
	case '+':
		return Token{Kind: Plus, Text: "+", Offset: start}
	case '*':
		return Token{Kind: Times, Text: "*", Offset: start}
	case '/':
		return Token{Kind: Slash, Text: "/", Offset: start}
	case '^':
		return Token{Kind: Power, Text: "^", Offset: start}
	case '%':
		return Token{Kind: Percent, Text: "%", Offset: start}
	case ',':
		return Token{Kind: Comma, Text: ",", Offset: start}
	case ':':
		return Token{Kind: Colon, Text: ":", Offset: start}
	case '(':
		return Token{Kind: LeftParen, Text: "(", Offset: start}
	case ')':
		l.numberContext = false
		return Token{Kind: RightParen, Text: ")", Offset: start}
	case '[':
		return Token{Kind: LeftBracket, Text: "[", Offset: start}
	case ']':
		l.numberContext = false
		return Token{Kind: RightBracket, Text: "]", Offset: start}
	case '{':
		return Token{Kind: LeftBrace, Text: "{", Offset: start}
	case '}':
		l.numberContext = false
		return Token{Kind: RightBrace, Text: "}", Offset: start}
	case '>':
		return Token{Kind: GreaterThan, Text: ">", Offset: start}
	case '<':
		return Token{Kind: LessThan, Text: "<", Offset: start}
	case '=':
		return Token{Kind: Equal, Text: "=", Offset: start}
	}

	return Token{Kind: Unknown, Text: string(ch), Offset: start}
}

// scanIdentifier consumes an identifier: alphanumerics plus '.', '/', '_',
// '-' as continuation characters, grounded on the original Lexer's scan_id
// (dotted and hyphenated names, e.g. "user.name" or "apply-template", lex as
// a single Id token).
func (l *Lexer) scanIdentifier() Token {
	start := l.pos
	l.pos++
	for !l.eof() {
		ch := l.src[l.pos]
		if isAlnum(ch) || ch == '.' || ch == '/' || ch == '_' || ch == '-' {
			l.pos++
			continue
		}
		break
	}
	l.numberContext = false
	return Token{Kind: Id, Text: l.src[start:l.pos], Offset: start}
}

// scanNumber consumes a permissive numeric literal: digits, '.', 'e'/'E',
// and a leading '-' or an exponent-following '+'/'-' sign, grounded on the
// original Lexer's scan_number.
func (l *Lexer) scanNumber() Token {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.pos++
	}
	for !l.eof() {
		ch := l.src[l.pos]
		switch {
		case isDigit(ch) || ch == '.':
			l.pos++
		case ch == 'e' || ch == 'E':
			l.pos++
		case (ch == '+' || ch == '-') && l.pos > start && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E'):
			l.pos++
		default:
			return Token{Kind: Number, Text: l.src[start:l.pos], Offset: start}
		}
	}
	return Token{Kind: Number, Text: l.src[start:l.pos], Offset: start}
}

// scanString consumes a quoted string, decoding backslash escapes
// (\n \t \r \\ \" \') inline so the resulting Token.Text is already the
// literal string value with no surrounding quotes.
func (l *Lexer) scanString(quote byte) Token {
	start := l.pos
	l.pos++
	var sb strings.Builder
	escape := false
	for !l.eof() {
		ch := l.src[l.pos]
		if escape {
			switch ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '\'':
				sb.WriteByte('\'')
			default:
				sb.WriteByte(ch)
			}
			escape = false
			l.pos++
			continue
		}
		if ch == '\\' {
			escape = true
			l.pos++
			continue
		}
		if ch == quote {
			l.pos++
			l.numberContext = false
			return Token{Kind: String, Text: sb.String(), Offset: start}
		}
		sb.WriteByte(ch)
		l.pos++
	}
	// Unterminated string: return what we have; the parser reports the
	// missing closer as a syntax error.
	l.numberContext = false
	return Token{Kind: String, Text: sb.String(), Offset: start}
}

func lstrip(s string) string {
	return strings.TrimLeft(s, " \t\n\r")
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
func isAlnum(ch byte) bool { return isAlpha(ch) || isDigit(ch) }
