// Package lexer turns template source text into a stream of Tokens,
// tracking a small state machine over the four delimiter contexts
// (text/statement/expression/comment/line-statement) and their
// whitespace-trim variants. Grounded on zipreport/miya's lexer/token.go
// token-kind table, narrowed to the token set this grammar needs.
package lexer

import "fmt"

// Kind tags a Token's lexical category.
type Kind int

const (
	Text Kind = iota
	ExpressionOpen
	ExpressionClose
	LineStatementOpen
	LineStatementClose
	StatementOpen
	StatementClose
	CommentOpen
	CommentClose
	Id
	Number
	String
	Plus
	Minus
	Times
	Slash
	Percent
	Power
	Comma
	Colon
	LeftParen
	RightParen
	LeftBracket
	RightBracket
	LeftBrace
	RightBrace
	Equal
	NotEqual
	GreaterThan
	GreaterEqual
	LessThan
	LessEqual
	Unknown
	Eof
)

var kindNames = map[Kind]string{
	Text:               "TEXT",
	ExpressionOpen:     "EXPRESSION_OPEN",
	ExpressionClose:    "EXPRESSION_CLOSE",
	LineStatementOpen:  "LINE_STATEMENT_OPEN",
	LineStatementClose: "LINE_STATEMENT_CLOSE",
	StatementOpen:      "STATEMENT_OPEN",
	StatementClose:     "STATEMENT_CLOSE",
	CommentOpen:        "COMMENT_OPEN",
	CommentClose:       "COMMENT_CLOSE",
	Id:                 "ID",
	Number:             "NUMBER",
	String:             "STRING",
	Plus:               "PLUS",
	Minus:              "MINUS",
	Times:              "TIMES",
	Slash:              "SLASH",
	Percent:            "PERCENT",
	Power:              "POWER",
	Comma:              "COMMA",
	Colon:              "COLON",
	LeftParen:          "LEFT_PAREN",
	RightParen:         "RIGHT_PAREN",
	LeftBracket:        "LEFT_BRACKET",
	RightBracket:       "RIGHT_BRACKET",
	LeftBrace:          "LEFT_BRACE",
	RightBrace:         "RIGHT_BRACE",
	Equal:              "EQUAL",
	NotEqual:           "NOT_EQUAL",
	GreaterThan:        "GREATER_THAN",
	GreaterEqual:       "GREATER_EQUAL",
	LessThan:           "LESS_THAN",
	LessEqual:          "LESS_EQUAL",
	Unknown:            "UNKNOWN",
	Eof:                "EOF",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a tagged record over a borrowed slice of the original source plus
// its byte offset.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Offset)
}
