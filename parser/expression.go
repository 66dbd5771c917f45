package parser

import (
	"github.com/motif-lang/motif/ast"
	"github.com/motif-lang/motif/lexer"
	"github.com/motif-lang/motif/source"
	"github.com/motif-lang/motif/value"
)

// opFrame is one entry of the Shunting-Yard operator stack: the operator's
// surface name (for error messages) plus its resolved registry Entry and
// the source offset of the token that introduced it.
type opFrame struct {
	name   string
	op     ast.Operation
	arity  int
	prec   int
	assoc  ast.Associativity
	offset int
}

// parseExpression implements the Shunting-Yard algorithm. It stops
// (without consuming) at the first token whose Kind is in terminators, or
// at any token it does not recognize as part of an expression ("any
// unexpected token at zero depth: terminate"). The result is an error
// unless exactly one operand remains after flushing the operator stack.
func (s *state) parseExpression(terminators ...lexer.Kind) (ast.Node, error) {
	isTerminator := func(k lexer.Kind) bool {
		for _, t := range terminators {
			if t == k {
				return true
			}
		}
		return false
	}

	var operands []ast.Node
	var operators []opFrame
	startOffset := s.peek().Offset

	reduce := func() error {
		top := operators[len(operators)-1]
		operators = operators[:len(operators)-1]
		if len(operands) < top.arity {
			return s.errorf(top.offset, "operator %q missing operand", top.name)
		}
		args := make([]ast.Node, top.arity)
		copy(args, operands[len(operands)-top.arity:])
		operands = operands[:len(operands)-top.arity]
		operands = append(operands, ast.NewFunction(top.offset, top.op, top.name, top.arity, top.prec, top.assoc, args))
		return nil
	}

	pushOperator := func(name string, offset int) error {
		entry, ok := s.p.registry.LookupOperator(name)
		if !ok {
			return s.errorf(offset, "unknown operator %q", name)
		}
		for len(operators) > 0 {
			top := operators[len(operators)-1]
			if top.prec > entry.Precedence || (top.prec == entry.Precedence && entry.Associativity == ast.LeftAssoc) {
				if err := reduce(); err != nil {
					return err
				}
				continue
			}
			break
		}
		operators = append(operators, opFrame{name: name, op: entry.Op, arity: entry.Arity, prec: entry.Precedence, assoc: entry.Associativity, offset: offset})
		return nil
	}

loop:
	for {
		if s.atEnd() {
			return nil, s.errorf(s.peek().Offset, "unexpected end of input in expression")
		}
		tok := s.peek()
		if isTerminator(tok.Kind) {
			break
		}

		switch tok.Kind {
		case lexer.String:
			s.advance()
			operands = append(operands, ast.NewLiteral(tok.Offset, value.String(tok.Text)))

		case lexer.Number:
			s.advance()
			operands = append(operands, ast.NewLiteral(tok.Offset, value.ParseNumber(tok.Text)))

		case lexer.LeftBracket, lexer.LeftBrace:
			node, err := s.parseJSONLiteralSpan()
			if err != nil {
				return nil, err
			}
			operands = append(operands, node)

		case lexer.Id:
			switch tok.Text {
			case "true":
				s.advance()
				operands = append(operands, ast.NewLiteral(tok.Offset, value.Bool(true)))
			case "false":
				s.advance()
				operands = append(operands, ast.NewLiteral(tok.Offset, value.Bool(false)))
			case "null":
				s.advance()
				operands = append(operands, ast.NewLiteral(tok.Offset, value.Null()))
			case "and", "or", "in", "not":
				s.advance()
				if err := pushOperator(tok.Text, tok.Offset); err != nil {
					return nil, err
				}
			default:
				node, err := s.parseIdentifierOperand()
				if err != nil {
					return nil, err
				}
				operands = append(operands, node)
			}

		case lexer.LeftParen:
			s.advance()
			inner, err := s.parseExpression(lexer.RightParen)
			if err != nil {
				return nil, err
			}
			if _, err := s.expect(lexer.RightParen, "')'"); err != nil {
				return nil, err
			}
			operands = append(operands, inner)

		case lexer.Colon:
			return nil, s.errorf(tok.Offset, "unexpected ':'")

		case lexer.Plus, lexer.Minus, lexer.Times, lexer.Slash, lexer.Percent, lexer.Power,
			lexer.Equal, lexer.NotEqual, lexer.GreaterThan, lexer.GreaterEqual, lexer.LessThan, lexer.LessEqual:
			s.advance()
			if err := pushOperator(symbolOperatorName(tok.Kind), tok.Offset); err != nil {
				return nil, err
			}

		default:
			// "any unexpected token at zero depth: terminate"
			break loop
		}
	}

	for len(operators) > 0 {
		if err := reduce(); err != nil {
			return nil, err
		}
	}

	if len(operands) != 1 {
		return nil, s.errorf(startOffset, "expression must reduce to exactly one value")
	}
	return operands[0], nil
}

func symbolOperatorName(k lexer.Kind) string {
	switch k {
	case lexer.Plus:
		return "+"
	case lexer.Minus:
		return "-"
	case lexer.Times:
		return "*"
	case lexer.Slash:
		return "/"
	case lexer.Percent:
		return "%"
	case lexer.Power:
		return "^"
	case lexer.Equal:
		return "=="
	case lexer.NotEqual:
		return "!="
	case lexer.GreaterThan:
		return ">"
	case lexer.GreaterEqual:
		return ">="
	case lexer.LessThan:
		return "<"
	case lexer.LessEqual:
		return "<="
	}
	return ""
}

// parseIdentifierOperand handles the two remaining Id-token cases: a
// function call (identifier immediately followed by '(') or a bare
// DataNode reference.
func (s *state) parseIdentifierOperand() (ast.Node, error) {
	nameTok := s.advance()
	if !s.check(lexer.LeftParen) {
		return ast.NewData(nameTok.Offset, nameTok.Text, source.SplitDotted(nameTok.Text)), nil
	}

	s.advance() // consume '('
	var args []ast.Node
	if !s.check(lexer.RightParen) {
		for {
			arg, err := s.parseExpression(lexer.Comma, lexer.RightParen)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if s.check(lexer.Comma) {
				s.advance()
				continue
			}
			break
		}
	}
	if _, err := s.expect(lexer.RightParen, "')'"); err != nil {
		return nil, err
	}

	entry, ok := s.p.registry.Lookup(nameTok.Text, len(args))
	if !ok {
		return nil, s.errorf(nameTok.Offset, "unknown function %q with %d argument(s)", nameTok.Text, len(args))
	}
	fn := ast.NewFunction(nameTok.Offset, entry.Op, nameTok.Text, len(args), entry.Precedence, entry.Associativity, args)
	if entry.Op == ast.OpCallback {
		fn.Invocable = ast.Invocable(entry.Callback)
	}
	return fn, nil
}

// parseJSONLiteralSpan matches a bracketed/braced literal at the current
// token (a '[' or '{'), scanning tokens to find the matching close while
// tracking both bracket kinds' nesting depth (a JSON array literal may
// nest objects and vice versa), then reparses the original source span as
// JSON.
func (s *state) parseJSONLiteralSpan() (ast.Node, error) {
	startTok := s.peek()
	startOffset := startTok.Offset
	bracketDepth, braceDepth := 0, 0

	switch startTok.Kind {
	case lexer.LeftBracket:
		bracketDepth = 1
	case lexer.LeftBrace:
		braceDepth = 1
	}
	s.advance()

	var endOffset int
	for {
		if s.atEnd() {
			return nil, s.errorf(startOffset, "unmatched '%s'", startTok.Text)
		}
		tok := s.advance()
		switch tok.Kind {
		case lexer.LeftBracket:
			bracketDepth++
		case lexer.RightBracket:
			bracketDepth--
			if bracketDepth < 0 {
				return nil, s.errorf(tok.Offset, "mismatched ']'")
			}
		case lexer.LeftBrace:
			braceDepth++
		case lexer.RightBrace:
			braceDepth--
			if braceDepth < 0 {
				return nil, s.errorf(tok.Offset, "mismatched '}'")
			}
		}
		if bracketDepth == 0 && braceDepth == 0 {
			endOffset = tok.Offset + 1
			break
		}
	}

	raw := s.source[startOffset:endOffset]
	jv, err := value.Parse(raw)
	if err != nil {
		return nil, s.errorf(startOffset, "invalid literal %q", raw)
	}
	return ast.NewLiteral(startOffset, jv), nil
}
