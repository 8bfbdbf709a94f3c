package parser

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrSyntax is returned for input that is not a well-formed expression.
var ErrSyntax = errors.New("syntax error")

// Parser is a recursive descent parser for arithmetic expressions:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | primary
//	primary = NUMBER | "(" expr ")"
type Parser struct {
	lexer *Lexer
	tok   Token
}

// NewParser creates a new Parser for the given input.
func NewParser(input string) *Parser {
	return &Parser{
		lexer: NewLexer(input),
		tok:   Token{Type: TokenEOF, Pos: 0},
	}
}

// Parse parses the whole input and returns the AST.
func (p *Parser) Parse() (Node, error) {
	p.nextToken()
	if p.tok.Type == TokenEOF {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenEOF {
		return nil, p.errorf("unexpected %s", p.tok)
	}
	return node, nil
}

// Parse parses input into an AST.
func Parse(input string) (Node, error) {
	return NewParser(input).Parse()
}

// Eval parses and evaluates input.
func Eval(input string) (float64, error) {
	node, err := Parse(input)
	if err != nil {
		return 0, err
	}
	return node.Eval(), nil
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.tok = p.lexer.NextToken()
}

// expect consumes the current token if it matches the expected type.
func (p *Parser) expect(t TokenType) error {
	if p.tok.Type != t {
		return p.errorf("expected %s, got %s", tokenTypeToString(t), p.tok)
	}
	p.nextToken()
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.tok.Pos, fmt.Sprintf(format, args...))
}

// parseExpr parses additions and subtractions.
func (p *Parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenPlus || p.tok.Type == TokenMinus {
		op := p.tok.Type
		p.nextToken()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseTerm parses multiplications and divisions.
func (p *Parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenStar || p.tok.Type == TokenSlash {
		op := p.tok.Type
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseUnary parses a leading sign.
func (p *Parser) parseUnary() (Node, error) {
	if p.tok.Type == TokenPlus || p.tok.Type == TokenMinus {
		op := p.tok.Type
		p.nextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: op, Operand: operand}, nil
	}
	return p.parsePrimary()
}

// parsePrimary parses a number or a parenthesized expression.
func (p *Parser) parsePrimary() (Node, error) {
	switch p.tok.Type {
	case TokenNumber:
		// Out-of-range literals become ±Inf and are left to the caller.
		v, err := strconv.ParseFloat(p.tok.Text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, p.errorf("bad number %q", p.tok.Text)
		}
		p.nextToken()
		return &NumberNode{Value: v}, nil
	case TokenLeftParen:
		p.nextToken()
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return node, nil
	case TokenError:
		return nil, p.errorf("%s", p.tok.Text)
	default:
		return nil, p.errorf("unexpected %s", p.tok)
	}
}
