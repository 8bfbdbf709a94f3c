// Package parser provides lexical analysis and parsing for arithmetic
// expressions over decimal numbers, the operators + - * / and parentheses.
package parser

import (
	"fmt"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

// Token types for the arithmetic language.
const (
	TokenEOF TokenType = iota
	TokenError
	TokenNumber
	TokenPlus       // +
	TokenMinus      // -
	TokenStar       // *
	TokenSlash      // /
	TokenLeftParen  // (
	TokenRightParen // )
)

// Token represents a lexical token.
type Token struct {
	Type TokenType
	Text string
	Pos  int // Position in the input string
}

// String returns a string representation of the token.
func (t Token) String() string {
	if t.Text != "" {
		return t.Text
	}
	return tokenTypeToString(t.Type)
}

// tokenTypeToString returns the string representation of a token type.
func tokenTypeToString(t TokenType) string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "ERROR"
	case TokenNumber:
		return "NUMBER"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenStar:
		return "*"
	case TokenSlash:
		return "/"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	default:
		return "UNKNOWN"
	}
}

// Lexer performs lexical analysis on arithmetic input.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token in the input.
func (l *Lexer) NextToken() Token {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]

	if t, ok := operatorType(ch); ok {
		l.pos++
		return Token{Type: t, Text: string(ch), Pos: start}
	}

	if isDigit(ch) || ch == '.' {
		return l.scanNumber(start)
	}

	l.pos++
	return Token{Type: TokenError, Text: fmt.Sprintf("unexpected character %q", ch), Pos: start}
}

// scanNumber scans digits with at most one decimal point. A lone point is
// an error.
func (l *Lexer) scanNumber(start int) Token {
	digits, dots := 0, 0
	for ; l.pos < len(l.input); l.pos++ {
		ch := l.input[l.pos]
		if isDigit(ch) {
			digits++
		} else if ch == '.' {
			dots++
		} else {
			break
		}
	}
	text := l.input[start:l.pos]
	if digits == 0 || dots > 1 {
		return Token{Type: TokenError, Text: fmt.Sprintf("malformed number %q", text), Pos: start}
	}
	return Token{Type: TokenNumber, Text: text, Pos: start}
}

// operatorType returns the token type for a single-character operator.
func operatorType(ch byte) (TokenType, bool) {
	switch ch {
	case '+':
		return TokenPlus, true
	case '-':
		return TokenMinus, true
	case '*':
		return TokenStar, true
	case '/':
		return TokenSlash, true
	case '(':
		return TokenLeftParen, true
	case ')':
		return TokenRightParen, true
	default:
		return TokenError, false
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokens returns all tokens from the input.
func (l *Lexer) Tokens() []Token {
	tokens := make([]Token, 0, 32)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens
}
