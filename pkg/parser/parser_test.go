package parser

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"1", []TokenType{TokenNumber, TokenEOF}},
		{"1 + 2", []TokenType{TokenNumber, TokenPlus, TokenNumber, TokenEOF}},
		{"3.5*(2-.5)", []TokenType{TokenNumber, TokenStar, TokenLeftParen, TokenNumber, TokenMinus, TokenNumber, TokenRightParen, TokenEOF}},
		{"10 / -2", []TokenType{TokenNumber, TokenSlash, TokenMinus, TokenNumber, TokenEOF}},
		{"  \t\n", []TokenType{TokenEOF}},
		{"1..2", []TokenType{TokenError, TokenEOF}},
		{"2 ^ 3", []TokenType{TokenNumber, TokenError, TokenNumber, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexer := NewLexer(tt.input)
			for i, expected := range tt.expected {
				tok := lexer.NextToken()
				if tok.Type != expected {
					t.Errorf("token %d: expected %s, got %s", i, tokenTypeToString(expected), tokenTypeToString(tok.Type))
				}
			}
		})
	}
}

func TestLexerNumberText(t *testing.T) {
	tokens := NewLexer("12.75 .5 3.").Tokens()
	expected := []string{"12.75", ".5", "3."}
	for i, text := range expected {
		if tokens[i].Text != text {
			t.Errorf("token %d: expected %q, got %q", i, text, tokens[i].Text)
		}
	}
}

func TestEval(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"2+3", 5},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 - 4 - 3", 3},
		{"100 / 10 / 2", 5},
		{"-3 + 5", 2},
		{"2--3", 5},
		{"+(4)", 4},
		{"70 / ((170 / 100) * (170 / 100))", 70 / (1.7 * 1.7)},
		{".5 * 4", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Eval(tt.input)
			if err != nil {
				t.Fatalf("Eval(%q) failed: %v", tt.input, err)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Eval(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	got, err := Eval("1 / 0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("expected +Inf, got %v", got)
	}

	got, _ = Eval("0 / 0")
	if !math.IsNaN(got) {
		t.Errorf("expected NaN, got %v", got)
	}
}

func TestEvalOverflowingLiteral(t *testing.T) {
	huge := "1" + strings.Repeat("0", 400)

	got, err := Eval(huge)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("expected +Inf, got %v", got)
	}

	got, err = Eval("-" + huge + " + 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(got, -1) {
		t.Errorf("expected -Inf, got %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{"", "   ", "1 +", "(1 + 2", "1 + 2)", "()", "1 2", "* 3", "1..2", "4 % 2"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("Parse(%q): expected ErrSyntax, got %v", input, err)
			}
		})
	}
}

func TestNodeString(t *testing.T) {
	node, err := Parse("1 + -2 * 3")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	expected := "(1 + ((-2) * 3))"
	if node.String() != expected {
		t.Errorf("expected %q, got %q", expected, node.String())
	}
	if node.Type() != NodeBinary {
		t.Errorf("expected binary root, got %v", node.Type())
	}
}
