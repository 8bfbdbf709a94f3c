package parser

import (
	"fmt"
	"strconv"
)

// NodeType represents the type of a syntax tree node.
type NodeType int

const (
	// Node types
	NodeNumber NodeType = iota
	NodeUnary
	NodeBinary
)

// Node represents a node in the abstract syntax tree.
type Node interface {
	Type() NodeType
	String() string
	// Eval computes the value of the subtree with IEEE-754 semantics, so
	// division by zero yields an infinity or NaN rather than an error.
	Eval() float64
}

// NumberNode is a numeric literal.
type NumberNode struct {
	Value float64
}

// Type returns the node type.
func (n *NumberNode) Type() NodeType { return NodeNumber }

// String returns a string representation of the literal.
func (n *NumberNode) String() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// Eval returns the literal value.
func (n *NumberNode) Eval() float64 { return n.Value }

// UnaryNode is a signed operand.
type UnaryNode struct {
	Op      TokenType // TokenPlus or TokenMinus
	Operand Node
}

// Type returns the node type.
func (n *UnaryNode) Type() NodeType { return NodeUnary }

// String returns a string representation of the expression.
func (n *UnaryNode) String() string {
	return fmt.Sprintf("(%s%s)", tokenTypeToString(n.Op), n.Operand)
}

// Eval applies the sign.
func (n *UnaryNode) Eval() float64 {
	if n.Op == TokenMinus {
		return -n.Operand.Eval()
	}
	return n.Operand.Eval()
}

// BinaryNode is an infix operation.
type BinaryNode struct {
	Op    TokenType
	Left  Node
	Right Node
}

// Type returns the node type.
func (n *BinaryNode) Type() NodeType { return NodeBinary }

// String returns a fully parenthesized representation of the expression.
func (n *BinaryNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, tokenTypeToString(n.Op), n.Right)
}

// Eval computes the operation.
func (n *BinaryNode) Eval() float64 {
	l, r := n.Left.Eval(), n.Right.Eval()
	switch n.Op {
	case TokenPlus:
		return l + r
	case TokenMinus:
		return l - r
	case TokenStar:
		return l * r
	case TokenSlash:
		return l / r
	}
	panic("parser: unknown binary operator " + tokenTypeToString(n.Op))
}
