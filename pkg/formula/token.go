// Package formula implements the character-sheet formula language: a
// tokenizer, dice expansion, {variable} substitution, unary minus folding,
// shunting-yard conversion to postfix, and a postfix stack evaluator.
//
// The minimal pipeline is
//
//	Calculate(ToPostfix(NormalizeUnary(Tokenize("1 + 1"))))
//
// and Evaluate and Roll wrap the common combinations.
package formula

import "strings"

// TokenKind represents the kind of a formula token.
type TokenKind int

const (
	TokenValue    TokenKind = iota // literal, variable reference or dice expression
	TokenOperator                  // + - * / max min floor
	TokenBracket                   // ( or )
)

// String returns a debug-friendly representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenValue:
		return "VALUE"
	case TokenOperator:
		return "OPERATOR"
	case TokenBracket:
		return "BRACKET"
	default:
		return "UNKNOWN"
	}
}

// Token represents a single formula token. Token order is significant.
type Token struct {
	Kind TokenKind
	Text string
}

// Value creates a value token.
func Value(text string) Token {
	return Token{Kind: TokenValue, Text: text}
}

// Operator creates an operator token.
func Operator(op string) Token {
	return Token{Kind: TokenOperator, Text: op}
}

// Open is the opening bracket token.
var Open = Token{Kind: TokenBracket, Text: "("}

// Close is the closing bracket token.
var Close = Token{Kind: TokenBracket, Text: ")"}

func (t Token) isOpen() bool {
	return t.Kind == TokenBracket && t.Text == "("
}

func (t Token) isClose() bool {
	return t.Kind == TokenBracket && t.Text == ")"
}

func (t Token) String() string {
	return t.Kind.String() + "(" + t.Text + ")"
}

// Join renders tokens back to text, separated by single spaces.
func Join(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Text
	}
	return strings.Join(parts, " ")
}
