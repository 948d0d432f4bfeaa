package formula

import "strings"

// Tokenize splits a formula into value, operator and bracket tokens.
//
// "+ - * /" and "( )" always end the pending literal. Whitespace ends it too,
// except inside a {...} reference, where it is kept so references such as
// "{a ? b : c}" survive as one token. A "{" starts a new literal. Literals that
// name an operator ("max", "min", "floor") become operators; everything else
// becomes a value, even if it can never evaluate. Tokenize never fails.
func Tokenize(text string) []Token {
	var (
		tokens  []Token
		pending strings.Builder
		inBrace bool
	)

	flush := func() {
		if pending.Len() == 0 {
			return
		}
		lit := strings.TrimSpace(pending.String())
		pending.Reset()
		if lit == "" {
			return
		}
		tokens = append(tokens, classify(lit))
	}

	for _, ch := range text {
		switch {
		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
			flush()
			tokens = append(tokens, Operator(string(ch)))
		case ch == '(':
			flush()
			tokens = append(tokens, Open)
		case ch == ')':
			flush()
			tokens = append(tokens, Close)
		case ch == '{':
			flush()
			inBrace = true
			pending.WriteRune(ch)
		case ch == '}':
			inBrace = false
			pending.WriteRune(ch)
		case isSpace(ch):
			if inBrace {
				pending.WriteRune(ch)
			} else {
				flush()
			}
		default:
			pending.WriteRune(ch)
		}
	}
	flush()

	return tokens
}

func classify(lit string) Token {
	if IsOperator(lit) {
		return Operator(lit)
	}
	return Value(lit)
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
