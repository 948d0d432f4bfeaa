package formula

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeUnary folds a unary minus into the value that follows it. A "-" is
// unary when it is the first token or follows an operator or an opening
// bracket, and a value token comes next. Binary subtraction is left alone.
func NormalizeUnary(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if isUnaryMinus(tokens, i) {
			out = append(out, Value(negate(tokens[i+1].Text)))
			i++
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isUnaryMinus(tokens []Token, i int) bool {
	tok := tokens[i]
	if tok.Kind != TokenOperator || tok.Text != "-" {
		return false
	}
	if i+1 >= len(tokens) || tokens[i+1].Kind != TokenValue {
		return false
	}
	if i == 0 {
		return true
	}
	prev := tokens[i-1]
	return prev.Kind == TokenOperator || prev.isOpen()
}

// negate returns the text of -value. Integral numbers stay integral; text that
// is not a number keeps a leading "-" and fails later, at evaluation.
func negate(text string) string {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil && n != math.MinInt64 {
		return strconv.FormatInt(-n, 10)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if strings.HasPrefix(text, "-") {
			return strings.TrimPrefix(text, "-")
		}
		return "-" + text
	}
	f = -f
	if f == math.Trunc(f) && math.Abs(f) < 1e18 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
