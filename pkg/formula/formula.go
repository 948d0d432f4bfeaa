package formula

import (
	"regexp"
	"strings"

	"github.com/lemonberrylabs/webrpg-engine/pkg/dice"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

// Unavailable is the text written in place of a span whose formula could not
// be calculated.
const Unavailable = "?"

var spanRegexp = regexp.MustCompile(`\$([^$]*)\$`)

// Evaluate runs the sheet pipeline over text: tokenize, substitute
// variables, fold unary minus, convert to postfix and calculate. Dice
// notation is not expanded.
func Evaluate(text string, attrs types.Attributes) (types.Value, error) {
	tokens := NormalizeUnary(Substitute(Tokenize(text), attrs))
	return Calculate(ToPostfix(tokens))
}

// Rolled is the outcome of rolling a dice expression.
type Rolled struct {
	// Tokens is the expression after dice expansion and unary folding.
	Tokens []Token
	// Total is the calculated result.
	Total types.Value
}

// Roll runs the dice pipeline over text: tokenize, expand dice from src, fold
// unary minus, convert to postfix and calculate. Variables are not resolved.
func Roll(text string, src dice.Source) (Rolled, error) {
	tokens := NormalizeUnary(ExpandDice(Tokenize(text), src))
	total, err := Calculate(ToPostfix(tokens))
	if err != nil {
		return Rolled{Tokens: tokens}, err
	}
	return Rolled{Tokens: tokens, Total: total}, nil
}

// Interpolate resolves variables in free text without calculating it. The
// result is the space-joined token stream, e.g. "Attack 1d20 + 5".
func Interpolate(text string, attrs types.Attributes) string {
	return Join(NormalizeUnary(Substitute(Tokenize(text), attrs)))
}

// CalculateSpans replaces each $...$ span in text with the calculated value
// of the formula inside it. If src is non-nil dice in spans are rolled. An
// empty or whitespace-only span stops the replacement and the rest of the text
// is kept verbatim. Spans that fail to calculate become Unavailable.
func CalculateSpans(text string, attrs types.Attributes, src dice.Source) string {
	var sb strings.Builder
	rest := text
	for {
		loc := spanRegexp.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		inner := rest[loc[2]:loc[3]]
		if strings.TrimSpace(inner) == "" {
			break
		}
		sb.WriteString(rest[:loc[0]])
		sb.WriteString(calculateSpan(inner, attrs, src))
		rest = rest[loc[1]:]
	}
	sb.WriteString(rest)
	return sb.String()
}

func calculateSpan(inner string, attrs types.Attributes, src dice.Source) string {
	tokens := Substitute(Tokenize(inner), attrs)
	if src != nil {
		tokens = ExpandDice(tokens, src)
	}
	v, err := Calculate(ToPostfix(NormalizeUnary(tokens)))
	if err != nil {
		return Unavailable
	}
	return v.MinimalString()
}
