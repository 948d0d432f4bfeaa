package formula

import (
	"regexp"
	"strconv"

	"github.com/lemonberrylabs/webrpg-engine/pkg/dice"
)

var diceRegexp = regexp.MustCompile(`^([0-9]*)[dD]([0-9]+)`)

// ExpandDice replaces every NdM value token with random rolls drawn from src.
// A count above one becomes a bracketed sum "( r1 + r2 + ... )"; dM and 1dM
// become a single roll and 0dM becomes 0. Counts above dice.MaxCount are
// left unexpanded.
func ExpandDice(tokens []Token, src dice.Source) []Token {
	out := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind != TokenValue {
			out = append(out, tok)
			continue
		}
		m := diceRegexp.FindStringSubmatch(tok.Text)
		if m == nil {
			out = append(out, tok)
			continue
		}
		sides, err := strconv.Atoi(m[2])
		if err != nil {
			out = append(out, tok)
			continue
		}
		if m[1] == "" {
			out = append(out, Value(strconv.Itoa(dice.Roll(src, sides))))
			continue
		}
		count, err := strconv.Atoi(m[1])
		if err != nil || count > dice.MaxCount {
			out = append(out, tok)
			continue
		}
		switch count {
		case 0:
			out = append(out, Value("0"))
			continue
		case 1:
			out = append(out, Value(strconv.Itoa(dice.Roll(src, sides))))
			continue
		}
		out = append(out, Open)
		for i := 0; i < count; i++ {
			out = append(out, Value(strconv.Itoa(dice.Roll(src, sides))))
			if i < count-1 {
				out = append(out, Operator("+"))
			}
		}
		out = append(out, Close)
	}
	return out
}
