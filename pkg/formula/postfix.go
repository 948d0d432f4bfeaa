package formula

// ToPostfix converts infix tokens to postfix order with the shunting-yard
// algorithm. An operator whose precedence is equal to or lower than the
// operator on top of the stack pops it first, so equal precedences associate
// left to right. "(" is pushed and ")" drains to the matching "(".
//
// A ")" without a matching "(" is dropped. An unmatched "(" is emitted as a
// bracket token so that Calculate reports the imbalance.
func ToPostfix(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	stack := make([]Token, 0, len(tokens)/2)

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenValue:
			out = append(out, tok)

		case TokenOperator:
			p := precedence(tok.Text)
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.isOpen() || precedence(top.Text) < p {
					break
				}
				out = append(out, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)

		case TokenBracket:
			if tok.isOpen() {
				stack = append(stack, tok)
				continue
			}
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.isOpen() {
					break
				}
				out = append(out, top)
			}
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i])
	}
	return out
}
