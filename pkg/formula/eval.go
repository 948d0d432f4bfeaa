package formula

import (
	"math"
	"strconv"
	"strings"

	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

// Calculate evaluates a postfix token stream on a stack. Value tokens parse
// as numbers (integral values become ints); operator tokens pop their arity,
// restore push order and push the reducer's result. The result is the value
// on top of the stack; operands left below it ("1 2" is 2) are discarded.
// Any failure is returned as a *types.CalculationError and no value.
func Calculate(postfix []Token) (types.Value, error) {
	if len(postfix) == 0 {
		return types.Null, types.NewEmptyExpressionError()
	}

	stack := make([]types.Value, 0, len(postfix))
	for _, tok := range postfix {
		switch tok.Kind {
		case TokenValue:
			v, err := parseNumber(tok.Text)
			if err != nil {
				return types.Null, err
			}
			stack = append(stack, v)

		case TokenOperator:
			def, ok := Lookup(tok.Text)
			if !ok {
				return types.Null, types.NewUnknownOperatorError(tok.Text)
			}
			if len(stack) < def.Arity {
				return types.Null, types.NewStackUnderflowError(tok.Text, def.Arity, len(stack))
			}
			args := make([]types.Value, def.Arity)
			copy(args, stack[len(stack)-def.Arity:])
			stack = stack[:len(stack)-def.Arity]

			result, err := def.Reduce(args)
			if err != nil {
				return types.Null, err
			}
			stack = append(stack, result)

		default:
			return types.Null, types.NewUnbalancedError()
		}
	}

	if len(stack) == 0 {
		return types.Null, types.NewEmptyExpressionError()
	}
	return stack[len(stack)-1], nil
}

// parseNumber reads decimal integers exactly and everything else as float64.
func parseNumber(text string) (types.Value, error) {
	text = strings.TrimSpace(text)
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return types.NewInt(n), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return types.Null, types.NewNotANumberError(text)
	}
	return types.NewNumber(f), nil
}
