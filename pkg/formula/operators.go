package formula

import (
	"math"
	"math/bits"

	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

// Reducer applies an operator to its operands, given in push order.
type Reducer func(args []types.Value) (types.Value, error)

// OperatorDef describes one entry of the operator table.
type OperatorDef struct {
	Precedence int
	Arity      int
	Reduce     Reducer
}

// bracketPrecedence is the precedence of "(" on the operator stack. It is
// lower than every operator, so only a matching ")" removes it.
const bracketPrecedence = 0

// operators is the fixed operator table.
var operators = map[string]OperatorDef{
	"+":     {Precedence: 1, Arity: 2, Reduce: opAdd},
	"-":     {Precedence: 1, Arity: 2, Reduce: opSub},
	"*":     {Precedence: 2, Arity: 2, Reduce: opMul},
	"/":     {Precedence: 2, Arity: 2, Reduce: opDiv},
	"max":   {Precedence: 3, Arity: 2, Reduce: opMax},
	"min":   {Precedence: 3, Arity: 2, Reduce: opMin},
	"floor": {Precedence: 4, Arity: 1, Reduce: opFloor},
}

// IsOperator reports whether s names an operator.
func IsOperator(s string) bool {
	_, ok := operators[s]
	return ok
}

// Lookup returns the operator definition for op.
func Lookup(op string) (OperatorDef, bool) {
	def, ok := operators[op]
	return def, ok
}

func precedence(op string) int {
	if def, ok := operators[op]; ok {
		return def.Precedence
	}
	return bracketPrecedence
}

func opAdd(args []types.Value) (types.Value, error) {
	return arith(args[0], args[1], addInt, func(a, b float64) float64 { return a + b })
}

func opSub(args []types.Value) (types.Value, error) {
	return arith(args[0], args[1], subInt, func(a, b float64) float64 { return a - b })
}

func opMul(args []types.Value) (types.Value, error) {
	return arith(args[0], args[1], mulInt, func(a, b float64) float64 { return a * b })
}

// opDiv is real division; 7 / 2 is 3.5.
func opDiv(args []types.Value) (types.Value, error) {
	a, _ := args[0].AsNumber()
	b, _ := args[1].AsNumber()
	if b == 0 {
		return types.Null, types.NewZeroDivisionError()
	}
	return types.NewDouble(a / b), nil
}

func opFloor(args []types.Value) (types.Value, error) {
	if args[0].Type() == types.TypeInt {
		return args[0], nil
	}
	f, _ := args[0].AsNumber()
	return types.NewNumber(math.Floor(f)), nil
}

func opMax(args []types.Value) (types.Value, error) {
	a, _ := args[0].AsNumber()
	b, _ := args[1].AsNumber()
	if a >= b {
		return args[0], nil
	}
	return args[1], nil
}

func opMin(args []types.Value) (types.Value, error) {
	a, _ := args[0].AsNumber()
	b, _ := args[1].AsNumber()
	if a <= b {
		return args[0], nil
	}
	return args[1], nil
}

// arith keeps int arithmetic exact and falls back to float64 when either side
// is a double or the int result overflows.
func arith(left, right types.Value, intOp func(int64, int64) (int64, bool), floatOp func(float64, float64) float64) (types.Value, error) {
	if left.Type() == types.TypeInt && right.Type() == types.TypeInt {
		if n, ok := intOp(left.AsInt(), right.AsInt()); ok {
			return types.NewInt(n), nil
		}
	}
	a, _ := left.AsNumber()
	b, _ := right.AsNumber()
	return types.NewDouble(floatOp(a, b)), nil
}

// addInt, subInt and mulInt report false when the int64 result overflows.
func addInt(a, b int64) (int64, bool) {
	c := a + b
	return c, (c > a) == (b > 0)
}

func subInt(a, b int64) (int64, bool) {
	c := a - b
	return c, (c < a) == (b > 0)
}

func mulInt(a, b int64) (int64, bool) {
	neg := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(absUint(a), absUint(b))
	if hi != 0 {
		return 0, false
	}
	if neg {
		if lo > 1<<63 {
			return 0, false
		}
		return int64(-lo), true
	}
	if lo >= 1<<63 {
		return 0, false
	}
	return int64(lo), true
}

func absUint(n int64) uint64 {
	if n < 0 {
		return uint64(-n)
	}
	return uint64(n)
}
