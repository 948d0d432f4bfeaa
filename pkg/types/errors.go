package types

import (
	"fmt"
	"strings"
)

// Error tag constants for formula evaluation failures.
const (
	TagStackUnderflow  = "StackUnderflow"
	TagNotANumber      = "NotANumber"
	TagZeroDivision    = "ZeroDivision"
	TagUnknownOperator = "UnknownOperator"
	TagEmptyExpression = "EmptyExpression"
	TagUnbalanced      = "UnbalancedBrackets"
)

// CalculationError reports that a formula could not produce a value. It is
// always local to one formula; callers treat it as "result unavailable".
type CalculationError struct {
	Message string
	Tags    []string
}

// Error implements the error interface.
func (e *CalculationError) Error() string {
	return fmt.Sprintf("%s (tags=[%s])", e.Message, strings.Join(e.Tags, ", "))
}

// HasTag returns true if the error has the specified tag.
func (e *CalculationError) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Common error constructors.

// NewStackUnderflowError creates a StackUnderflow error for an operator that
// found fewer operands than its arity.
func NewStackUnderflowError(op string, want, got int) *CalculationError {
	return &CalculationError{
		Message: fmt.Sprintf("operator %q needs %d operand(s), found %d", op, want, got),
		Tags:    []string{TagStackUnderflow},
	}
}

// NewNotANumberError creates a NotANumber error for a literal that does not parse.
func NewNotANumberError(literal string) *CalculationError {
	return &CalculationError{
		Message: fmt.Sprintf("%q is not a number", literal),
		Tags:    []string{TagNotANumber},
	}
}

// NewZeroDivisionError creates a ZeroDivision error.
func NewZeroDivisionError() *CalculationError {
	return &CalculationError{Message: "division by zero", Tags: []string{TagZeroDivision}}
}

// NewUnknownOperatorError creates an UnknownOperator error.
func NewUnknownOperatorError(op string) *CalculationError {
	return &CalculationError{
		Message: fmt.Sprintf("unknown operator %q", op),
		Tags:    []string{TagUnknownOperator},
	}
}

// NewEmptyExpressionError creates an EmptyExpression error.
func NewEmptyExpressionError() *CalculationError {
	return &CalculationError{Message: "empty expression", Tags: []string{TagEmptyExpression}}
}

// NewUnbalancedError creates an UnbalancedBrackets error.
func NewUnbalancedError() *CalculationError {
	return &CalculationError{Message: "unbalanced brackets", Tags: []string{TagUnbalanced}}
}
