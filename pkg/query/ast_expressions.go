package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a value computed against one row of bindings
type Expression interface {
	Eval(ctx *evalContext) (any, error)
	String() string
}

// LiteralExpression is a constant
type LiteralExpression struct {
	Value any
}

// ParameterExpression reads a $param
type ParameterExpression struct {
	Name string
}

// VariableExpression reads a bound variable
type VariableExpression struct {
	Name string
}

// PropertyExpression reads variable.property
type PropertyExpression struct {
	Variable string
	Property string
}

// BinaryExpression applies Operator to two operands. Operators: OR, AND,
// =, <>, <, >, <=, >=, IN, CONTAINS, STARTS WITH, ENDS WITH, +, -, *, /, %.
type BinaryExpression struct {
	Left     Expression
	Operator string
	Right    Expression
}

// UnaryExpression applies NOT, unary minus, IS NULL or IS NOT NULL
type UnaryExpression struct {
	Operator string
	Operand  Expression
}

// FunctionCall invokes a scalar function or the count aggregate
type FunctionCall struct {
	Name     string
	Args     []Expression
	Distinct bool
	Star     bool
}

// ListExpression is a [a, b, c] literal
type ListExpression struct {
	Elements []Expression
}

func (e *LiteralExpression) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprint(v)
	}
}

func (e *ParameterExpression) String() string { return "$" + e.Name }
func (e *VariableExpression) String() string  { return e.Name }
func (e *PropertyExpression) String() string  { return e.Variable + "." + e.Property }

func (e *BinaryExpression) String() string {
	return e.Left.String() + " " + e.Operator + " " + e.Right.String()
}

func (e *UnaryExpression) String() string {
	switch e.Operator {
	case "IS NULL", "IS NOT NULL":
		return e.Operand.String() + " " + e.Operator
	case "-":
		return "-" + e.Operand.String()
	default:
		return e.Operator + " " + e.Operand.String()
	}
}

func (e *FunctionCall) String() string {
	if e.Star {
		return e.Name + "(*)"
	}
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	prefix := ""
	if e.Distinct {
		prefix = "DISTINCT "
	}
	return e.Name + "(" + prefix + strings.Join(args, ", ") + ")"
}

func (e *ListExpression) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// isAggregate reports whether the expression is an aggregate call
func isAggregate(e Expression) bool {
	fc, ok := e.(*FunctionCall)
	return ok && strings.EqualFold(fc.Name, "count")
}

// containsAggregate reports whether an aggregate appears anywhere in e
func containsAggregate(e Expression) bool {
	switch x := e.(type) {
	case *FunctionCall:
		if isAggregate(x) {
			return true
		}
		for _, a := range x.Args {
			if containsAggregate(a) {
				return true
			}
		}
	case *BinaryExpression:
		return containsAggregate(x.Left) || containsAggregate(x.Right)
	case *UnaryExpression:
		return containsAggregate(x.Operand)
	case *ListExpression:
		for _, el := range x.Elements {
			if containsAggregate(el) {
				return true
			}
		}
	}
	return false
}
