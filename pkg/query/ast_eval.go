package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// evalContext is one row of variable bindings plus the query parameters.
// aggregates holds precomputed aggregate values during projection.
type evalContext struct {
	row        map[string]any
	params     map[string]any
	aggregates map[Expression]any
	exec       *Executor
}

func (e *LiteralExpression) Eval(ctx *evalContext) (any, error) {
	return e.Value, nil
}

func (e *ParameterExpression) Eval(ctx *evalContext) (any, error) {
	v, ok := ctx.params[e.Name]
	if !ok {
		return nil, e.missing()
	}
	return normalizeParam(v), nil
}

func (e *ParameterExpression) missing() error {
	return fmt.Errorf("%w: $%s", ErrMissingParam, e.Name)
}

func (e *VariableExpression) Eval(ctx *evalContext) (any, error) {
	v, ok := ctx.row[e.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnboundVariable, e.Name)
	}
	return v, nil
}

func (e *PropertyExpression) Eval(ctx *evalContext) (any, error) {
	v, ok := ctx.row[e.Variable]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnboundVariable, e.Variable)
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *storage.Node:
		return x.Properties[e.Property], nil
	case *storage.Edge:
		return x.Properties[e.Property], nil
	case map[string]any:
		return x[e.Property], nil
	}
	return nil, typeError("cannot read property %q of %T", e.Property, v)
}

func (e *ListExpression) Eval(ctx *evalContext) (any, error) {
	out := make([]any, len(e.Elements))
	for i, el := range e.Elements {
		v, err := el.Eval(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *UnaryExpression) Eval(ctx *evalContext) (any, error) {
	v, err := e.Operand.Eval(ctx)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "IS NULL":
		return v == nil, nil
	case "IS NOT NULL":
		return v != nil, nil
	case "NOT":
		if v == nil {
			return nil, nil
		}
		b, ok := v.(bool)
		if !ok {
			return nil, typeError("NOT expects a boolean, got %T", v)
		}
		return !b, nil
	case "-":
		switch x := v.(type) {
		case nil:
			return nil, nil
		case int64:
			return -x, nil
		case float64:
			return -x, nil
		}
		return nil, typeError("cannot negate %T", v)
	}
	return nil, fmt.Errorf("unknown unary operator %q", e.Operator)
}

func (e *BinaryExpression) Eval(ctx *evalContext) (any, error) {
	switch e.Operator {
	case "AND", "OR":
		return e.evalLogical(ctx)
	}

	left, err := e.Left.Eval(ctx)
	if err != nil {
		return nil, err
	}
	right, err := e.Right.Eval(ctx)
	if err != nil {
		return nil, err
	}

	if e.Operator == "IN" {
		return evalIn(left, right)
	}
	if left == nil || right == nil {
		return nil, nil
	}

	switch e.Operator {
	case "=":
		return equalValues(left, right), nil
	case "<>":
		return !equalValues(left, right), nil
	case "<", ">", "<=", ">=":
		c, ok := compareValues(left, right)
		if !ok {
			return nil, nil
		}
		switch e.Operator {
		case "<":
			return c < 0, nil
		case ">":
			return c > 0, nil
		case "<=":
			return c <= 0, nil
		default:
			return c >= 0, nil
		}
	case "CONTAINS", "STARTS WITH", "ENDS WITH":
		ls, lok := left.(string)
		rs, rok := right.(string)
		if !lok || !rok {
			return nil, nil
		}
		switch e.Operator {
		case "CONTAINS":
			return strings.Contains(ls, rs), nil
		case "STARTS WITH":
			return strings.HasPrefix(ls, rs), nil
		default:
			return strings.HasSuffix(ls, rs), nil
		}
	case "+", "-", "*", "/", "%":
		return evalArithmetic(e.Operator, left, right)
	}
	return nil, fmt.Errorf("unknown operator %q", e.Operator)
}

// evalLogical implements three-valued AND/OR
func (e *BinaryExpression) evalLogical(ctx *evalContext) (any, error) {
	left, err := e.Left.Eval(ctx)
	if err != nil {
		return nil, err
	}
	lb, lok := left.(bool)
	if left != nil && !lok {
		return nil, typeError("%s expects booleans, got %T", e.Operator, left)
	}
	// short circuit
	if lok && e.Operator == "AND" && !lb {
		return false, nil
	}
	if lok && e.Operator == "OR" && lb {
		return true, nil
	}

	right, err := e.Right.Eval(ctx)
	if err != nil {
		return nil, err
	}
	rb, rok := right.(bool)
	if right != nil && !rok {
		return nil, typeError("%s expects booleans, got %T", e.Operator, right)
	}

	if e.Operator == "AND" {
		if rok && !rb {
			return false, nil
		}
		if lok && rok {
			return true, nil
		}
		return nil, nil
	}
	if rok && rb {
		return true, nil
	}
	if lok && rok {
		return false, nil
	}
	return nil, nil
}

func evalIn(needle, haystack any) (any, error) {
	if haystack == nil {
		return nil, nil
	}
	list, ok := toList(haystack)
	if !ok {
		return nil, typeError("IN expects a list, got %T", haystack)
	}
	if needle == nil {
		return nil, nil
	}
	sawNull := false
	for _, el := range list {
		if el == nil {
			sawNull = true
			continue
		}
		if equalValues(needle, el) {
			return true, nil
		}
	}
	if sawNull {
		return nil, nil
	}
	return false, nil
}

func evalArithmetic(op string, left, right any) (any, error) {
	if op == "+" {
		if ls, ok := left.(string); ok {
			return ls + fmt.Sprint(right), nil
		}
		if rs, ok := right.(string); ok {
			return fmt.Sprint(left) + rs, nil
		}
	}

	li, lInt := left.(int64)
	ri, rInt := right.(int64)
	if lInt && rInt {
		switch op {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "/", "%":
			if ri == 0 {
				return nil, typeError("division by zero")
			}
			if op == "/" {
				return li / ri, nil
			}
			return li % ri, nil
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, typeError("cannot apply %s to %T and %T", op, left, right)
	}
	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		return lf / rf, nil
	default:
		return math.Mod(lf, rf), nil
	}
}

func (e *FunctionCall) Eval(ctx *evalContext) (any, error) {
	if isAggregate(e) {
		v, ok := ctx.aggregates[e]
		if !ok {
			return nil, typeError("%s is only allowed in RETURN", e.String())
		}
		return v, nil
	}

	fn, ok := functions[strings.ToLower(e.Name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, e.Name)
	}
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		v, err := a.Eval(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return fn(ctx, args)
}

// truthy interprets a WHERE result; null and false reject the row
func truthy(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	}
	return false, typeError("WHERE expects a boolean, got %T", v)
}
