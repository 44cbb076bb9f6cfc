package project

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sfomuseum/go-webmap-layers/host"
)

// Evaluator is a host.Evaluator for the small expression subset used by layer variables:
// numeric and quoted string literals, field references (bare or double quoted), layer variables
// (@name), eval(...) and a single binary arithmetic operator (+, -, *, /).
type Evaluator struct{}

// maximum nesting of eval() and variable indirection
const max_depth = 32

func (e *Evaluator) Evaluate(ctx context.Context, layer host.VectorLayer, expr string, f *host.Feature) (any, error) {
	return e.evaluate(layer, strings.TrimSpace(expr), f, 0)
}

func (e *Evaluator) evaluate(layer host.VectorLayer, expr string, f *host.Feature, depth int) (any, error) {

	if depth > max_depth {
		return nil, fmt.Errorf("Expression '%s' is nested too deeply", expr)
	}

	expr = strings.TrimSpace(expr)

	if expr == "" {
		return nil, nil
	}

	idx := operatorIndex(expr)

	if idx > 0 {

		left, err := e.evaluate(layer, expr[:idx], f, depth+1)

		if err != nil {
			return nil, err
		}

		right, err := e.evaluate(layer, expr[idx+1:], f, depth+1)

		if err != nil {
			return nil, err
		}

		return arithmetic(expr[idx], left, right)
	}

	if strings.HasPrefix(expr, "eval(") && strings.HasSuffix(expr, ")") {

		inner := strings.TrimSuffix(strings.TrimPrefix(expr, "eval("), ")")

		v, err := e.evaluate(layer, inner, f, depth+1)

		if err != nil {
			return nil, err
		}

		str, ok := v.(string)

		if !ok {
			return v, nil
		}

		return e.evaluate(layer, str, f, depth+1)
	}

	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") {
		return e.evaluate(layer, expr[1:len(expr)-1], f, depth+1)
	}

	if strings.HasPrefix(expr, "@") {

		v, ok := layer.Variable(expr[1:])

		if !ok {
			return nil, nil
		}

		return v, nil
	}

	if strings.HasPrefix(expr, "'") && strings.HasSuffix(expr, "'") && len(expr) >= 2 {
		return expr[1 : len(expr)-1], nil
	}

	fl, err := strconv.ParseFloat(expr, 64)

	if err == nil {
		return fl, nil
	}

	name := strings.Trim(expr, `"`)

	if f == nil {
		return nil, fmt.Errorf("Field reference '%s' requires a feature", name)
	}

	v, ok := f.Attribute(layer.Fields(), name)

	if !ok {
		return nil, fmt.Errorf("Unknown field '%s'", name)
	}

	return v, nil
}

// operatorIndex returns the index of the right-most top level additive operator or, failing that,
// multiplicative operator in expr, or -1.
func operatorIndex(expr string) int {

	for _, ops := range []string{"+-", "*/"} {

		depth := 0
		in_quote := byte(0)

		for i := len(expr) - 1; i > 0; i-- {

			c := expr[i]

			switch {
			case in_quote != 0:
				if c == in_quote {
					in_quote = 0
				}
			case c == '\'' || c == '"':
				in_quote = c
			case c == ')':
				depth += 1
			case c == '(':
				depth -= 1
			case depth == 0 && strings.IndexByte(ops, c) != -1:

				prev := strings.TrimSpace(expr[:i])

				if isUnary(prev) {
					continue
				}

				return i
			}
		}
	}

	return -1
}

// isUnary reports whether an operator following prev is a sign rather than a binary operator.
func isUnary(prev string) bool {

	if prev == "" || strings.ContainsAny(prev[len(prev)-1:], "+-*/(") {
		return true
	}

	last := prev[len(prev)-1]

	if last != 'e' && last != 'E' {
		return false
	}

	_, err := strconv.ParseFloat(prev[:len(prev)-1], 64)
	return err == nil
}

func arithmetic(op byte, left any, right any) (any, error) {

	if host.IsNull(left) || host.IsNull(right) {
		return nil, nil
	}

	l, ok := toFloat(left)

	if !ok {
		return nil, fmt.Errorf("Value '%v' is not numeric", left)
	}

	r, ok := toFloat(right)

	if !ok {
		return nil, fmt.Errorf("Value '%v' is not numeric", right)
	}

	switch op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':

		if r == 0 {
			return nil, nil
		}

		return l / r, nil
	default:
		return nil, fmt.Errorf("Unsupported operator '%c'", op)
	}
}

func toFloat(v any) (float64, bool) {

	fl, ok := host.ValueFloat(v)

	if ok {
		return fl, true
	}

	str, ok := v.(string)

	if !ok {
		return 0, false
	}

	fl, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	return fl, err == nil
}
