// builtins.go — the five built-in identifiers (§4.4.3, §6.2)
//
// A builtin is dispatched from evalApply before the LHS is even evaluated
// (§4.4.3: "Identifier: error x aborts...; print x writes...") because
// each one needs to control exactly when and how many times its argument
// is evaluated, which the generic application rule doesn't allow for.
package eval

import (
	"fmt"
	"math"
	"time"

	"github.com/codefionn/functional-lang/ast"
	"github.com/codefionn/functional-lang/env"
)

type builtinFunc func(e *Evaluator, scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error)

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"error":     builtinError,
		"print":     builtinPrint,
		"to_int":    builtinToInt,
		"round_int": builtinRoundInt,
		"time":      builtinTime,
	}
}

// builtinError aborts with its argument's unevaluated source text as the
// diagnostic message, reported at the call's own source span. Unlike
// to_int/round_int/time, §4.4.3 never says error x evaluates x first.
func builtinError(e *Evaluator, scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	return nil, errAt(n.Pos(), "%s", n.Right.String())
}

// builtinPrint writes n.Right.String() followed by a newline to e.Out and
// returns n.Right unchanged (unevaluated), per §4.4.3.
func builtinPrint(e *Evaluator, scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	if e.Out != nil {
		fmt.Fprintln(e.Out, n.Right.String())
	}
	return n.Right, nil
}

// builtinToInt floors a Number to an Integer; an Integer argument passes
// through unchanged.
func builtinToInt(e *Evaluator, scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	arg, err := e.EvaluateToFixpoint(scope, n.Right)
	if err != nil {
		return nil, err
	}
	switch v := arg.(type) {
	case *ast.IntegerExpr:
		return v, nil
	case *ast.NumberExpr:
		return ast.NewInteger(e.GC, n.Pos(), int64(math.Floor(v.Value))), nil
	default:
		return nil, errAt(n.Pos(), "to_int requires a numeric argument, got %s", arg.Kind())
	}
}

// builtinRoundInt is to_int's rounding sibling.
func builtinRoundInt(e *Evaluator, scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	arg, err := e.EvaluateToFixpoint(scope, n.Right)
	if err != nil {
		return nil, err
	}
	switch v := arg.(type) {
	case *ast.IntegerExpr:
		return v, nil
	case *ast.NumberExpr:
		return ast.NewInteger(e.GC, n.Pos(), int64(math.Round(v.Value))), nil
	default:
		return nil, errAt(n.Pos(), "round_int requires a numeric argument, got %s", arg.Kind())
	}
}

// builtinTime fully evaluates its argument, prints the elapsed wall-clock
// time, and returns the value unchanged.
func builtinTime(e *Evaluator, scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	start := time.Now()
	arg, err := e.EvaluateToFixpoint(scope, n.Right)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	if e.Out != nil {
		fmt.Fprintf(e.Out, "Needed %d ms.\n", elapsed.Milliseconds())
	}
	return arg, nil
}
