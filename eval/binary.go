// binary.go — binary operator reduction, short-circuit boolean ops, and
// the "fn" (application / construction) operator
//
// This file implements every BinaryOpExpr arm of evalStep except "=",
// which is big enough to deserve its own file (assign.go): lazy-bound
// identifier assignment, atom-constructor destructuring, and
// function-definition-pattern accumulation.
package eval

import (
	"math"

	"github.com/codefionn/functional-lang/ast"
	"github.com/codefionn/functional-lang/env"
)

func (e *Evaluator) evalBinary(scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	switch n.Op {
	case ast.OpAssign:
		return e.evalAssign(scope, n)
	case ast.OpAnd, ast.OpOr:
		return e.evalShortCircuit(scope, n)
	case ast.OpFn:
		return e.evalApply(scope, n)
	case ast.OpEq:
		return e.evalEquals(scope, n)
	default:
		return e.evalArith(scope, n)
	}
}

// evalShortCircuit implements "&&"/"||" per §4.4.3: the LHS is always
// fully evaluated; "false && x" short-circuits to ".false" without
// touching x at all (this is what makes `.false && error "boom"` safe),
// and anything else only ever produces ".true"/".false" atoms.
func (e *Evaluator) evalShortCircuit(scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	left, err := e.EvaluateToFixpoint(scope, n.Left)
	if err != nil {
		return nil, err
	}
	leftAtom, ok := left.(*ast.AtomExpr)
	if !ok {
		return nil, errAt(n.Pos(), "Invalid use of binary operator.")
	}
	if n.Op == ast.OpAnd && leftAtom.IsFalse() {
		return ast.NewAtom(e.GC, n.Pos(), "false"), nil
	}
	if n.Op == ast.OpOr && !leftAtom.IsFalse() {
		return ast.NewAtom(e.GC, n.Pos(), "true"), nil
	}
	right, err := e.EvaluateToFixpoint(scope, n.Right)
	if err != nil {
		return nil, err
	}
	rightAtom, ok := right.(*ast.AtomExpr)
	if !ok {
		return nil, errAt(n.Pos(), "Invalid use of binary operator.")
	}
	return boolAtom(e, n.Pos(), !rightAtom.IsFalse()), nil
}

func boolAtom(e *Evaluator, pos ast.Position, truthy bool) ast.Expression {
	if truthy {
		return ast.NewAtom(e.GC, pos, "true")
	}
	return ast.NewAtom(e.GC, pos, "false")
}

func (e *Evaluator) evalEquals(scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	left, err := e.EvaluateToFixpoint(scope, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.EvaluateToFixpoint(scope, n.Right)
	if err != nil {
		return nil, err
	}
	return boolAtom(e, n.Pos(), left.StructuralEquals(right, false)), nil
}

// evalArith handles comparisons (other than "==", which evalEquals
// covers) and the numeric operators. Per §4.4.3: both sides are fully
// evaluated; if both are Numbers the result is a Number, if both are
// Integers the result is an Integer, and any other combination is left
// as the unchanged BinaryOp (no implicit conversion).
func (e *Evaluator) evalArith(scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	left, err := e.EvaluateToFixpoint(scope, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.EvaluateToFixpoint(scope, n.Right)
	if err != nil {
		return nil, err
	}

	li, lIsInt := left.(*ast.IntegerExpr)
	ri, rIsInt := right.(*ast.IntegerExpr)
	if lIsInt && rIsInt {
		if isComparison(n.Op) {
			return boolAtom(e, n.Pos(), compareInt(n.Op, li.Value, ri.Value)), nil
		}
		v, err := arithInt(n.Op, li.Value, ri.Value, n.Pos())
		if err != nil {
			return nil, err
		}
		return ast.NewInteger(e.GC, n.Pos(), v), nil
	}

	lf, lIsNum := left.(*ast.NumberExpr)
	rf, rIsNum := right.(*ast.NumberExpr)
	if lIsNum && rIsNum {
		if isComparison(n.Op) {
			return boolAtom(e, n.Pos(), compareFloat(n.Op, lf.Value, rf.Value)), nil
		}
		return ast.NewNumber(e.GC, n.Pos(), arithFloat(n.Op, lf.Value, rf.Value)), nil
	}

	if left == n.Left && right == n.Right {
		return n, nil
	}
	return ast.NewBinaryOp(e.GC, n.Pos(), n.Op, left, right), nil
}

func isComparison(op ast.Operator) bool {
	switch op {
	case ast.OpLe, ast.OpGe, ast.OpLt, ast.OpGt:
		return true
	default:
		return false
	}
}

func compareInt(op ast.Operator, a, b int64) bool {
	switch op {
	case ast.OpLe:
		return a <= b
	case ast.OpGe:
		return a >= b
	case ast.OpLt:
		return a < b
	case ast.OpGt:
		return a > b
	default:
		return false
	}
}

func compareFloat(op ast.Operator, a, b float64) bool {
	switch op {
	case ast.OpLe:
		return a <= b
	case ast.OpGe:
		return a >= b
	case ast.OpLt:
		return a < b
	case ast.OpGt:
		return a > b
	default:
		return false
	}
}

func arithInt(op ast.Operator, a, b int64, pos ast.Position) (int64, error) {
	switch op {
	case ast.OpAdd:
		return a + b, nil
	case ast.OpSub:
		return a - b, nil
	case ast.OpMul:
		return a * b, nil
	case ast.OpDiv:
		if b == 0 {
			return 0, errAt(pos, "division by zero")
		}
		return a / b, nil
	case ast.OpPow:
		return int64(math.Pow(float64(a), float64(b))), nil
	default:
		return 0, errAt(pos, "unsupported integer operator %s", op)
	}
}

func arithFloat(op ast.Operator, a, b float64) float64 {
	switch op {
	case ast.OpAdd:
		return a + b
	case ast.OpSub:
		return a - b
	case ast.OpMul:
		return a * b
	case ast.OpDiv:
		return a / b // Go float division semantics: +-Inf / NaN on zero divisor
	case ast.OpPow:
		return math.Pow(a, b)
	default:
		return 0
	}
}

// evalApply implements "fn" (§4.4.3): built-ins first, then call-by-name
// lambda application, then otherwise-unchanged data construction once
// both sides have stopped changing.
func (e *Evaluator) evalApply(scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	if id, ok := n.Left.(*ast.IdentifierExpr); ok {
		if builtin, ok := builtins[id.Name]; ok {
			return builtin(e, scope, n)
		}
	}

	left, err := e.EvaluateToFixpoint(scope, n.Left)
	if err != nil {
		return nil, err
	}
	if lambda, ok := left.(*ast.LambdaExpr); ok {
		return lambda.Body.Replace(lambda.Param, n.Right), nil
	}

	right, err := e.EvaluateToFixpoint(scope, n.Right)
	if err != nil {
		return nil, err
	}
	if left == n.Left && right == n.Right {
		return n, nil
	}
	return ast.NewBinaryOp(e.GC, n.Pos(), ast.OpFn, left, right), nil
}
