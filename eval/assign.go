// assign.go — assignment semantics and pattern-matching function
// desugaring (§4.4.4, §4.4.5)
//
// Three LHS shapes reach evalAssign, and they were never distinguished by
// the parser — classifyLHS recovers which one a given "=" is by walking
// the left spine of nested "fn" applications the parser built while
// reading the LHS as an ordinary expression:
//
//   - a bare identifier binds a lazily-evaluated value;
//   - a spine whose leftmost leaf is an Atom is a data-constructor
//     pattern: the RHS must reduce to the same atom applied to the same
//     number of arguments, and each argument position is bound (or
//     recursively matched) against the corresponding value;
//   - a spine whose leftmost leaf is an Identifier followed by at least
//     one argument is another equation for a (possibly new) multi-case
//     Function.
//
// Function desugaring (§4.4.5) is the second half of this file:
// compileFunction turns the accumulated (patterns, body) cases of a
// Function into the nested-if-over-structural-equality-guards, wrapped
// in k lambdas, that first-match-wins pattern matching reduces to.
package eval

import (
	"github.com/codefionn/functional-lang/ast"
	"github.com/codefionn/functional-lang/env"
)

// lhsShape is the result of classifying the LHS of "=".
type lhsShape struct {
	kind     string // "identifier" | "atom" | "function"
	name     string
	patterns []ast.Expression // argument patterns, left to right
}

func classifyLHS(lhs ast.Expression) *lhsShape {
	if id, ok := lhs.(*ast.IdentifierExpr); ok {
		return &lhsShape{kind: "identifier", name: id.Name}
	}

	var args []ast.Expression
	node := lhs
	for {
		bo, ok := node.(*ast.BinaryOpExpr)
		if !ok || bo.Op != ast.OpFn {
			break
		}
		args = append([]ast.Expression{bo.Right}, args...)
		node = bo.Left
	}

	switch head := node.(type) {
	case *ast.AtomExpr:
		return &lhsShape{kind: "atom", name: head.Name, patterns: args}
	case *ast.IdentifierExpr:
		if len(args) == 0 {
			return &lhsShape{kind: "identifier", name: head.Name}
		}
		return &lhsShape{kind: "function", name: head.Name, patterns: args}
	default:
		return nil
	}
}

func (e *Evaluator) evalAssign(scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	shape := classifyLHS(n.Left)
	if shape == nil {
		return nil, errAt(n.Pos(), "invalid left-hand side of assignment")
	}
	switch shape.kind {
	case "identifier":
		return e.assignIdentifier(scope, n, shape.name)
	case "atom":
		return e.assignAtomPattern(scope, n)
	case "function":
		return e.assignFunctionPattern(scope, n, shape)
	default:
		return nil, errAt(n.Pos(), "invalid left-hand side of assignment")
	}
}

// assignIdentifier is §4.4.4 case 1: the RHS is stored unevaluated (lazy)
// and a second assignment of the same name in the same frame is an
// error.
func (e *Evaluator) assignIdentifier(scope *env.Environment, n *ast.BinaryOpExpr, name string) (ast.Expression, error) {
	if _, exists := scope.CurrentGet(name); exists {
		return nil, errAt(n.Pos(), "Variable %s already exists.", name)
	}
	scope.Define(name, n.Right)
	return n, nil
}

// assignAtomPattern is §4.4.4 case 2.
func (e *Evaluator) assignAtomPattern(scope *env.Environment, n *ast.BinaryOpExpr) (ast.Expression, error) {
	rhsVal, err := e.EvaluateToFixpoint(scope, n.Right)
	if err != nil {
		return nil, err
	}
	if err := e.destructureAtom(scope, n.Left, rhsVal, n.Pos()); err != nil {
		return nil, err
	}
	return n, nil
}

// destructureAtom walks the LHS pattern and the (already fully evaluated)
// RHS value in lockstep down their "fn" spines, binding/matching each
// argument position, and finally requiring both leftmost leaves to be
// atoms of the same name.
func (e *Evaluator) destructureAtom(scope *env.Environment, lhs, rhsVal ast.Expression, pos ast.Position) error {
	lhsBO, lhsIsFn := lhs.(*ast.BinaryOpExpr)
	if lhsIsFn && lhsBO.Op == ast.OpFn {
		rhsBO, rhsIsFn := rhsVal.(*ast.BinaryOpExpr)
		if !rhsIsFn || rhsBO.Op != ast.OpFn {
			return errAt(pos, "Assignment of atom constructors requires same name.")
		}
		if err := e.destructureAtom(scope, lhsBO.Left, rhsBO.Left, pos); err != nil {
			return err
		}
		return e.bindPatternLeaf(scope, lhsBO.Right, rhsBO.Right, pos)
	}

	lhsAtom, ok1 := lhs.(*ast.AtomExpr)
	rhsAtom, ok2 := rhsVal.(*ast.AtomExpr)
	if !ok1 || !ok2 || lhsAtom.Name != rhsAtom.Name {
		return errAt(pos, "Assignment of atom constructors requires same name.")
	}
	return nil
}

// bindPatternLeaf handles one argument position of an atom-constructor
// pattern: a bare identifier binds, "_" matches and discards, and
// anything else (a nested atom-constructor pattern) is matched
// recursively.
func (e *Evaluator) bindPatternLeaf(scope *env.Environment, pattern, value ast.Expression, pos ast.Position) error {
	switch p := pattern.(type) {
	case *ast.IdentifierExpr:
		scope.Define(p.Name, value)
		return nil
	case *ast.AnyExpr:
		return nil
	default:
		return e.destructureAtom(scope, pattern, value, pos)
	}
}

// assignFunctionPattern is §4.4.4 case 3.
func (e *Evaluator) assignFunctionPattern(scope *env.Environment, n *ast.BinaryOpExpr, shape *lhsShape) (ast.Expression, error) {
	existing, exists := scope.CurrentGet(shape.name)
	if !exists {
		fn := ast.NewFunction(e.GC, n.Pos(), shape.name, ast.FunctionCase{Patterns: shape.patterns, Body: n.Right})
		fn.SetCaseBody(0, n.Right.Replace(shape.name, fn))
		scope.Define(shape.name, fn)
		return n, nil
	}

	fn, ok := existing.(*ast.FunctionExpr)
	if !ok {
		return nil, errAt(n.Pos(), "Variable %s already exists.", shape.name)
	}
	if fn.Arity() != len(shape.patterns) {
		return nil, errAt(n.Pos(), "Function argument length of %s don't match.", shape.name)
	}
	rewritten := n.Right.Replace(shape.name, fn)
	fn.AddCase(shape.patterns, rewritten)
	return n, nil
}

// ---- §4.4.5: Function → lambda desugaring ----

// desugarFunction compiles fn's accumulated cases into the nested-if /
// let / lambda tree described in §4.4.5 and hands off evaluation of that
// tree. The result is cached in fn.LastEval by evaluateWithCache exactly
// like any other node; recompilation only happens again if
// AddCase invalidates the cache.
func (e *Evaluator) desugarFunction(scope *env.Environment, fn *ast.FunctionExpr) (ast.Expression, error) {
	compiled := e.compileFunction(fn)
	return e.EvaluateToFixpoint(scope, compiled)
}

func (e *Evaluator) compileFunction(fn *ast.FunctionExpr) ast.Expression {
	arity := fn.Arity()
	argNames := make([]string, arity)
	for i := range argNames {
		argNames[i] = syntheticArgName(i)
	}

	fallback := e.noMatchError(fn.Pos())
	body := fallback
	for i := len(fn.Cases) - 1; i >= 0; i-- {
		body = e.compileCase(fn.Cases[i], argNames, fn.Pos(), body)
	}

	result := body
	for i := arity - 1; i >= 0; i-- {
		result = ast.NewLambda(e.GC, fn.Pos(), argNames[i], result)
	}
	return ast.Optimize(e.GC, result)
}

func syntheticArgName(i int) string {
	const letters = "xyzuvwabcdefghijklmnopqrst"
	if i < len(letters) {
		return "_" + string(letters[i])
	}
	return "_arg"
}

// noMatchError builds the built-in call `error "No Match"` used as the
// fallback after the last case, per §4.4.5.
func (e *Evaluator) noMatchError(pos ast.Position) ast.Expression {
	callee := ast.NewIdentifier(e.GC, pos, "error")
	arg := ast.NewIdentifier(e.GC, pos, `"No Match"`)
	return ast.NewBinaryOp(e.GC, pos, ast.OpFn, callee, arg)
}

// isAtomConstructorPattern reports whether pat's leftmost leaf, walked
// down a spine of "fn" applications, is an Atom — the same shape
// classifyLHS recognizes for the LHS of "=".
func isAtomConstructorPattern(pat ast.Expression) bool {
	node := pat
	for {
		bo, ok := node.(*ast.BinaryOpExpr)
		if !ok || bo.Op != ast.OpFn {
			break
		}
		node = bo.Left
	}
	_, ok := node.(*ast.AtomExpr)
	return ok
}

// compileCase builds one case's contribution to the desugared tree:
//
//	if G then (let p1 = _x in let p2 = _y in ... body) else next
//
// where G is the conjunction of structural-equality guards for every
// pattern that is neither "_" nor a bare identifier, and only identifier
// and atom-constructor patterns are additionally bound via surrounding
// "let"s (so identifier positions capture the call argument, and
// atom-constructor positions destructure it) — a bare literal pattern
// contributes a guard only, since there is nothing in it left to bind.
func (e *Evaluator) compileCase(cs ast.FunctionCase, argNames []string, pos ast.Position, next ast.Expression) ast.Expression {
	body := cs.Body
	var lets []*ast.BinaryOpExpr
	var guards ast.Expression

	for i, pat := range cs.Patterns {
		argRef := ast.NewIdentifier(e.GC, pos, argNames[i])

		if id, ok := pat.(*ast.IdentifierExpr); ok {
			lets = append(lets, ast.NewBinaryOp(e.GC, pos, ast.OpAssign, id, argRef))
			continue
		}
		if _, ok := pat.(*ast.AnyExpr); ok {
			continue
		}

		if isAtomConstructorPattern(pat) {
			lets = append(lets, ast.NewBinaryOp(e.GC, pos, ast.OpAssign, pat, argRef))
		}
		guard := ast.NewBinaryOp(e.GC, pos, ast.OpEq, pat.Replace("", ast.NewAny(e.GC, pos)), argRef)
		if guards == nil {
			guards = guard
		} else {
			guards = ast.NewBinaryOp(e.GC, pos, ast.OpAnd, guards, guard)
		}
	}

	for i := len(lets) - 1; i >= 0; i-- {
		body = ast.NewLet(e.GC, pos, []*ast.BinaryOpExpr{lets[i]}, body)
	}

	if guards == nil {
		return body
	}
	return ast.NewIf(e.GC, pos, guards, body, next)
}
