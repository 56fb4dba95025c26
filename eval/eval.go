// eval.go — the reduction engine
//
// OVERVIEW
// --------
// Single-step expression reduction is rendered here as a type switch,
// evalStep, performing exactly one reduction step per call and returning
// the same node back when there is nothing left to do at this node. The
// public entry point, EvaluateToFixpoint, repeatedly calls evalStep
// (through the last-eval cache) until the returned pointer equals the
// previous one — the fixpoint — detecting two termination hazards along
// the way:
//
//   - Endless terms: if consecutive steps produce a BinaryOp whose LHS or
//     RHS is pointer-identical to the entire previous step's result, that
//     is diagnosed as runaway self-application rather than looped forever.
//   - GC pressure: after every step, if the collector reports at least
//     200 new objects since its last sweep, the evaluator marks the
//     active environment and collects.
//
// Assignment (the "=" operator), pattern-matching function desugaring,
// and the five built-in identifiers live in their own files in this
// package (assign.go, builtins.go) to keep this file to the per-kind
// reduction rules (§4.4.3).
//
// Dependencies
// ------------
//   - ast package: the node types this switches on.
//   - env package: variable lookup/definition and stack rooting.
//   - gc package: Mark/Collect, driven from here.
package eval

import (
	"fmt"

	"github.com/codefionn/functional-lang/ast"
	"github.com/codefionn/functional-lang/env"
	"github.com/codefionn/functional-lang/gc"
)

// gcBudget is the new-object threshold that triggers a collection; the
// spec fixes it at 200.
const gcBudget = 200

// stepBudget bounds the number of reduction steps a single
// EvaluateToFixpoint call may take without nesting (e.g. a cycle of
// distinct-but-equivalent BinaryOp terms that never repeats a pointer).
const stepBudget = 100000

// maxDepth bounds how deeply EvaluateToFixpoint may call itself — Let
// and multi-case Function evaluation both recurse into it directly
// (§4.4.5, §4.4.6), and a term like "let f x = f x in f 0" recurses once
// per application with no intervening fixpoint, so the pointer-equality
// check never sees a repeated node (every step allocates a fresh tree).
// Left unchecked that recursion would exhaust the goroutine stack
// instead of producing a diagnostic; maxDepth turns it into the same
// "Endless term detected." error well before that happens.
const maxDepth = 4000

// EvalError is the evaluator's diagnostic type, rendered the same way as
// lexer.LexError and parser.ParseError (see the diag package).
type EvalError struct {
	Line, Col int
	Msg       string
}

func (e *EvalError) Error() string { return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg) }
func (e *EvalError) Location() (int, int) { return e.Line, e.Col }

func errAt(pos ast.Position, format string, args ...interface{}) error {
	return &EvalError{Line: pos.LineStart, Col: pos.ColStart, Msg: fmt.Sprintf(format, args...)}
}

// Evaluator owns the collector every expression and environment in one
// REPL session is registered with, and the output stream the "print" and
// "time" built-ins write to.
type Evaluator struct {
	GC  *gc.Collector
	Out Writer

	depth int // current EvaluateToFixpoint nesting; guards against stack exhaustion
}

// Writer is the narrow interface the evaluator needs for "print" and
// "time" output — satisfied by *os.File, a bytes.Buffer, anything with
// Write.
type Writer interface {
	Write(p []byte) (int, error)
}

func New(gcol *gc.Collector, out Writer) *Evaluator {
	return &Evaluator{GC: gcol, Out: out}
}

// EvaluateToFixpoint repeatedly reduces expr in scope until a step
// returns the same node it was given, rooting expr across every step (an
// allocation-triggering step might otherwise let a GC sweep reclaim it)
// and triggering a collection whenever the collector's new-object budget
// is exhausted.
func (e *Evaluator) EvaluateToFixpoint(scope *env.Environment, expr ast.Expression) (ast.Expression, error) {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > maxDepth {
		return nil, errAt(expr.Pos(), "Endless term detected.")
	}

	scope.PushRoot(expr)
	defer scope.PopRoot(expr)

	cur := expr
	for steps := 0; ; steps++ {
		scope.PushRoot(cur)
		next, err := e.evaluateWithCache(scope, cur)
		scope.PopRoot(cur)
		if err != nil {
			return nil, err
		}

		if bo, ok := next.(*ast.BinaryOpExpr); ok {
			if bo.Left == cur || bo.Right == cur {
				return nil, errAt(bo.Pos(), "Endless term detected.")
			}
		}

		if next == cur {
			return next, nil
		}
		if steps >= stepBudget {
			return nil, errAt(cur.Pos(), "Endless term detected.")
		}
		cur = next

		if e.GC.NewObjectsSinceCollect() >= gcBudget {
			e.GC.Mark(scope)
			e.GC.Collect()
		}
	}
}

// evaluateWithCache consults and fills Expression.LastEval, except for
// assignments (§4.4.3: "Cached via last_eval except for assignments" —
// an assignment's effect depends on which environment frame it runs
// against, so memoizing it would wrongly skip the bind on a second
// visit in a different scope).
func (e *Evaluator) evaluateWithCache(scope *env.Environment, expr ast.Expression) (ast.Expression, error) {
	if bo, ok := expr.(*ast.BinaryOpExpr); ok && bo.Op == ast.OpAssign {
		return e.evalStep(scope, expr)
	}
	if cached := expr.LastEval(); cached != nil {
		return cached, nil
	}
	result, err := e.evalStep(scope, expr)
	if err != nil {
		return nil, err
	}
	expr.SetLastEval(result)
	return result, nil
}

// evalStep performs exactly one reduction step, per §4.4.3.
func (e *Evaluator) evalStep(scope *env.Environment, expr ast.Expression) (ast.Expression, error) {
	switch n := expr.(type) {
	case *ast.NumberExpr, *ast.IntegerExpr, *ast.AtomExpr, *ast.AnyExpr, *ast.LambdaExpr:
		return expr, nil

	case *ast.IdentifierExpr:
		v, ok := scope.Get(n.Name)
		if !ok {
			return nil, errAt(n.Pos(), "Variable %s is not bound.", n.Name)
		}
		return v, nil

	case *ast.UnaryOpExpr:
		return e.evalUnary(scope, n)

	case *ast.IfExpr:
		return e.evalIf(scope, n)

	case *ast.BinaryOpExpr:
		return e.evalBinary(scope, n)

	case *ast.LetExpr:
		return e.evalLet(scope, n)

	case *ast.FunctionExpr:
		return e.evalFunction(scope, n)

	default:
		return nil, errAt(expr.Pos(), "internal: unhandled expression kind %s", expr.Kind())
	}
}

func (e *Evaluator) evalUnary(scope *env.Environment, n *ast.UnaryOpExpr) (ast.Expression, error) {
	operand, err := e.EvaluateToFixpoint(scope, n.Operand)
	if err != nil {
		return nil, err
	}
	switch v := operand.(type) {
	case *ast.NumberExpr:
		if n.Op == ast.OpSub {
			return ast.NewNumber(e.GC, n.Pos(), -v.Value), nil
		}
		return ast.NewNumber(e.GC, n.Pos(), v.Value), nil
	case *ast.IntegerExpr:
		if n.Op == ast.OpSub {
			return ast.NewInteger(e.GC, n.Pos(), -v.Value), nil
		}
		return ast.NewInteger(e.GC, n.Pos(), v.Value), nil
	default:
		return nil, errAt(n.Pos(), "unary %s requires a numeric operand", n.Op)
	}
}

func (e *Evaluator) evalIf(scope *env.Environment, n *ast.IfExpr) (ast.Expression, error) {
	cond, err := e.EvaluateToFixpoint(scope, n.Cond)
	if err != nil {
		return nil, err
	}
	atom, ok := cond.(*ast.AtomExpr)
	if !ok {
		return nil, errAt(n.Cond.Pos(), "if-condition must evaluate to an atom, got %s", cond.Kind())
	}
	branch := n.Then
	if atom.IsFalse() {
		branch = n.Else
	}
	return e.EvaluateToFixpoint(scope, branch)
}

// evalLet is Let.evaluate (§4.4.6): every assignment runs to a fixpoint
// against a fresh child scope, every name it bound is substituted directly
// into the body, a bound name that shadows a binding in an enclosing scope
// is then dropped (the child resolves it to the enclosing binding again),
// and the body is then fully evaluated in that same child scope.
func (e *Evaluator) evalLet(scope *env.Environment, n *ast.LetExpr) (ast.Expression, error) {
	child := env.NewChild(e.GC, scope)
	child.PushRoot(n)
	defer child.PopRoot(n)

	bound := make([]string, 0, len(n.Assignments))
	for _, a := range n.Assignments {
		if _, err := e.EvaluateToFixpoint(child, a); err != nil {
			return nil, err
		}
		bound = append(bound, bindingNames(a.Left)...)
	}

	body := n.Body
	for _, name := range bound {
		val, ok := child.CurrentGet(name)
		if !ok {
			continue
		}
		body = body.Replace(name, val)
		if outer, shadowsParent := scope.Get(name); shadowsParent {
			// Dropped: the value is already substituted into the body, and
			// a reference to this name left inside that value means the
			// enclosing binding, so the child resolves it there again.
			child.Define(name, outer)
		}
	}
	return e.EvaluateToFixpoint(child, body)
}

// bindingNames extracts every name a (possibly nested) pattern binds:
// the identifier itself for a plain identifier LHS, or every identifier
// leaf for an atom-constructor / function-definition pattern.
func bindingNames(lhs ast.Expression) []string {
	if id, ok := lhs.(*ast.IdentifierExpr); ok {
		return []string{id.Name}
	}
	return lhs.Identifiers()
}

// evalFunction is Function.evaluate (§4.4.5): desugar every case into a
// guarded nested-if tree wrapped in k lambdas, then hand evaluation off
// to that lambda tree. Implemented in assign.go alongside the rest of
// the pattern-compiling machinery it shares with assignment handling.
func (e *Evaluator) evalFunction(scope *env.Environment, n *ast.FunctionExpr) (ast.Expression, error) {
	return e.desugarFunction(scope, n)
}

