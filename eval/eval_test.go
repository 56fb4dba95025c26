package eval

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/codefionn/functional-lang/ast"
	"github.com/codefionn/functional-lang/env"
	"github.com/codefionn/functional-lang/gc"
	"github.com/codefionn/functional-lang/lexer"
	"github.com/codefionn/functional-lang/parser"
)

// harness.run parses a single expression from src and evaluates it to a
// fixpoint against the harness's global scope, sharing one scope,
// collector and evaluator across calls so a test can run several
// statements in sequence the way the REPL does.
type harness struct {
	t     *testing.T
	c     *gc.Collector
	scope *env.Environment
	eval  *Evaluator
	out   *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	c := gc.New()
	scope := env.New(c)
	out := &bytes.Buffer{}
	return &harness{t: t, c: c, scope: scope, eval: New(c, out), out: out}
}

func (h *harness) run(src string) (ast.Expression, error) {
	h.t.Helper()
	lex := lexer.New(src)
	p := parser.New(lex, h.c, h.scope, func(expr ast.Expression, scope *env.Environment) (ast.Expression, error) {
		return h.eval.EvaluateToFixpoint(scope, expr)
	})
	expr, err := p.ParseOne()
	if err != nil {
		h.t.Fatalf("unexpected parse error for %q: %v", src, err)
	}
	return h.eval.EvaluateToFixpoint(h.scope, expr)
}

func (h *harness) runAll(stmts ...string) (ast.Expression, error) {
	h.t.Helper()
	var result ast.Expression
	var err error
	for _, s := range stmts {
		result, err = h.run(s)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func TestArithmeticPrecedenceEvaluatesTo15(t *testing.T) {
	h := newHarness(t)
	result, err := h.run("1 + 2 * 3 ^ 2 - 4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, ok := result.(*ast.IntegerExpr)
	if !ok || i.Value != 15 {
		t.Fatalf("result = %#v, want Integer 15", result)
	}
}

func TestLambdaApplication(t *testing.T) {
	h := newHarness(t)
	result, err := h.run(`(\x = x + 1) 41`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, ok := result.(*ast.IntegerExpr)
	if !ok || i.Value != 42 {
		t.Fatalf("result = %#v, want Integer 42", result)
	}
}

func TestMultiEquationFactorial(t *testing.T) {
	h := newHarness(t)
	result, err := h.runAll(
		"fac 0 = 1",
		"fac n = n * fac (n - 1)",
		"fac 5",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, ok := result.(*ast.IntegerExpr)
	if !ok || i.Value != 120 {
		t.Fatalf("result = %#v, want Integer 120", result)
	}
}

func TestAtomPatternDestructuring(t *testing.T) {
	h := newHarness(t)
	result, err := h.run("let .pair x y = .pair 1 2 in x + y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, ok := result.(*ast.IntegerExpr)
	if !ok || i.Value != 3 {
		t.Fatalf("result = %#v, want Integer 3", result)
	}
}

func TestShortCircuitAndSkipsRHSError(t *testing.T) {
	h := newHarness(t)
	result, err := h.run(`.false && error .boom`)
	if err != nil {
		t.Fatalf("unexpected error (RHS should never be reached): %v", err)
	}
	atom, ok := result.(*ast.AtomExpr)
	if !ok || !atom.IsFalse() {
		t.Fatalf("result = %#v, want atom .false", result)
	}
}

func TestShortCircuitOrSkipsRHSError(t *testing.T) {
	h := newHarness(t)
	result, err := h.run(`.true || error .boom`)
	if err != nil {
		t.Fatalf("unexpected error (RHS should never be reached): %v", err)
	}
	atom, ok := result.(*ast.AtomExpr)
	if !ok || atom.IsFalse() {
		t.Fatalf("result = %#v, want atom .true", result)
	}
}

func TestEndlessTermDetected(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("let f x = f x in f 0")
	if err == nil {
		t.Fatal("expected an error for an endless term")
	}
	if !strings.Contains(err.Error(), "Endless term detected.") {
		t.Fatalf("err = %v, want it to contain %q", err, "Endless term detected.")
	}
}

func TestUnboundVariableErrors(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run("undefined_name"); err == nil {
		t.Fatal("expected an error for an unbound variable")
	}
}

func TestBuiltinError(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("error .boom")
	if err == nil {
		t.Fatal("expected the error built-in to abort evaluation")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want it to mention the atom", err)
	}
}

func TestBuiltinPrintWritesAndReturnsValue(t *testing.T) {
	h := newHarness(t)
	result, err := h.run("print 7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, ok := result.(*ast.IntegerExpr)
	if !ok || i.Value != 7 {
		t.Fatalf("result = %#v, want Integer 7", result)
	}
	if strings.TrimSpace(h.out.String()) != "7" {
		t.Fatalf("printed output = %q, want %q", h.out.String(), "7")
	}
}

func TestAssignmentProducesNoObservableValueChange(t *testing.T) {
	h := newHarness(t)
	result, err := h.run("x = 5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bo, ok := result.(*ast.BinaryOpExpr)
	if !ok || bo.Op != ast.OpAssign {
		t.Fatalf("result = %#v, want the assignment node unchanged", result)
	}
}

func TestDuplicateIdentifierAssignmentErrors(t *testing.T) {
	h := newHarness(t)
	if _, err := h.runAll("x = 1", "x = 2"); err == nil {
		t.Fatal("expected an error re-assigning an identifier already bound in the same scope")
	}
}

func TestIfFoldsToMatchingBranch(t *testing.T) {
	h := newHarness(t)
	result, err := h.run("if .true then 1 else 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, ok := result.(*ast.IntegerExpr)
	if !ok || i.Value != 1 {
		t.Fatalf("result = %#v, want Integer 1", result)
	}
}

func TestIfRequiresAtomCondition(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run("if 1 then 1 else 2"); err == nil {
		t.Fatal("expected an error for a non-atom if-condition")
	}
}

func TestIntegerDivisionByZeroReportsDiagnosticInsteadOfPanicking(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("1 / 0")
	if err == nil {
		t.Fatal("expected an error for integer division by zero")
	}
	if !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("err = %v, want it to mention division by zero", err)
	}
}

func TestFloatDivisionByZeroProducesInf(t *testing.T) {
	h := newHarness(t)
	result, err := h.run("1.0 / 0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := result.(*ast.NumberExpr)
	if !ok || !math.IsInf(n.Value, 1) {
		t.Fatalf("result = %#v, want +Inf", result)
	}
}

func TestNoMatchingCaseReportsNoMatch(t *testing.T) {
	h := newHarness(t)
	_, err := h.runAll(
		"fac 0 = 1",
		"fac 1",
	)
	if err == nil {
		t.Fatal("expected an error when no case pattern matches")
	}
	if !strings.Contains(err.Error(), "No Match") {
		t.Fatalf("err = %v, want it to mention \"No Match\"", err)
	}
}

func TestBuiltinErrorDoesNotEvaluateItsArgument(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(`error (1 + 2)`)
	if err == nil {
		t.Fatal("expected the error built-in to abort evaluation")
	}
	if !strings.Contains(err.Error(), "(1 + 2)") {
		t.Fatalf("err = %v, want it to mention the unevaluated source \"(1 + 2)\"", err)
	}
}

func TestBuiltinErrorRendersUnevaluatedArgumentEvenIfEvaluatingItWouldFail(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(`error (error .boom)`)
	if err == nil {
		t.Fatal("expected the outer error built-in to abort evaluation")
	}
	if !strings.Contains(err.Error(), "(error .boom)") {
		t.Fatalf("err = %v, want the inner 'error .boom' rendered unevaluated as \"(error .boom)\", not triggered", err)
	}
}

func TestBuiltinPrintDoesNotEvaluateAndReturnsArgumentUnevaluated(t *testing.T) {
	h := newHarness(t)
	result, err := h.run(`print (1 + 2)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := result.(*ast.BinaryOpExpr); !ok {
		t.Fatalf("result = %#v, want the unevaluated BinaryOpExpr, not Integer 3", result)
	}
	if strings.TrimSpace(h.out.String()) != "(1 + 2)" {
		t.Fatalf("printed output = %q, want %q", h.out.String(), "(1 + 2)")
	}
}

func TestShortCircuitAndErrorsOnNonAtomLHS(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(`1 && .true`); err == nil {
		t.Fatal("expected an error for a non-atom LHS operand")
	}
}

func TestShortCircuitOrErrorsOnNonAtomRHS(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(`.false || 1`); err == nil {
		t.Fatal("expected an error for a non-atom RHS operand")
	}
}
