package parser

import (
	"testing"

	"github.com/codefionn/functional-lang/ast"
	"github.com/codefionn/functional-lang/env"
	"github.com/codefionn/functional-lang/gc"
	"github.com/codefionn/functional-lang/lexer"
)

func parse(t *testing.T, src string) ast.Expression {
	t.Helper()
	c := gc.New()
	p := New(lexer.New(src), c, nil, nil)
	expr, err := p.ParseOne()
	if err != nil {
		t.Fatalf("unexpected parse error for %q: %v", src, err)
	}
	return expr
}

func TestArithmeticPrecedence(t *testing.T) {
	// 1 + 2 * 3 ^ 2 - 4 groups as (1 + (2 * (3 ^ 2))) - 4
	expr := parse(t, "1 + 2 * 3 ^ 2 - 4")
	top, ok := expr.(*ast.BinaryOpExpr)
	if !ok || top.Op != ast.OpSub {
		t.Fatalf("top operator = %#v, want OpSub", expr)
	}
	if lit, ok := top.Right.(*ast.IntegerExpr); !ok || lit.Value != 4 {
		t.Fatalf("right of top-level '-' = %#v, want Integer 4", top.Right)
	}
	add, ok := top.Left.(*ast.BinaryOpExpr)
	if !ok || add.Op != ast.OpAdd {
		t.Fatalf("left of top-level '-' = %#v, want OpAdd", top.Left)
	}
	mul, ok := add.Right.(*ast.BinaryOpExpr)
	if !ok || mul.Op != ast.OpMul {
		t.Fatalf("right of '+' = %#v, want OpMul", add.Right)
	}
	pow, ok := mul.Right.(*ast.BinaryOpExpr)
	if !ok || pow.Op != ast.OpPow {
		t.Fatalf("right of '*' = %#v, want OpPow", mul.Right)
	}
}

func TestJuxtapositionIsLeftAssociative(t *testing.T) {
	// "f x y" parses as fn(fn(f, x), y)
	expr := parse(t, "f x y")
	outer, ok := expr.(*ast.BinaryOpExpr)
	if !ok || outer.Op != ast.OpFn {
		t.Fatalf("outer = %#v, want OpFn", expr)
	}
	if id, ok := outer.Right.(*ast.IdentifierExpr); !ok || id.Name != "y" {
		t.Fatalf("outer.Right = %#v, want identifier y", outer.Right)
	}
	inner, ok := outer.Left.(*ast.BinaryOpExpr)
	if !ok || inner.Op != ast.OpFn {
		t.Fatalf("inner = %#v, want OpFn", outer.Left)
	}
	if id, ok := inner.Left.(*ast.IdentifierExpr); !ok || id.Name != "f" {
		t.Fatalf("inner.Left = %#v, want identifier f", inner.Left)
	}
}

func TestAtomConstructorApplication(t *testing.T) {
	expr := parse(t, ".pair 1 2")
	outer, ok := expr.(*ast.BinaryOpExpr)
	if !ok || outer.Op != ast.OpFn {
		t.Fatalf("outer = %#v, want OpFn", expr)
	}
	inner := outer.Left.(*ast.BinaryOpExpr)
	atom, ok := inner.Left.(*ast.AtomExpr)
	if !ok || atom.Name != "pair" {
		t.Fatalf("leftmost leaf = %#v, want atom .pair", inner.Left)
	}
}

func TestLambdaParsing(t *testing.T) {
	expr := parse(t, `\x = x + 1`)
	lambda, ok := expr.(*ast.LambdaExpr)
	if !ok {
		t.Fatalf("expr = %#v, want *ast.LambdaExpr", expr)
	}
	if lambda.Param != "x" {
		t.Fatalf("lambda.Param = %q, want x", lambda.Param)
	}
	body, ok := lambda.Body.(*ast.BinaryOpExpr)
	if !ok || body.Op != ast.OpAdd {
		t.Fatalf("lambda.Body = %#v, want OpAdd", lambda.Body)
	}
}

func TestIfParsing(t *testing.T) {
	// The condition is not an atom, so the post-parse Optimize pass keeps
	// the If instead of folding it to a branch.
	expr := parse(t, "if c then 1 else 2")
	ifExpr, ok := expr.(*ast.IfExpr)
	if !ok {
		t.Fatalf("expr = %#v, want *ast.IfExpr", expr)
	}
	if _, ok := ifExpr.Cond.(*ast.IdentifierExpr); !ok {
		t.Fatalf("ifExpr.Cond = %#v, want *ast.IdentifierExpr", ifExpr.Cond)
	}
}

func TestLetParsingWithSemicolonSeparatedBindings(t *testing.T) {
	expr := parse(t, "let x = 1; y = 2 in x + y")
	letExpr, ok := expr.(*ast.LetExpr)
	if !ok {
		t.Fatalf("expr = %#v, want *ast.LetExpr", expr)
	}
	if len(letExpr.Assignments) != 2 {
		t.Fatalf("len(Assignments) = %d, want 2", len(letExpr.Assignments))
	}
}

func TestLetWithTrailingSemicolonBeforeIn(t *testing.T) {
	expr := parse(t, "let x = 1; in x")
	letExpr, ok := expr.(*ast.LetExpr)
	if !ok {
		t.Fatalf("expr = %#v, want *ast.LetExpr", expr)
	}
	if len(letExpr.Assignments) != 1 {
		t.Fatalf("len(Assignments) = %d, want 1 (a trailing ';' right before 'in' is accepted)", len(letExpr.Assignments))
	}
}

func TestParenGroupingOverridesPrecedence(t *testing.T) {
	expr := parse(t, "(1 + 2) * 3")
	top, ok := expr.(*ast.BinaryOpExpr)
	if !ok || top.Op != ast.OpMul {
		t.Fatalf("top = %#v, want OpMul", expr)
	}
	if _, ok := top.Left.(*ast.BinaryOpExpr); !ok {
		t.Fatalf("top.Left = %#v, want the parenthesized '+' expression", top.Left)
	}
}

func TestSpliceEvaluatesAtParseTime(t *testing.T) {
	c := gc.New()
	g := env.New(c)
	called := false
	evalFn := func(expr ast.Expression, scope *env.Environment) (ast.Expression, error) {
		called = true
		return ast.NewInteger(c, ast.Position{}, 7), nil
	}
	p := New(lexer.New("$x + 1"), c, g, evalFn)
	expr, err := p.ParseOne()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("EvalSplice callback was never invoked")
	}
	bo, ok := expr.(*ast.BinaryOpExpr)
	if !ok || bo.Op != ast.OpAdd {
		t.Fatalf("expr = %#v, want OpAdd", expr)
	}
	if lit, ok := bo.Left.(*ast.IntegerExpr); !ok || lit.Value != 7 {
		t.Fatalf("spliced value = %#v, want Integer 7", bo.Left)
	}
}

func TestSpliceWithoutEvalCallbackErrors(t *testing.T) {
	c := gc.New()
	p := New(lexer.New("$x"), c, nil, nil)
	if _, err := p.ParseOne(); err == nil {
		t.Fatal("expected an error when '$' is used with no EvalSplice configured")
	}
}

func TestIsIncompleteOnTruncatedInput(t *testing.T) {
	c := gc.New()
	p := New(lexer.New("1 +"), c, nil, nil)
	_, err := p.ParseOne()
	if err == nil {
		t.Fatal("expected a parse error for truncated input")
	}
	if !IsIncomplete(err) {
		t.Fatalf("IsIncomplete(%v) = false, want true", err)
	}
}

func TestIsIncompleteFalseOnGenuineSyntaxError(t *testing.T) {
	c := gc.New()
	p := New(lexer.New("then"), c, nil, nil)
	_, err := p.ParseOne()
	if err == nil {
		t.Fatal("expected a parse error for a stray 'then'")
	}
	if IsIncomplete(err) {
		t.Fatalf("IsIncomplete(%v) = true, want false (a stray keyword is a genuine syntax error, not truncation)", err)
	}
}

func TestJuxtapositionDoesNotSwallowLeadingMinusAsUnary(t *testing.T) {
	// "f - x" must parse as subtraction, not as "f" applied to "-x":
	// unary +/- never continues a juxtaposition chain, since +/- are
	// also binary infix operators at their own precedence level.
	expr := parse(t, "f - x")
	top, ok := expr.(*ast.BinaryOpExpr)
	if !ok || top.Op != ast.OpSub {
		t.Fatalf("expr = %#v, want top-level OpSub", expr)
	}
	if _, ok := top.Left.(*ast.IdentifierExpr); !ok {
		t.Fatalf("top.Left = %#v, want identifier f", top.Left)
	}
	if _, ok := top.Right.(*ast.IdentifierExpr); !ok {
		t.Fatalf("top.Right = %#v, want identifier x (not a UnaryOpExpr)", top.Right)
	}
}

func TestParenthesizedNegationCanBeApplied(t *testing.T) {
	expr := parse(t, "f (-x)")
	outer, ok := expr.(*ast.BinaryOpExpr)
	if !ok || outer.Op != ast.OpFn {
		t.Fatalf("expr = %#v, want OpFn application", expr)
	}
	if _, ok := outer.Right.(*ast.UnaryOpExpr); !ok {
		t.Fatalf("outer.Right = %#v, want a parenthesized UnaryOpExpr", outer.Right)
	}
}

func TestParseOneReturnsErrEOFAtEnd(t *testing.T) {
	c := gc.New()
	p := New(lexer.New(""), c, nil, nil)
	if _, err := p.ParseOne(); err != ErrEOF {
		t.Fatalf("err = %v, want ErrEOF", err)
	}
}
