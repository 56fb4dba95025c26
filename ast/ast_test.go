package ast

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codefionn/functional-lang/gc"
)

func pos() Position { return Position{LineStart: 1, LineEnd: 1, ColStart: 1, ColEnd: 1} }

func TestDepthInvariant(t *testing.T) {
	c := gc.New()
	one := NewInteger(c, pos(), 1)
	two := NewInteger(c, pos(), 2)
	sum := NewBinaryOp(c, pos(), OpAdd, one, two)

	if sum.Depth() != 1+one.Depth()+two.Depth() {
		t.Fatalf("depth invariant violated: got %d, want %d", sum.Depth(), 1+one.Depth()+two.Depth())
	}
}

func TestAlphaShadowingReplace(t *testing.T) {
	c := gc.New()
	x := NewIdentifier(c, pos(), "x")
	lambda := NewLambda(c, pos(), "x", x)
	v := NewInteger(c, pos(), 99)

	replaced := lambda.Replace("x", v)
	if !replaced.StructuralEquals(lambda, false) {
		t.Fatalf("replacing a lambda's own parameter name must be a no-op (shadowing), got %s", replaced.String())
	}
}

func TestAnyMatchesEverythingNonStrict(t *testing.T) {
	c := gc.New()
	any := NewAny(c, pos())
	five := NewInteger(c, pos(), 5)
	atom := NewAtom(c, pos(), "ok")

	if !five.StructuralEquals(any, false) {
		t.Fatal("Integer.StructuralEquals(Any, false) should be true")
	}
	if !any.StructuralEquals(five, false) {
		t.Fatal("Any.StructuralEquals(Integer, false) should be true")
	}
	if !atom.StructuralEquals(any, false) {
		t.Fatal("Atom.StructuralEquals(Any, false) should be true")
	}
}

func TestAnyDoesNotMatchUnderExact(t *testing.T) {
	c := gc.New()
	any := NewAny(c, pos())
	five := NewInteger(c, pos(), 5)
	if five.StructuralEquals(any, true) {
		t.Fatal("under exact equality, Integer should not equal Any")
	}
}

func TestCrossKindNumericEquality(t *testing.T) {
	c := gc.New()
	i := NewInteger(c, pos(), 3)
	n := NewNumber(c, pos(), 3.0)
	if !i.StructuralEquals(n, false) {
		t.Fatal("Integer 3 should non-strictly equal Number 3.0")
	}
	if i.StructuralEquals(n, true) {
		t.Fatal("Integer 3 should NOT exact-equal Number 3.0 (different kinds)")
	}
}

func TestIdentifiersUnion(t *testing.T) {
	c := gc.New()
	x := NewIdentifier(c, pos(), "x")
	y := NewIdentifier(c, pos(), "y")
	expr := NewBinaryOp(c, pos(), OpAdd, x, NewBinaryOp(c, pos(), OpMul, y, x))

	got := append([]string(nil), expr.Identifiers()...)
	sort.Strings(got)
	want := []string{"x", "y"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Identifiers() mismatch (-want +got):\n%s", diff)
	}
}

func TestAtomIsFalse(t *testing.T) {
	c := gc.New()
	f := NewAtom(c, pos(), "false")
	tr := NewAtom(c, pos(), "true")
	other := NewAtom(c, pos(), "pair")

	if !f.IsFalse() {
		t.Fatal(".false must report IsFalse() == true")
	}
	if tr.IsFalse() || other.IsFalse() {
		t.Fatal("only .false should report IsFalse() == true")
	}
}

func TestNumberStringAlwaysHasDecimalPoint(t *testing.T) {
	c := gc.New()
	n := NewNumber(c, pos(), 4)
	if got := n.String(); got != "4.0" {
		t.Fatalf("NumberExpr.String() = %q, want %q", got, "4.0")
	}
}

func TestFunctionArityAndAddCaseInvalidatesCache(t *testing.T) {
	c := gc.New()
	param := NewIdentifier(c, pos(), "n")
	body := NewInteger(c, pos(), 1)
	fn := NewFunction(c, pos(), "fac", FunctionCase{Patterns: []Expression{param}, Body: body})
	fn.SetLastEval(body)

	if fn.Arity() != 1 {
		t.Fatalf("Arity() = %d, want 1", fn.Arity())
	}

	fn.AddCase([]Expression{NewAny(c, pos())}, NewInteger(c, pos(), 2))
	if fn.LastEval() != nil {
		t.Fatal("AddCase must invalidate last_eval_cache")
	}
	if len(fn.Cases) != 2 {
		t.Fatalf("len(Cases) = %d, want 2", len(fn.Cases))
	}
}
