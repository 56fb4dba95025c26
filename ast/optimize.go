// optimize.go — structural sharing pass
//
// Optimize runs once after a top-level expression is parsed (and again
// after Function.evaluate desugars cases into a lambda tree). It walks
// the tree post-order, keeping a pool of the unique subtrees it has seen
// so far; whenever a freshly rewritten subtree is exact-equal to a pool
// entry it reuses that entry instead of the new allocation, so
// structurally identical subtrees end up pointer-identical.
//
// Two special cases fold away nodes entirely rather than just sharing
// them: an If whose condition is already an Atom takes its branch
// directly, and a Let whose every assignment is "x = x" (an identifier LHS
// structurally equal to its RHS) degenerates to its body. A function
// definition such as "f x = f x" is never treated as trivial. Assignment right-hand sides are
// canonicalized on their own — they are never shared with anything
// outside the assignment itself, since sharing across an assignment
// boundary would let the pool leak lazily-bound state between scopes.
//
// A Function whose case bodies were rewritten (per §4.4.4 case 3) to
// hold a direct pointer back to the Function itself, for recursive
// calls, would otherwise send this walk into unbounded recursion: the
// FunctionExpr case is visited again through its own case body, which
// walks its cases again, forever. seen breaks that cycle by registering
// each Function's rewritten node before descending into its cases, so a
// self-reference encountered while optimizing a case body resolves to
// the same (already under construction) node instead of re-entering it.
package ast

import "github.com/codefionn/functional-lang/gc"

// pool deduplicates subtrees by exact structural equality during one
// optimize pass. A linear scan is adequate: these trees are small
// compared to the interpreter's 200-object GC budget.
type pool struct {
	entries []Expression
}

func (p *pool) intern(e Expression) Expression {
	for _, existing := range p.entries {
		if existing.Depth() == e.Depth() && existing.StructuralEquals(e, true) {
			return existing
		}
	}
	p.entries = append(p.entries, e)
	return e
}

// internNew is intern for a node built fresh by this pass (as opposed to
// a leaf reused unchanged from the input tree): the collector only needs
// to learn about it when the pool actually keeps it rather than folding
// it into an existing entry.
func (p *pool) internNew(c *gc.Collector, fresh Expression) Expression {
	kept := p.intern(fresh)
	if kept == fresh {
		c.Register(fresh)
	}
	return kept
}

// Optimize returns a rewritten version of e with maximal structural
// sharing and the two folding rules described above applied. Every
// freshly constructed node is registered with c, per §3.3's "every
// non-null child reference is registered with the GC" invariant.
func Optimize(c *gc.Collector, e Expression) Expression {
	p := &pool{}
	seen := make(map[*FunctionExpr]*FunctionExpr)
	return optimizeWith(c, p, seen, e)
}

func optimizeWith(c *gc.Collector, p *pool, seen map[*FunctionExpr]*FunctionExpr, e Expression) Expression {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *NumberExpr, *IntegerExpr, *IdentifierExpr, *AtomExpr, *AnyExpr:
		return p.intern(e)

	case *LambdaExpr:
		body := optimizeWith(c, p, seen, n.Body)
		return p.internNew(c, &LambdaExpr{Header: n.Header, Param: n.Param, Body: body})

	case *UnaryOpExpr:
		operand := optimizeWith(c, p, seen, n.Operand)
		return p.internNew(c, &UnaryOpExpr{Header: n.Header, Op: n.Op, Operand: operand})

	case *BinaryOpExpr:
		left := optimizeWith(c, p, seen, n.Left)
		var right Expression
		if n.Op == OpAssign {
			// The RHS of an assignment is canonicalized in its own pool
			// so it never shares structure with the surrounding scope.
			right = Optimize(c, n.Right)
		} else {
			right = optimizeWith(c, p, seen, n.Right)
		}
		return p.internNew(c, &BinaryOpExpr{Header: n.Header, Op: n.Op, Left: left, Right: right})

	case *IfExpr:
		cond := optimizeWith(c, p, seen, n.Cond)
		then := optimizeWith(c, p, seen, n.Then)
		els := optimizeWith(c, p, seen, n.Else)
		if _, ok := cond.(*AtomExpr); ok {
			if cond.(*AtomExpr).IsFalse() {
				return els
			}
			return then
		}
		return p.internNew(c, &IfExpr{Header: n.Header, Cond: cond, Then: then, Else: els})

	case *LetExpr:
		assignments := make([]*BinaryOpExpr, 0, len(n.Assignments))
		allTrivial := true
		for _, a := range n.Assignments {
			opt := optimizeWith(c, p, seen, a)
			bo := opt.(*BinaryOpExpr)
			assignments = append(assignments, bo)
			if _, isID := bo.Left.(*IdentifierExpr); !isID || !bo.Left.StructuralEquals(bo.Right, true) {
				allTrivial = false
			}
		}
		body := optimizeWith(c, p, seen, n.Body)
		if allTrivial {
			return body
		}
		return p.internNew(c, &LetExpr{Header: n.Header, Assignments: assignments, Body: body})

	case *FunctionExpr:
		if fresh, ok := seen[n]; ok {
			return fresh
		}
		fresh := &FunctionExpr{Header: n.Header, Name: n.Name}
		seen[n] = fresh
		c.Register(fresh)

		cases := make([]FunctionCase, len(n.Cases))
		for i, cs := range n.Cases {
			pats := make([]Expression, len(cs.Patterns))
			for j, pat := range cs.Patterns {
				pats[j] = optimizeWith(c, p, seen, pat)
			}
			cases[i] = FunctionCase{Patterns: pats, Body: optimizeWith(c, p, seen, cs.Body)}
		}
		fresh.Cases = cases
		return fresh

	default:
		return e
	}
}
