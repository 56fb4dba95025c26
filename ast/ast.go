// ast.go — the expression tree
//
// OVERVIEW
// --------
// The language has exactly eleven expression shapes (Number, Integer,
// Identifier, Atom, Any, Lambda, BinaryOp, UnaryOp, If, Let, Function).
// Every shape shares a common Header carrying its source Position, its
// Depth (computed once at construction), the toggling GC mark bit, and a
// cache slot for the last value this node evaluated to.
//
// Nodes are created only by the parser and the evaluator and are owned
// exclusively by a gc.Collector — nothing else frees them. References
// between nodes are plain Go pointers; the collector treats the whole
// tree (plus every Environment, see the env package) as its object graph.
//
// Every variant answers the same small algebra, declared on the
// Expression interface below:
//
//   - String()           human-readable source-like rendering
//   - Identifiers()      names of Identifier leaves anywhere in the subtree
//   - StructuralEquals() tree comparison, with an "exact" mode for Any
//   - Replace()           capture-avoiding-by-shadowing substitution
//
// evaluate() is deliberately NOT a method on Expression. Its reduction
// rule reads an Environment (defined in the env package), and env in turn
// stores Expression values — making evaluate a method here would create
// an ast<->env import cycle. Instead the eval package dispatches with a
// type switch on the concrete node type, which is the idiomatic Go rendering of the
// single-dispatch-per-variant design the rest of this algebra uses.
package ast

import "github.com/codefionn/functional-lang/gc"

// Position marks the source span an expression was parsed from, used for
// error carets and nothing else — it never affects evaluation.
type Position struct {
	ByteStart, ByteEnd int
	LineStart, LineEnd int
	ColStart, ColEnd   int
}

// Kind discriminates the eleven expression shapes without a type
// assertion; eval uses it to name a node's shape in diagnostics.
type Kind int

const (
	KindNumber Kind = iota
	KindInteger
	KindIdentifier
	KindAtom
	KindAny
	KindLambda
	KindBinaryOp
	KindUnaryOp
	KindIf
	KindLet
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindInteger:
		return "Integer"
	case KindIdentifier:
		return "Identifier"
	case KindAtom:
		return "Atom"
	case KindAny:
		return "Any"
	case KindLambda:
		return "Lambda"
	case KindBinaryOp:
		return "BinaryOp"
	case KindUnaryOp:
		return "UnaryOp"
	case KindIf:
		return "If"
	case KindLet:
		return "Let"
	case KindFunction:
		return "Function"
	default:
		return "?"
	}
}

// Expression is implemented by every node of the tree. All methods are
// pure tree operations; nothing here touches an Environment or a
// Collector beyond the embedded gc.Header's bookkeeping.
type Expression interface {
	gc.Markable

	Kind() Kind
	Pos() Position
	Depth() int
	String() string
	Identifiers() []string
	StructuralEquals(other Expression, exact bool) bool
	Replace(name string, repl Expression) Expression

	// LastEval/SetLastEval back evaluate_with_cache (eval package): the
	// single-step reduction result is memoized here so repeated fixpoint
	// iterations over an unchanged node are free. Invalidated only by
	// Function.AddCase and Function.SetCaseBody: changing a function's
	// cases changes the reductions it can take, so any memoized step is
	// no longer valid.
	LastEval() Expression
	SetLastEval(Expression)
}

// Header is embedded by every concrete node type. It carries everything
// common to all variants except MarkChildren, which each variant must
// supply itself (it alone knows its children).
type Header struct {
	gc.Header
	pos      Position
	depth    int
	lastEval Expression
}

func (h *Header) Pos() Position         { return h.pos }
func (h *Header) Depth() int            { return h.depth }
func (h *Header) LastEval() Expression  { return h.lastEval }
func (h *Header) SetLastEval(e Expression) { h.lastEval = e }

func newHeader(pos Position, children ...Expression) Header {
	d := 1
	for _, c := range children {
		if c != nil {
			d += c.Depth()
		}
	}
	return Header{pos: pos, depth: d}
}

// mark is the shared implementation of MarkChildren for nodes that carry
// a fixed list of child expressions (as opposed to Let/Function, whose
// children are slices of sub-structures and supply their own).
func mark(c *gc.Collector, children ...Expression) {
	for _, ch := range children {
		if ch != nil {
			c.Mark(ch)
		}
	}
}

// isAny reports whether e is the wildcard, treating nil as "not any".
func isAny(e Expression) bool {
	_, ok := e.(*AnyExpr)
	return ok
}

// numericValue extracts a float64 view of Number/Integer nodes, used by
// the cross-kind equality rule in StructuralEquals.
func numericValue(e Expression) (float64, bool) {
	switch n := e.(type) {
	case *NumberExpr:
		return n.Value, true
	case *IntegerExpr:
		return float64(n.Value), true
	default:
		return 0, false
	}
}

func unionIdentifiers(lists ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range lists {
		for _, n := range l {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
