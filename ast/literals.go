// literals.go — the five leaf expression shapes
//
// Number, Integer, Identifier, Atom and Any never have children: their
// MarkChildren is a no-op, their Replace either returns a fresh node or
// themselves unchanged, and depth is always 1.
package ast

import (
	"math"
	"strconv"

	"github.com/codefionn/functional-lang/gc"
)

// NumberExpr is a floating-point literal or the result of arithmetic that
// produced one.
type NumberExpr struct {
	Header
	Value float64
}

func NewNumber(c *gc.Collector, pos Position, v float64) *NumberExpr {
	n := &NumberExpr{Header: newHeader(pos), Value: v}
	c.Register(n)
	return n
}

func (n *NumberExpr) Kind() Kind                  { return KindNumber }
func (n *NumberExpr) MarkChildren(*gc.Collector)  {}
func (n *NumberExpr) Identifiers() []string       { return nil }
func (n *NumberExpr) Replace(string, Expression) Expression { return n }
func (n *NumberExpr) String() string {
	s := strconv.FormatFloat(n.Value, 'g', -1, 64)
	if !containsDotOrExp(s) {
		s += ".0"
	}
	return s
}

func (n *NumberExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact && isAny(other) {
		return true
	}
	if exact {
		o, ok := other.(*NumberExpr)
		return ok && o.Value == n.Value
	}
	if v, ok := numericValue(other); ok {
		if o, ok := other.(*IntegerExpr); ok {
			return math.Round(n.Value) == float64(o.Value)
		}
		return v == n.Value
	}
	return false
}

func containsDotOrExp(s string) bool {
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' || r == 'n' /* NaN, Inf */ {
			return true
		}
	}
	return false
}

// IntegerExpr is a 64-bit signed literal or the result of arithmetic that
// produced one.
type IntegerExpr struct {
	Header
	Value int64
}

func NewInteger(c *gc.Collector, pos Position, v int64) *IntegerExpr {
	n := &IntegerExpr{Header: newHeader(pos), Value: v}
	c.Register(n)
	return n
}

func (n *IntegerExpr) Kind() Kind                 { return KindInteger }
func (n *IntegerExpr) MarkChildren(*gc.Collector) {}
func (n *IntegerExpr) Identifiers() []string      { return nil }
func (n *IntegerExpr) Replace(string, Expression) Expression { return n }
func (n *IntegerExpr) String() string             { return strconv.FormatInt(n.Value, 10) }

func (n *IntegerExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact && isAny(other) {
		return true
	}
	if exact {
		o, ok := other.(*IntegerExpr)
		return ok && o.Value == n.Value
	}
	if o, ok := other.(*NumberExpr); ok {
		return math.Round(o.Value) == float64(n.Value)
	}
	if o, ok := other.(*IntegerExpr); ok {
		return o.Value == n.Value
	}
	return false
}

// IdentifierExpr names a binding looked up in the current Environment
// chain, or a pattern-position binder when it occurs on the LHS of an
// assignment.
type IdentifierExpr struct {
	Header
	Name string
}

func NewIdentifier(c *gc.Collector, pos Position, name string) *IdentifierExpr {
	n := &IdentifierExpr{Header: newHeader(pos), Name: name}
	c.Register(n)
	return n
}

func (n *IdentifierExpr) Kind() Kind                 { return KindIdentifier }
func (n *IdentifierExpr) MarkChildren(*gc.Collector) {}
func (n *IdentifierExpr) Identifiers() []string      { return []string{n.Name} }
func (n *IdentifierExpr) String() string             { return n.Name }

func (n *IdentifierExpr) Replace(name string, repl Expression) Expression {
	if name == "" || n.Name == name {
		return repl
	}
	return n
}

func (n *IdentifierExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact && isAny(other) {
		return true
	}
	o, ok := other.(*IdentifierExpr)
	return ok && o.Name == n.Name
}

// AtomExpr is a nullary symbol written ".name" in source, equal only to
// another atom of the same name. Atoms double as nullary data
// constructors (".true", ".false", ".nil", user-defined tags, ...).
type AtomExpr struct {
	Header
	Name string
}

func NewAtom(c *gc.Collector, pos Position, name string) *AtomExpr {
	n := &AtomExpr{Header: newHeader(pos), Name: name}
	c.Register(n)
	return n
}

func (n *AtomExpr) Kind() Kind                  { return KindAtom }
func (n *AtomExpr) MarkChildren(*gc.Collector)  {}
func (n *AtomExpr) Identifiers() []string       { return nil }
func (n *AtomExpr) Replace(string, Expression) Expression { return n }
func (n *AtomExpr) String() string              { return "." + n.Name }

func (n *AtomExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact && isAny(other) {
		return true
	}
	o, ok := other.(*AtomExpr)
	return ok && o.Name == n.Name
}

// IsFalse reports whether this atom is ".false", the only falsy value in
// the interpreter's boolean convention: every other atom is truthy.
func (n *AtomExpr) IsFalse() bool { return n.Name == "false" }

// AnyExpr is the wildcard "_". Under non-strict equality it matches
// everything; under exact equality it matches only another Any.
type AnyExpr struct {
	Header
}

func NewAny(c *gc.Collector, pos Position) *AnyExpr {
	n := &AnyExpr{Header: newHeader(pos)}
	c.Register(n)
	return n
}

func (n *AnyExpr) Kind() Kind                  { return KindAny }
func (n *AnyExpr) MarkChildren(*gc.Collector)  {}
func (n *AnyExpr) Identifiers() []string       { return nil }
func (n *AnyExpr) Replace(string, Expression) Expression { return n }
func (n *AnyExpr) String() string              { return "_" }

func (n *AnyExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact {
		return true
	}
	return isAny(other)
}
