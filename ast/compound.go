// compound.go — the six expression shapes with children
//
// Lambda, BinaryOp, UnaryOp, If and Let are ordinary recursive nodes.
// Function is the odd one out: it is synthesized by the evaluator (never
// by the parser) to collect every equation written for one name, and it
// is the only node type any code mutates after construction — AddCase
// appends another (patterns, body) case when a later top-level line
// extends the same function, SetCaseBody rewrites a case body, and both
// invalidate the cached last-evaluation result since either can change
// what the function reduces to.
package ast

import (
	"strings"

	"github.com/codefionn/functional-lang/gc"
)

// Operator enumerates every binary/unary operator spelling the lexer and
// parser recognize. "Fn" is synthetic: it never appears in source text,
// it is how the parser encodes juxtaposition (application / data
// construction).
type Operator string

const (
	OpAdd      Operator = "+"
	OpSub      Operator = "-"
	OpMul      Operator = "*"
	OpDiv      Operator = "/"
	OpPow      Operator = "^"
	OpEq       Operator = "=="
	OpLe       Operator = "<="
	OpGe       Operator = ">="
	OpLt       Operator = "<"
	OpGt       Operator = ">"
	OpAnd      Operator = "&&"
	OpOr       Operator = "||"
	OpAssign   Operator = "="
	OpFn       Operator = "fn"
)

// LambdaExpr is a single-parameter anonymous function: "\param = body".
// Multi-parameter lambdas are ordinary nesting: "\x = \y = x + y".
type LambdaExpr struct {
	Header
	Param string
	Body  Expression
}

func NewLambda(c *gc.Collector, pos Position, param string, body Expression) *LambdaExpr {
	n := &LambdaExpr{Header: newHeader(pos, body), Param: param, Body: body}
	c.Register(n)
	return n
}

func (n *LambdaExpr) Kind() Kind                      { return KindLambda }
func (n *LambdaExpr) MarkChildren(c *gc.Collector)    { mark(c, n.Body) }
func (n *LambdaExpr) Identifiers() []string           { return n.Body.Identifiers() }
func (n *LambdaExpr) String() string                  { return "\\" + n.Param + " = " + n.Body.String() }

func (n *LambdaExpr) Replace(name string, repl Expression) Expression {
	if name != "" && n.Param == name {
		return n
	}
	return &LambdaExpr{Header: n.Header, Param: n.Param, Body: n.Body.Replace(name, repl)}
}

func (n *LambdaExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact && isAny(other) {
		return true
	}
	o, ok := other.(*LambdaExpr)
	if !ok {
		return false
	}
	if exact && n.Depth() != o.Depth() {
		return false
	}
	return n.Param == o.Param && n.Body.StructuralEquals(o.Body, exact)
}

// BinaryOpExpr covers every infix operator, including the synthetic "fn"
// juxtaposition operator and the "=" assignment operator (whose LHS shape
// is validated lazily, at evaluation time — see the eval package).
type BinaryOpExpr struct {
	Header
	Op    Operator
	Left  Expression
	Right Expression
}

func NewBinaryOp(c *gc.Collector, pos Position, op Operator, left, right Expression) *BinaryOpExpr {
	n := &BinaryOpExpr{Header: newHeader(pos, left, right), Op: op, Left: left, Right: right}
	c.Register(n)
	return n
}

func (n *BinaryOpExpr) Kind() Kind                   { return KindBinaryOp }
func (n *BinaryOpExpr) MarkChildren(c *gc.Collector) { mark(c, n.Left, n.Right) }
func (n *BinaryOpExpr) Identifiers() []string {
	return unionIdentifiers(n.Left.Identifiers(), n.Right.Identifiers())
}

func (n *BinaryOpExpr) String() string {
	if n.Op == OpFn {
		return "(" + n.Left.String() + " " + n.Right.String() + ")"
	}
	return "(" + n.Left.String() + " " + string(n.Op) + " " + n.Right.String() + ")"
}

func (n *BinaryOpExpr) Replace(name string, repl Expression) Expression {
	return &BinaryOpExpr{Header: n.Header, Op: n.Op, Left: n.Left.Replace(name, repl), Right: n.Right.Replace(name, repl)}
}

func (n *BinaryOpExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact && isAny(other) {
		return true
	}
	o, ok := other.(*BinaryOpExpr)
	if !ok {
		return false
	}
	if exact && n.Depth() != o.Depth() {
		return false
	}
	return n.Op == o.Op && n.Left.StructuralEquals(o.Left, exact) && n.Right.StructuralEquals(o.Right, exact)
}

// UnaryOpExpr is prefix "+" (identity) or "-" (negation).
type UnaryOpExpr struct {
	Header
	Op      Operator
	Operand Expression
}

func NewUnaryOp(c *gc.Collector, pos Position, op Operator, operand Expression) *UnaryOpExpr {
	n := &UnaryOpExpr{Header: newHeader(pos, operand), Op: op, Operand: operand}
	c.Register(n)
	return n
}

func (n *UnaryOpExpr) Kind() Kind                   { return KindUnaryOp }
func (n *UnaryOpExpr) MarkChildren(c *gc.Collector) { mark(c, n.Operand) }
func (n *UnaryOpExpr) Identifiers() []string        { return n.Operand.Identifiers() }
func (n *UnaryOpExpr) String() string               { return string(n.Op) + n.Operand.String() }

func (n *UnaryOpExpr) Replace(name string, repl Expression) Expression {
	return &UnaryOpExpr{Header: n.Header, Op: n.Op, Operand: n.Operand.Replace(name, repl)}
}

func (n *UnaryOpExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact && isAny(other) {
		return true
	}
	o, ok := other.(*UnaryOpExpr)
	if !ok {
		return false
	}
	if exact && n.Depth() != o.Depth() {
		return false
	}
	return n.Op == o.Op && n.Operand.StructuralEquals(o.Operand, exact)
}

// IfExpr is "if Cond then Then else Else". All three branches are
// mandatory; there is no dangling-else in this grammar.
type IfExpr struct {
	Header
	Cond, Then, Else Expression
}

func NewIf(c *gc.Collector, pos Position, cond, then, els Expression) *IfExpr {
	n := &IfExpr{Header: newHeader(pos, cond, then, els), Cond: cond, Then: then, Else: els}
	c.Register(n)
	return n
}

func (n *IfExpr) Kind() Kind                   { return KindIf }
func (n *IfExpr) MarkChildren(c *gc.Collector) { mark(c, n.Cond, n.Then, n.Else) }
func (n *IfExpr) Identifiers() []string {
	return unionIdentifiers(n.Cond.Identifiers(), n.Then.Identifiers(), n.Else.Identifiers())
}
func (n *IfExpr) String() string {
	return "if " + n.Cond.String() + " then " + n.Then.String() + " else " + n.Else.String()
}

func (n *IfExpr) Replace(name string, repl Expression) Expression {
	return &IfExpr{Header: n.Header, Cond: n.Cond.Replace(name, repl), Then: n.Then.Replace(name, repl), Else: n.Else.Replace(name, repl)}
}

func (n *IfExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact && isAny(other) {
		return true
	}
	o, ok := other.(*IfExpr)
	if !ok {
		return false
	}
	if exact && n.Depth() != o.Depth() {
		return false
	}
	return n.Cond.StructuralEquals(o.Cond, exact) && n.Then.StructuralEquals(o.Then, exact) && n.Else.StructuralEquals(o.Else, exact)
}

// LetExpr holds a non-empty ordered list of "=" assignments (each a
// *BinaryOpExpr with Op == OpAssign) evaluated in a fresh child scope,
// followed by a body evaluated in that scope.
type LetExpr struct {
	Header
	Assignments []*BinaryOpExpr
	Body        Expression
}

func NewLet(c *gc.Collector, pos Position, assignments []*BinaryOpExpr, body Expression) *LetExpr {
	children := make([]Expression, 0, len(assignments)+1)
	for _, a := range assignments {
		children = append(children, a)
	}
	children = append(children, body)
	n := &LetExpr{Header: newHeader(pos, children...), Assignments: assignments, Body: body}
	c.Register(n)
	return n
}

func (n *LetExpr) Kind() Kind { return KindLet }

func (n *LetExpr) MarkChildren(c *gc.Collector) {
	for _, a := range n.Assignments {
		c.Mark(a)
	}
	c.Mark(n.Body)
}

func (n *LetExpr) Identifiers() []string {
	lists := make([][]string, 0, len(n.Assignments)+1)
	for _, a := range n.Assignments {
		lists = append(lists, a.Identifiers())
	}
	lists = append(lists, n.Body.Identifiers())
	return unionIdentifiers(lists...)
}

func (n *LetExpr) String() string {
	var parts []string
	for _, a := range n.Assignments {
		parts = append(parts, a.String())
	}
	return "let " + strings.Join(parts, "; ") + " in " + n.Body.String()
}

// bindsName reports whether a pattern expression (the LHS of one of this
// let's assignments) introduces a binder named name: identifier patterns
// bind their own name; atom-constructor and function-definition patterns
// bind every identifier leaf they contain.
func bindsName(lhs Expression, name string) bool {
	if id, ok := lhs.(*IdentifierExpr); ok {
		return id.Name == name
	}
	for _, n := range lhs.Identifiers() {
		if n == name {
			return true
		}
	}
	return false
}

func (n *LetExpr) Replace(name string, repl Expression) Expression {
	shadowed := false
	for _, a := range n.Assignments {
		if bindsName(a.Left, name) {
			shadowed = true
			break
		}
	}
	newAssignments := make([]*BinaryOpExpr, len(n.Assignments))
	for i, a := range n.Assignments {
		newAssignments[i] = &BinaryOpExpr{Header: a.Header, Op: a.Op, Left: a.Left, Right: a.Right.Replace(name, repl)}
	}
	newBody := n.Body
	if !shadowed {
		newBody = n.Body.Replace(name, repl)
	}
	return &LetExpr{Header: n.Header, Assignments: newAssignments, Body: newBody}
}

func (n *LetExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact && isAny(other) {
		return true
	}
	o, ok := other.(*LetExpr)
	if !ok || len(n.Assignments) != len(o.Assignments) {
		return false
	}
	if exact && n.Depth() != o.Depth() {
		return false
	}
	for i := range n.Assignments {
		if !n.Assignments[i].StructuralEquals(o.Assignments[i], exact) {
			return false
		}
	}
	return n.Body.StructuralEquals(o.Body, exact)
}

// FunctionCase is one equation of a multi-case function: a pattern per
// argument position and the body to evaluate when every pattern matches.
type FunctionCase struct {
	Patterns []Expression
	Body     Expression
}

// FunctionExpr collects every equation written for one name into a single
// node. It is never produced by the parser directly; the evaluator's
// assignment handling (eval package, function-definition-pattern case)
// builds the first case into a new FunctionExpr and appends subsequent
// equations via AddCase. All cases must have equal arity.
type FunctionExpr struct {
	Header
	Name  string
	Cases []FunctionCase

	// replacing is the node Replace is building while it walks this
	// function's own case bodies, so a recursive self-reference resolves
	// to it instead of re-entering Replace.
	replacing *FunctionExpr
}

func NewFunction(c *gc.Collector, pos Position, name string, first FunctionCase) *FunctionExpr {
	children := append(append([]Expression{}, first.Patterns...), first.Body)
	n := &FunctionExpr{Header: newHeader(pos, children...), Name: name, Cases: []FunctionCase{first}}
	c.Register(n)
	return n
}

func (n *FunctionExpr) Kind() Kind { return KindFunction }

func (n *FunctionExpr) MarkChildren(c *gc.Collector) {
	for _, cs := range n.Cases {
		for _, p := range cs.Patterns {
			c.Mark(p)
		}
		c.Mark(cs.Body)
	}
}

func (n *FunctionExpr) Identifiers() []string {
	var lists [][]string
	for _, cs := range n.Cases {
		for _, p := range cs.Patterns {
			lists = append(lists, p.Identifiers())
		}
		lists = append(lists, cs.Body.Identifiers())
	}
	return unionIdentifiers(lists...)
}

func (n *FunctionExpr) String() string {
	var parts []string
	for _, cs := range n.Cases {
		var pats []string
		for _, p := range cs.Patterns {
			pats = append(pats, p.String())
		}
		parts = append(parts, n.Name+" "+strings.Join(pats, " ")+" = "+cs.Body.String())
	}
	return strings.Join(parts, "\n")
}

// Arity returns the shared pattern count of every case (zero if the
// function somehow has no cases, which never happens in practice).
func (n *FunctionExpr) Arity() int {
	if len(n.Cases) == 0 {
		return 0
	}
	return len(n.Cases[0].Patterns)
}

// SetCaseBody rewrites the body of case i in place — used once, right
// after a function's first case is built (later cases are rewritten
// before AddCase), to splice in the self-reference rewrite described in §4.4.4: a
// recursive call inside the body is rewritten to point directly at this
// Function node rather than going through an environment lookup.
func (n *FunctionExpr) SetCaseBody(i int, body Expression) {
	n.Cases[i].Body = body
	n.recomputeDepth()
	n.SetLastEval(nil)
}

func (n *FunctionExpr) recomputeDepth() {
	d := 1
	for _, cs := range n.Cases {
		for _, p := range cs.Patterns {
			d += p.Depth()
		}
		d += cs.Body.Depth()
	}
	n.depth = d
}

// AddCase appends another equation. The caller (eval package's assignment
// handling) is responsible for checking arity agreement first; AddCase
// only performs the mutation and the mandatory cache invalidation.
func (n *FunctionExpr) AddCase(patterns []Expression, body Expression) {
	n.Cases = append(n.Cases, FunctionCase{Patterns: patterns, Body: body})
	n.recomputeDepth()
	n.SetLastEval(nil)
}

func (n *FunctionExpr) Replace(name string, repl Expression) Expression {
	if n.replacing != nil {
		return n.replacing
	}
	out := &FunctionExpr{Header: n.Header, Name: n.Name}
	n.replacing = out
	defer func() { n.replacing = nil }()

	newCases := make([]FunctionCase, len(n.Cases))
	for i, cs := range n.Cases {
		shadowed := false
		for _, p := range cs.Patterns {
			if bindsName(p, name) {
				shadowed = true
				break
			}
		}
		body := cs.Body
		if !shadowed {
			body = cs.Body.Replace(name, repl)
		}
		newCases[i] = FunctionCase{Patterns: cs.Patterns, Body: body}
	}
	out.Cases = newCases
	return out
}

func (n *FunctionExpr) StructuralEquals(other Expression, exact bool) bool {
	if !exact && isAny(other) {
		return true
	}
	o, ok := other.(*FunctionExpr)
	if !ok || len(n.Cases) != len(o.Cases) {
		return false
	}
	if o == n {
		// A recursive function's case bodies point back at the function
		// itself; comparing them again would never terminate.
		return true
	}
	for i := range n.Cases {
		if len(n.Cases[i].Patterns) != len(o.Cases[i].Patterns) {
			return false
		}
		for j := range n.Cases[i].Patterns {
			if !n.Cases[i].Patterns[j].StructuralEquals(o.Cases[i].Patterns[j], exact) {
				return false
			}
		}
		if !n.Cases[i].Body.StructuralEquals(o.Cases[i].Body, exact) {
			return false
		}
	}
	return true
}
