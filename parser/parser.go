// parser.go — Pratt parser producing the expression tree
//
// OVERVIEW
// --------
// One Parser consumes one Lexer and produces one Expression per
// top-level line via ParseOne, which the driver calls in a loop. The
// precedence table (lowest to highest) is:
//
//	1  =                (left-assoc)
//	2  && ||
//	3  == <= >= < >
//	4  + -
//	5  * /
//	6  ^
//	7  juxtaposition     (the synthetic "fn" operator; tightest, left-assoc)
//
// Juxtaposition has no token of its own: whenever the parser finishes one
// primary and the next token can itself start a primary, it folds the two
// together as fn(left, right) and keeps going, left-associatively. This
// is what turns "f x y" into application, ".pair x y" into a data
// constructor, and "f x = body" (on the LHS of "=") into a
// function-definition pattern — the parser treats all three identically;
// distinguishing them is deferred to evaluation time (see the eval
// package's assignment handling).
//
// $-splice. "$expr" evaluates expr immediately, at parse time, against
// the Parser's current environment, and splices the resulting value into
// the tree in expr's place. The Parser never evaluates anything else
// itself; this one exception is wired through the EvalSplice callback
// supplied by the caller (the REPL driver), keeping this package free of
// a direct import on the eval package and avoiding any import cycle.
//
// Dependencies
// ------------
//   - lexer package: token stream.
//   - ast package: node constructors; every node this parser builds is
//     registered with the same gc.Collector the caller owns.
//   - env package: only used to evaluate $-splices in the caller's scope.
package parser

import (
	"errors"
	"fmt"

	"github.com/codefionn/functional-lang/ast"
	"github.com/codefionn/functional-lang/env"
	"github.com/codefionn/functional-lang/gc"
	"github.com/codefionn/functional-lang/lexer"
)

// ErrEOF is returned by ParseOne when the lexer has no more top-level
// expressions to offer. The REPL driver treats this as "exit quietly".
var ErrEOF = errors.New("end of input")

// ParseError is a structured parse diagnostic, rendered the same way as
// lexer.LexError (see the diag package).
type ParseError struct {
	Line, Col int
	Msg       string
	Lines     []string
	// FoundKind is the token kind that triggered this error. An
	// interactive driver uses it (via IsIncomplete) to tell "ran out of
	// input mid-construct, ask for a continuation line" apart from a
	// genuine syntax error.
	FoundKind lexer.Kind
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Location implements diag.Positioned.
func (e *ParseError) Location() (int, int) { return e.Line, e.Col }

// IsIncomplete reports whether err is a ParseError that ran out of input
// (found EOF) rather than finding a genuinely unexpected token — the
// signal an interactive driver uses to print a continuation prompt and
// read another line instead of reporting a failure.
func IsIncomplete(err error) bool {
	pe, ok := err.(*ParseError)
	return ok && pe.FoundKind == lexer.EOF
}

// EvalSplice evaluates expr (fully, to a fixpoint) against scope and
// returns the result, used only for "$expr". Supplied by the caller; the
// eval package's Evaluator.EvaluateToFixpoint has exactly this shape.
type EvalSplice func(expr ast.Expression, scope *env.Environment) (ast.Expression, error)

// Parser consumes one Lexer and one gc.Collector and builds Expression
// trees rooted in the given Environment (used only for splice
// evaluation; ordinary parsing never touches env).
type Parser struct {
	lex  *lexer.Lexer
	gcol *gc.Collector
	scope *env.Environment
	eval EvalSplice

	cur    lexer.Token
	curSet bool

	skipNewline bool
	// OnContinuation, if set, is invoked once per suppressed newline
	// while skipNewline is active — the REPL driver uses it to print its
	// ".." continuation prompt.
	OnContinuation func()
}

// New creates a parser. scope and eval may be nil if the caller never
// expects to parse a "$expr" splice (eval will be invoked lazily only
// when one is encountered).
func New(lex *lexer.Lexer, gcol *gc.Collector, scope *env.Environment, eval EvalSplice) *Parser {
	return &Parser{lex: lex, gcol: gcol, scope: scope, eval: eval}
}

func (p *Parser) setSkipNewline(skip bool) (restore func()) {
	prev := p.skipNewline
	p.skipNewline = skip
	p.lex.SetSkipNewline(skip, func() {
		if p.OnContinuation != nil {
			p.OnContinuation()
		}
	})
	return func() {
		p.skipNewline = prev
		p.lex.SetSkipNewline(prev, func() {
			if p.OnContinuation != nil {
				p.OnContinuation()
			}
		})
	}
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	p.curSet = true
	return nil
}

func (p *Parser) peek() lexer.Token {
	if !p.curSet {
		_ = p.advance()
	}
	return p.cur
}

func (p *Parser) errf(format string, args ...interface{}) error {
	tok := p.peek()
	return &ParseError{Line: tok.Pos.Line, Col: tok.Pos.Col, Msg: fmt.Sprintf(format, args...), Lines: p.lex.Lines(), FoundKind: tok.Kind}
}

func (p *Parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	tok := p.peek()
	if tok.Kind != k {
		return tok, p.errf("expected %s, found %s", what, tok.Kind)
	}
	_ = p.advance()
	return tok, nil
}

func pos(t lexer.Token) ast.Position {
	return ast.Position{ByteStart: t.Pos.ByteStart, ByteEnd: t.Pos.ByteEnd, LineStart: t.Pos.Line, LineEnd: t.Pos.Line, ColStart: t.Pos.Col, ColEnd: t.Pos.Col}
}

// ParseOne consumes and skips any number of blank top-level lines, then
// parses one top-level expression and consumes its terminating newline
// (or EOF). It returns ErrEOF once the lexer is exhausted.
func (p *Parser) ParseOne() (ast.Expression, error) {
	for {
		tok := p.peek()
		if tok.Kind == lexer.EOF {
			return nil, ErrEOF
		}
		if tok.Kind == lexer.NEWLINE {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	expr, err := p.parseAssign()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.Kind != lexer.NEWLINE && tok.Kind != lexer.EOF {
		return nil, p.errf("unexpected trailing token %s", tok.Kind)
	}
	if tok.Kind == lexer.NEWLINE {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return ast.Optimize(p.gcol, expr), nil
}

// ---- precedence climbing ----

type assoc int

const prec1Assign = 1
const precAndOr = 2
const precCompare = 3
const precAddSub = 4
const precMulDiv = 5
const precPow = 6

func infixOp(k lexer.Kind) (ast.Operator, int, bool) {
	switch k {
	case lexer.ASSIGN:
		return ast.OpAssign, prec1Assign, true
	case lexer.AND:
		return ast.OpAnd, precAndOr, true
	case lexer.OR:
		return ast.OpOr, precAndOr, true
	case lexer.EQ:
		return ast.OpEq, precCompare, true
	case lexer.LE:
		return ast.OpLe, precCompare, true
	case lexer.GE:
		return ast.OpGe, precCompare, true
	case lexer.LT:
		return ast.OpLt, precCompare, true
	case lexer.GT:
		return ast.OpGt, precCompare, true
	case lexer.PLUS:
		return ast.OpAdd, precAddSub, true
	case lexer.MINUS:
		return ast.OpSub, precAddSub, true
	case lexer.STAR:
		return ast.OpMul, precMulDiv, true
	case lexer.SLASH:
		return ast.OpDiv, precMulDiv, true
	case lexer.CARET:
		return ast.OpPow, precPow, true
	default:
		return "", 0, false
	}
}

// parseAssign is the entry point: precedence level 1 ("=").
func (p *Parser) parseAssign() (ast.Expression, error) {
	return p.parseBinary(prec1Assign)
}

func (p *Parser) parseBinary(minPrec int) (ast.Expression, error) {
	left, err := p.parseApplication()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		op, prec, _ := infixOp(tok.Kind)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(p.gcol, pos(tok), op, left, right)
	}
}

// startsPrimary reports whether k can begin a primary expression — used
// to decide whether juxtaposition continues. MINUS/PLUS are deliberately
// excluded: they are also binary infix operators at precAddSub, and
// "f -x" is ambiguous between application-to-a-negated-operand and
// subtraction. Treating a leading "-"/"+" as continuing juxtaposition
// (as opposed to letting parseBinary's infix loop claim it) is not what
// this grammar does: "f -x" parses as "f - x", matching the source
// language's own primary-token set, which never includes the operator
// token kind. A negated argument must be parenthesized: "f (-x)".
func startsPrimary(k lexer.Kind) bool {
	switch k {
	case lexer.IDENTIFIER, lexer.INTEGER, lexer.NUMBER, lexer.LPAREN,
		lexer.BACKSLASH, lexer.DOT, lexer.DOLLAR, lexer.UNDERSCORE,
		lexer.IF, lexer.LET:
		return true
	default:
		return false
	}
}

// parseApplication implements level 7: juxtaposition, left-associative
// and tightest-binding. "f x y" parses as fn(fn(f, x), y).
func (p *Parser) parseApplication() (ast.Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for startsPrimary(p.peek().Kind) {
		startTok := p.peek()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(p.gcol, pos(startTok), ast.OpFn, left, right)
	}
	return left, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.peek()

	switch tok.Kind {
	case lexer.MINUS, lexer.PLUS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		op := ast.OpAdd
		if tok.Kind == lexer.MINUS {
			op = ast.OpSub
		}
		return ast.NewUnaryOp(p.gcol, pos(tok), op, operand), nil

	case lexer.IDENTIFIER:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewIdentifier(p.gcol, pos(tok), tok.Text), nil

	case lexer.INTEGER:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewInteger(p.gcol, pos(tok), tok.Integer), nil

	case lexer.NUMBER:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewNumber(p.gcol, pos(tok), tok.Number), nil

	case lexer.UNDERSCORE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewAny(p.gcol, pos(tok)), nil

	case lexer.DOT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expect(lexer.IDENTIFIER, "identifier after '.'")
		if err != nil {
			return nil, err
		}
		return ast.NewAtom(p.gcol, pos(tok), name.Text), nil

	case lexer.BACKSLASH:
		return p.parseLambda()

	case lexer.DOLLAR:
		return p.parseSplice()

	case lexer.IF:
		return p.parseIf()

	case lexer.LET:
		return p.parseLet()

	case lexer.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		restore := p.setSkipNewline(true)
		inner, err := p.parseAssign()
		if err != nil {
			restore()
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			restore()
			return nil, err
		}
		restore()
		return inner, nil
	}

	return nil, p.errf("unexpected token %s", tok.Kind)
}

func (p *Parser) parseLambda() (ast.Expression, error) {
	start := p.peek()
	if err := p.advance(); err != nil { // consume '\'
		return nil, err
	}
	param, err := p.expect(lexer.IDENTIFIER, "parameter name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ASSIGN, "'='"); err != nil {
		return nil, err
	}
	restore := p.setSkipNewline(true)
	body, err := p.parseAssign()
	restore()
	if err != nil {
		return nil, err
	}
	return ast.NewLambda(p.gcol, pos(start), param.Text, body), nil
}

func (p *Parser) parseSplice() (ast.Expression, error) {
	start := p.peek()
	if err := p.advance(); err != nil { // consume '$'
		return nil, err
	}
	operand, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.eval == nil {
		return nil, p.errf("'$' splice is not supported in this context")
	}
	result, err := p.eval(operand, p.scope)
	if err != nil {
		return nil, &ParseError{Line: pos(start).LineStart, Col: pos(start).ColStart, Msg: "splice evaluation failed: " + err.Error(), Lines: p.lex.Lines(), FoundKind: lexer.DOLLAR}
	}
	return result, nil
}

func (p *Parser) parseIf() (ast.Expression, error) {
	start := p.peek()
	if err := p.advance(); err != nil { // consume 'if'
		return nil, err
	}
	restore := p.setSkipNewline(true)
	cond, err := p.parseAssign()
	if err != nil {
		restore()
		return nil, err
	}
	if _, err := p.expect(lexer.THEN, "'then'"); err != nil {
		restore()
		return nil, err
	}
	thenB, err := p.parseAssign()
	if err != nil {
		restore()
		return nil, err
	}
	if _, err := p.expect(lexer.ELSE, "'else'"); err != nil {
		restore()
		return nil, err
	}
	elseB, err := p.parseAssign()
	restore()
	if err != nil {
		return nil, err
	}
	return ast.NewIf(p.gcol, pos(start), cond, thenB, elseB), nil
}

func (p *Parser) parseLet() (ast.Expression, error) {
	start := p.peek()
	if err := p.advance(); err != nil { // consume 'let'
		return nil, err
	}
	restore := p.setSkipNewline(true)

	var assigns []*ast.BinaryOpExpr
	for {
		asg, err := p.parseAssign()
		if err != nil {
			restore()
			return nil, err
		}
		bo, ok := asg.(*ast.BinaryOpExpr)
		if !ok || bo.Op != ast.OpAssign {
			restore()
			return nil, p.errf("expected an assignment in let binding")
		}
		assigns = append(assigns, bo)

		tok := p.peek()
		if tok.Kind == lexer.SEMI {
			if err := p.advance(); err != nil {
				restore()
				return nil, err
			}
			// A trailing separator before 'in' is accepted.
			if p.peek().Kind == lexer.IN {
				break
			}
			continue
		}
		break
	}

	if _, err := p.expect(lexer.IN, "'in'"); err != nil {
		restore()
		return nil, err
	}
	restore()

	body, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return ast.NewLet(p.gcol, pos(start), assigns, body), nil
}
