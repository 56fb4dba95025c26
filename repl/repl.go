// repl.go — the read-eval-print driver (§6.4, §6.5, §7)
//
// This package owns no language semantics of its own, only the loop that
// feeds source text through one shared Lexer + Parser + Evaluator per
// top-level expression and renders results or diagnostics. A Session is
// the persistent global environment plus collector that state survives
// across every expression fed to it: state carried between expressions
// is limited to the global binding environment.
package repl

import (
	"fmt"
	"io"

	"github.com/codefionn/functional-lang/ast"
	"github.com/codefionn/functional-lang/diag"
	"github.com/codefionn/functional-lang/env"
	"github.com/codefionn/functional-lang/eval"
	"github.com/codefionn/functional-lang/gc"
	"github.com/codefionn/functional-lang/lexer"
	"github.com/codefionn/functional-lang/parser"
)

// Prompt strings, per §6.5.
const (
	PromptMain = "> "
	PromptCont = ".."
)

// Session is one persistent global environment, collector, and evaluator
// shared across every expression read from whatever source the caller
// supplies — a file, standard input, or both in sequence.
type Session struct {
	GC     *gc.Collector
	Global *env.Environment
	Eval   *eval.Evaluator
}

// NewSession creates a fresh global scope and collector. out receives
// "print"/"time" built-in output.
func NewSession(out eval.Writer) *Session {
	gcol := gc.New()
	global := env.New(gcol)
	return &Session{GC: gcol, Global: global, Eval: eval.New(gcol, out)}
}

// isAssignment reports whether result is the (unchanged) node an
// assignment evaluates to — §6.5 and the scenario in §8.2.3 both require
// assignments to print nothing.
func isAssignment(result ast.Expression) bool {
	bo, ok := result.(*ast.BinaryOpExpr)
	return ok && bo.Op == ast.OpAssign
}

// RunSource feeds the entirety of src through one parser, evaluating and
// printing each top-level expression in turn, with no prompts — used for
// file-mode execution (§6.4). It reports every diagnostic to errOut and
// continues with the next top-level expression after an error, matching
// the REPL's own error-recovery discipline (§7); it returns false if any
// diagnostic was reported.
func (s *Session) RunSource(src string, out, errOut io.Writer) bool {
	lex := lexer.New(src)
	p := parser.New(lex, s.GC, s.Global, func(expr ast.Expression, scope *env.Environment) (ast.Expression, error) {
		return s.Eval.EvaluateToFixpoint(scope, expr)
	})

	ok := true
	for {
		expr, err := p.ParseOne()
		if err == parser.ErrEOF {
			return ok
		}
		if err != nil {
			fmt.Fprint(errOut, diag.Render(err, lex.Lines()))
			fmt.Fprintln(errOut, "Error.")
			ok = false
			continue
		}
		result, err := s.Eval.EvaluateToFixpoint(s.Global, expr)
		if err != nil {
			fmt.Fprint(errOut, diag.Render(err, lex.Lines()))
			fmt.Fprintln(errOut, "Error.")
			ok = false
			continue
		}
		if !isAssignment(result) {
			fmt.Fprintln(out, "=> "+result.String())
		}
	}
}

// LineReader is the narrow interface the interactive driver needs from a
// line-editing library — satisfied by *liner.State's Prompt method.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// RunInteractive drives the REPL loop against a LineReader (normally
// peterh/liner): it prompts "> ", accumulates continuation lines behind
// ".." while a parse is still incomplete (§6.5), evaluates the completed
// expression, and prints its result or a diagnostic before looping back
// for the next one. It returns when the reader signals end-of-input
// (io.EOF), never reporting that as a failure (§6.4: "exit quietly").
func (s *Session) RunInteractive(lr LineReader, out, errOut io.Writer, onAccepted func(src string)) {
	for {
		expr, src, lines, err, ok := s.readOne(lr)
		if !ok {
			return
		}
		if onAccepted != nil {
			onAccepted(src)
		}
		if err != nil {
			if err == parser.ErrEOF {
				continue
			}
			fmt.Fprint(errOut, diag.Render(err, lines))
			fmt.Fprintln(errOut, "Error.")
			continue
		}

		result, err := s.Eval.EvaluateToFixpoint(s.Global, expr)
		if err != nil {
			fmt.Fprint(errOut, diag.Render(err, lines))
			fmt.Fprintln(errOut, "Error.")
			continue
		}
		if !isAssignment(result) {
			fmt.Fprintln(out, "=> "+result.String())
		}
	}
}

// readOne accumulates lines from lr, reparsing the whole buffer after
// each one, until a parse attempt either succeeds or fails with a genuine
// (non-incomplete) error — the same "keep reparsing from scratch"
// strategy this grammar's non-incremental lexer/parser requires. A
// reader-level io.EOF (Ctrl+D) before any line has been accepted reports
// ok=false; once at least one line has been read, io.EOF mid-construct
// is reported as the parser's own trailing error instead of looping
// forever.
func (s *Session) readOne(lr LineReader) (expr ast.Expression, src string, lines []string, err error, ok bool) {
	var buf string
	prompt := PromptMain
	for {
		line, rerr := lr.Prompt(prompt)
		if rerr != nil {
			if buf == "" {
				return nil, "", nil, nil, false
			}
			return s.parseOnce(buf)
		}
		if buf != "" {
			buf += "\n"
		}
		buf += line
		prompt = PromptCont

		e, ln, perr, incomplete := s.tryParse(buf)
		if !incomplete {
			return e, buf, ln, perr, true
		}
	}
}

func (s *Session) parseOnce(buf string) (ast.Expression, string, []string, error, bool) {
	e, ln, err, _ := s.tryParse(buf)
	return e, buf, ln, err, true
}

// tryParse runs one full parse of buf and reports whether the failure (if
// any) is an incomplete-input signal a continuation line should resolve.
func (s *Session) tryParse(buf string) (ast.Expression, []string, error, bool) {
	lex := lexer.New(buf)
	p := parser.New(lex, s.GC, s.Global, func(expr ast.Expression, scope *env.Environment) (ast.Expression, error) {
		return s.Eval.EvaluateToFixpoint(scope, expr)
	})
	expr, err := p.ParseOne()
	if err != nil && err != parser.ErrEOF && parser.IsIncomplete(err) {
		return nil, lex.Lines(), err, true
	}
	return expr, lex.Lines(), err, false
}
