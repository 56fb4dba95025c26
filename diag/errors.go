// errors.go — caret-annotated diagnostic rendering
//
// WHAT THIS MODULE DOES
// ----------------------
// Every diagnostic this interpreter ever prints — lexical, parse, or
// evaluation — goes through Render, which turns a (line, col, message,
// source-lines) tuple into a fixed textual shape:
//
//	<source line(s)>
//	<caret line>
//	<line>:<col>: <message>
//
// A single rendering path is shared by every diagnostic kind, so the
// REPL never has to know whether an error came from the lexer, the
// parser, or the evaluator.
//
// Dependencies
// ------------
//   - lexer.go: *LexError carries {Line, Col, Msg, Lines}.
//   - parser package: *ParseError carries the same shape.
//   - eval package: *EvalError carries the same shape plus no source
//     lines of its own; it is rendered against the Lexer's retained
//     lines, passed in by the REPL driver.
package diag

import (
	"fmt"
	"strconv"
	"strings"
)

// Positioned is implemented by every error kind that carries a source
// location: lexer.LexError, parser.ParseError, eval.EvalError.
type Positioned interface {
	error
	Location() (line, col int)
}

// Render produces the full "<source>\n<carets>\n<line>:<col>: <msg>\n"
// diagnostic text for one error, given the full set of source lines it
// occurred in.
func Render(err error, lines []string) string {
	line, col, msg := locate(err)
	var b strings.Builder

	idx := line - 1
	if idx >= 0 && idx < len(lines) {
		b.WriteString(lines[idx])
		b.WriteString("\n")
		pad := col - 1
		if pad < 0 {
			pad = 0
		}
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString("^\n")
	}
	b.WriteString(strconv.Itoa(line))
	b.WriteString(":")
	b.WriteString(strconv.Itoa(col))
	b.WriteString(": ")
	b.WriteString(msg)
	b.WriteString("\n")
	return b.String()
}

func locate(err error) (int, int, string) {
	if p, ok := err.(Positioned); ok {
		l, c := p.Location()
		return l, c, stripLocation(err.Error())
	}
	return 0, 0, err.Error()
}

// stripLocation removes a leading "line:col: " prefix from an error's own
// Error() text, if present, so Render doesn't print the location twice.
func stripLocation(s string) string {
	for i, r := range s {
		if r == ':' {
			rest := s[i+1:]
			for j, r2 := range rest {
				if r2 == ':' {
					if _, err := strconv.Atoi(s[:i]); err == nil {
						if _, err2 := strconv.Atoi(rest[:j]); err2 == nil {
							return strings.TrimPrefix(rest[j+1:], " ")
						}
					}
					break
				}
				if r2 < '0' || r2 > '9' {
					break
				}
			}
			break
		}
		if r < '0' || r > '9' {
			break
		}
	}
	return s
}

// Plain is an Errorf-style constructor for callers that just want a plain
// message without a source position; Render prints such an error at
// location 0:0 with no source snippet.
func Plain(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
