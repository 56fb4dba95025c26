// Command functional is the CLI driver (§6.4): 0 or 1 positional
// argument, exit code 0 on success and 1 on any reported error, optional
// file-mode execution falling through into interactive mode afterward.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/codefionn/functional-lang/repl"
)

const historyFileName = ".functional_history"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [file]\n", filepath.Base(os.Args[0]))
		return 1
	}

	sess := repl.NewSession(os.Stdout)
	ok := true

	if len(os.Args) == 2 {
		path := os.Args[1]
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", filepath.Base(os.Args[0]), path, err)
			return 1
		}
		ok = sess.RunSource(string(src), os.Stdout, os.Stderr)
		if !ok {
			return 1
		}
	}

	if isatty.IsTerminal(os.Stdin.Fd()) {
		runLiner(sess)
	} else {
		runPiped(sess)
	}
	return 0
}

// runLiner drives the REPL against a real terminal: line editing and
// persistent history via peterh/liner.
func runLiner(sess *repl.Session) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			f.Close()
		}
	}()

	sess.RunInteractive(ln, os.Stdout, os.Stderr, func(src string) {
		ln.AppendHistory(src)
	})
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFileName
	}
	return filepath.Join(home, historyFileName)
}

// runPiped drives the same REPL loop over non-interactive input (a pipe
// or redirected file): prompts are still emitted in the same fixed
// format, but there is no line editor backing the reads.
func runPiped(sess *repl.Session) {
	sess.RunInteractive(&scannerReader{s: bufio.NewScanner(os.Stdin)}, os.Stdout, os.Stderr, nil)
}

// scannerReader adapts a bufio.Scanner to repl.LineReader for
// non-interactive input; it still writes the prompt text (the same
// format applies regardless of whether a human is watching) but without
// any editing or history.
type scannerReader struct {
	s *bufio.Scanner
}

func (r *scannerReader) Prompt(prompt string) (string, error) {
	fmt.Print(prompt)
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.s.Text(), nil
}
