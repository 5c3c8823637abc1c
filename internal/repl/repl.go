// Package repl implements the interactive shell behind `zion run` with no
// module argument and stdin attached to a terminal (SPEC_FULL.md's
// "internal/repl (new, supplementing run)"). Unlike the teacher's
// expression-evaluating REPL, there is no JIT to hand submissions to here
// (codegen is out of scope) — each submission is type-checked as a
// throwaway module and the result (success, or every diagnostic) is
// reported, using the same liner-driven prompt loop and history file idiom
// as the teacher's internal/repl.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/check"
	"github.com/sunholo/zion/internal/config"
	"github.com/sunholo/zion/internal/diag"
	"github.com/sunholo/zion/internal/lexer"
	"github.com/sunholo/zion/internal/parser"
	"github.com/sunholo/zion/internal/scope"
	"github.com/sunholo/zion/internal/types"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

// REPL holds the state of one interactive session: a running counter used
// to name each submission its own throwaway module, plus the ambient
// config every submission is checked against.
type REPL struct {
	Config  *config.Config
	history []string
	count   int
}

// New creates a REPL using cfg as the ambient environment snapshot for
// every submission (ZION_PATH, NO_STD_LIB, and friends apply exactly as
// they would to `zion compile`).
func New(cfg *config.Config) *REPL {
	return &REPL{Config: cfg}
}

// Start runs the read-eval-print loop against in/out until EOF or :quit.
func (r *REPL) Start(in io.Reader, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)

	historyFile := filepath.Join(os.TempDir(), ".zion_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(out, "%s\n", bold("zion repl"))
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit."))
	fmt.Fprintln(out)

	line.SetCompleter(func(s string) (c []string) {
		if strings.HasPrefix(s, ":") {
			for _, cmd := range []string{":help", ":quit"} {
				if strings.HasPrefix(cmd, s) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	for {
		input, err := line.Prompt("zion> ")
		if err == io.EOF {
			fmt.Fprintln(out, green("goodbye"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		r.history = append(r.history, input)

		if input == ":quit" || input == ":q" || input == ":exit" {
			fmt.Fprintln(out, green("goodbye"))
			break
		}
		if input == ":help" {
			fmt.Fprintln(out, "Enter a module body (function/type definitions). :quit to exit.")
			continue
		}

		r.checkSubmission(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

// checkSubmission wraps input as a standalone module named "repl_N" and
// runs it through the full lex/parse/check pipeline, printing either a
// success line or every diagnostic produced.
func (r *REPL) checkSubmission(input string, out io.Writer) {
	r.count++
	name := fmt.Sprintf("repl_%d", r.count)

	bag := diag.NewBag()
	src := "module " + name + "\n" + input
	l := lexer.New(src, name, bag)
	p := parser.New(l, bag)
	mod, err := p.Parse()
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("parse error"), err)
		return
	}

	program := scope.NewProgram()
	c := check.New(program, types.NewVarGen(), bag)
	if _, err := c.CheckProgram([]*ast.Module{mod}); err != nil {
		diag.NewRenderer(out).RenderAll(bag)
		return
	}
	fmt.Fprintln(out, green("ok"))
}
