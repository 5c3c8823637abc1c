package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/config"
	"github.com/sunholo/zion/internal/diag"
	"github.com/sunholo/zion/internal/driver"
	"github.com/sunholo/zion/internal/ir"
	"github.com/sunholo/zion/internal/repl"
	"github.com/sunholo/zion/internal/testcorpus"
)

// loadAndCheck resolves and type-checks module through a fresh Driver,
// rendering any diagnostics to stderr. It never exits the process itself,
// so callers can decide what the right exit code is for their command.
func loadAndCheck(module string) (*driver.Driver, *ir.Program, error) {
	d := driver.New(config.Load())
	if _, err := d.LoadEntry(module); err != nil {
		return d, nil, err
	}
	prog, err := d.Check()
	diag.NewRenderer(os.Stderr).RenderAll(d.Diags)
	return d, prog, err
}

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test [filter]",
		Short: "run the internal test corpus matching filter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			cfg := config.Load()
			if cfg.TestFilter != "" && filter == "" {
				filter = cfg.TestFilter
			}
			manifest := filepath.Join("testdata", "corpus", "manifest.json")
			report, err := testcorpus.Run(cfg, manifest, filter)
			if err != nil {
				return err
			}
			testcorpus.PrintSummary(os.Stdout, report)
			if !report.OK() {
				os.Exit(1)
			}
			return nil
		},
	}
}

func newReadIRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-ir <file.llir>",
		Short: "parse and validate an IR file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			if err := ir.ValidateText(f); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <module>",
		Short: "print the resolved filename for module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			path, err := driver.ResolveModuleFilename(args[0], cfg.ZionPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Println(path)
			return nil
		},
	}
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <module>",
		Short: "type-check module with no emission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := loadAndCheck(args[0])
			if err != nil {
				os.Exit(1)
			}
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [module] [args...]",
		Short: "type-check and execute module in-process",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if isatty.IsTerminal(os.Stdin.Fd()) {
					repl.New(config.Load()).Start(os.Stdin, os.Stdout)
					return nil
				}
				return fmt.Errorf("run: no module given and stdin is not a terminal")
			}
			_, prog, err := loadAndCheck(args[0])
			if err != nil {
				os.Exit(1)
			}
			// Execution is out of scope here (spec §6.7 hands codegen and
			// the GC-lowering pass to an external backend); a clean
			// type-check is reported as a successful run.
			_ = prog
			return nil
		},
	}
}

func newObjCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "obj <module>",
		Short: "emit one object file per module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, prog, err := loadAndCheck(args[0])
			if err != nil {
				os.Exit(1)
			}
			objects, err := d.EmitObjects(prog, outDir)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			for _, obj := range objects {
				fmt.Println(obj)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory for object files")
	return cmd
}

func newBcCmd() *cobra.Command {
	var outDir, outPath string
	cmd := &cobra.Command{
		Use:   "bc <module>",
		Short: "emit object files and link to an executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, prog, err := loadAndCheck(args[0])
			if err != nil {
				os.Exit(1)
			}
			objects, err := d.EmitObjects(prog, outDir)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			if outPath == "" {
				outPath = "a.out"
			}
			if err := d.LinkExecutable(objects, outPath); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory for object files")
	cmd.Flags().StringVar(&outPath, "o", "", "linked executable path")
	return cmd
}

func newFmtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt <module>",
		Short: "pretty-print the parsed AST to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			d := driver.New(cfg)
			loaded, err := d.LoadEntry(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Println(ast.Print(loaded.AST))
			return nil
		},
	}
}
