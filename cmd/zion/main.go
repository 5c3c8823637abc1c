// Command zion is the compiler driver's command-line front end (spec
// §6.1): eight subcommands dispatched through cobra's command tree,
// replacing the teacher's hand-rolled flag+switch dispatch in
// cmd/ailang/main.go now that the surface has grown structured enough to
// want subcommand help, flag inheritance, and shell completion for free.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zion",
		Short:         "Zion compiler front-to-middle end",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newTestCmd(),
		newReadIRCmd(),
		newFindCmd(),
		newCompileCmd(),
		newRunCmd(),
		newObjCmd(),
		newBcCmd(),
		newFmtCmd(),
	)
	return root
}
