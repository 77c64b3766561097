package main

import (
	"fmt"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/shell"
	"github.com/spf13/cobra"
)

func newShellenvCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shellenv <shell>",
		Short: "Print shell code that puts the bin dir on PATH (bash, zsh, fish)",
		Long: `Prints shell code that prepends the exefetch bin dir to PATH. Add the
output to your shell with:

  bash/zsh:  eval "$(exefetch shellenv bash)"
  fish:      exefetch shellenv fish | source`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shellType := shell.ShellType(args[0])
			if err := shell.ValidateShell(shellType); err != nil {
				return err
			}

			binDir, err := resolveBinDir(g.binDir)
			if err != nil {
				return fmt.Errorf("resolve bin dir: %w", err)
			}

			script, err := shell.PathScript(shellType, binDir)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), script)
			return nil
		},
	}
}
