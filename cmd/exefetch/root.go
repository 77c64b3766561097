package main

import (
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	binDir     string
	verbose    bool
	goos       string
	arch       string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "exefetch",
		Short: "exefetch - fetch pinned executables into a bin directory",
		Long: `exefetch downloads the executables declared in a Lua catalog, verifies
them against their declared version and hash, and skips any that are
already installed and pass their checks.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "catalog file (or set "+envConfig+")")
	cmd.PersistentFlags().StringVar(&opts.binDir, "bin-dir", "", "directory executables are installed to (or set EXEFETCH_BIN_DIR)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging and progress events")
	cmd.PersistentFlags().StringVar(&opts.goos, "platform", "", "resolve the catalog for another OS, e.g. darwin")
	cmd.PersistentFlags().StringVar(&opts.arch, "arch", "", "resolve the catalog for another architecture, e.g. arm64")

	cmd.AddCommand(
		newFetchCmd(opts),
		newCheckCmd(opts),
		newListCmd(opts),
		newInitCmd(opts),
		newShellenvCmd(opts),
		newVersionCmd(),
	)
	return cmd
}
