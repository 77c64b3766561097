package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/config"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/shell"
	"github.com/spf13/cobra"
)

type initOptions struct {
	force   bool
	noShell bool
	shell   string
}

func newInitCmd(g *globalOptions) *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default catalog and set up shell integration",
		Long: `Writes the built-in catalog to the catalog path so it can be edited,
creates the bin dir, and adds the shellenv line to your shell rc file.

Examples:
  exefetch init
  exefetch init --shell zsh
  exefetch init --no-shell --config ./catalog.lua`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, g, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing catalog")
	cmd.Flags().BoolVar(&opts.noShell, "no-shell", false, "skip shell integration")
	cmd.Flags().StringVar(&opts.shell, "shell", "", "shell to integrate with (default: detected)")
	return cmd
}

// writeDefaultCatalog writes the built-in catalog to path, creating its
// parent directory. An existing file is kept unless force is set.
func writeDefaultCatalog(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("catalog already exists at %s\nUse --force to overwrite it", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.DefaultCatalog()), 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// setupShellIntegration adds the activation line for shellName, or for the
// detected shell when shellName is empty.
func setupShellIntegration(w io.Writer, shellName string) error {
	manager := shell.NewManager(shell.Config{})
	opts := shell.SetupOptions{Backup: true}

	var (
		result *shell.SetupResult
		err    error
	)
	if shellName != "" {
		result, err = manager.SetupIntegration(shell.ShellType(shellName), opts)
	} else {
		result, err = manager.DetectAndSetup(opts)
	}
	if err != nil {
		return err
	}

	if result.AlreadyPresent {
		fmt.Fprintf(w, "✓ Shell integration already present in %s\n", result.RCFile)
		return nil
	}
	fmt.Fprintf(w, "✓ Added shell integration to %s\n", result.RCFile)
	if result.BackupPath != "" {
		fmt.Fprintf(w, "  Backup saved to: %s\n", result.BackupPath)
	}
	return nil
}

func runInit(cmd *cobra.Command, g *globalOptions, opts *initOptions) error {
	out := cmd.OutOrStdout()

	configPath := g.configPath
	if configPath == "" {
		var err error
		if configPath, err = defaultConfigPath(); err != nil {
			return fmt.Errorf("resolve catalog path: %w", err)
		}
	}
	binDir, err := resolveBinDir(g.binDir)
	if err != nil {
		return fmt.Errorf("resolve bin dir: %w", err)
	}

	fmt.Fprintln(out, "Initializing exefetch...")

	if err := writeDefaultCatalog(configPath, opts.force); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Wrote catalog to %s\n", configPath)

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("create bin dir: %w", err)
	}
	fmt.Fprintf(out, "✓ Created %s\n", binDir)

	if !opts.noShell {
		if err := setupShellIntegration(out, opts.shell); err != nil {
			// Non-fatal; the line can be added by hand.
			fmt.Fprintf(out, "⚠  Shell integration setup failed: %v\n", err)
			fmt.Fprintln(out, "\nYou can manually add this to your shell rc file:")
			fmt.Fprintln(out, `  eval "$(exefetch shellenv bash)"  # or zsh; fish: exefetch shellenv fish | source`)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Edit the catalog to declare your tools")
	fmt.Fprintln(out, "  2. Run: exefetch fetch")
	fmt.Fprintln(out, "  3. Restart your shell so the bin dir is on PATH")
	return nil
}
