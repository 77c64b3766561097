package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/binary"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/config"
	"github.com/spf13/cobra"
)

func newListCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog tools with their URLs for the selected platform",
		Long: `Lists every catalog tool with its declared version, checks, download
URL and install path, resolved for this platform or the one selected with
--platform and --arch.

Examples:
  exefetch list
  exefetch list --platform darwin --arch arm64`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, g)
		},
	}
}

func runList(cmd *cobra.Command, g *globalOptions) error {
	ctx := commandContext(cmd)
	logger := newLogger(cmd.ErrOrStderr(), g.verbose)

	binDir, err := resolveBinDir(g.binDir)
	if err != nil {
		return fmt.Errorf("resolve bin dir: %w", err)
	}

	cat, err := loadCatalog(ctx, g, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer cat.Close()

	info := cat.Platform()
	fetcher, err := binary.NewFetcher(info, binary.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s/%s\n\n", info.OS, info.Arch)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tCHECKS\tURL\tPATH")
	for _, t := range cat.Tools() {
		req, err := cat.Request(t.Name, binDir)
		if err != nil {
			return err
		}
		plan, err := fetcher.Plan(req)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", t.Name, err)
		}
		version := t.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Name, version, checkNames(t), plan.URL, plan.Path)
	}
	return tw.Flush()
}

// checkNames lists the checks declared for t.
func checkNames(t *config.Tool) string {
	var names []string
	if t.HasCustomCheck() {
		names = append(names, "custom")
	}
	if t.Version != "" {
		names = append(names, "version")
	}
	if t.HashURL != "" {
		method := t.HashMethod
		if method == "" {
			method = binary.DefaultHashMethod
		}
		names = append(names, method)
	}
	return strings.Join(names, ",")
}
