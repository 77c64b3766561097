package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/binary"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/drift"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	hash bool
	jobs int
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [tool...]",
		Short: "Report installed tools that drifted from the catalog",
		Long: `Checks installed executables against the catalog without downloading
them. Hash checks need the published digest and only run with --hash.

Statuses:
  OK                Installed and passes its checks
  VERSION_MISMATCH  Reports a version other than the declared one
  MISSING           Declared but not installed
  CHECK_FAILED      Installed but fails its checks
  UNVERIFIED        Only hash checks are declared and --hash is not set

Exit codes:
  0  No drift detected
  1  One or more tools drifted`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, g, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.hash, "hash", false, "also run hash checks (downloads published digests)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 4, "number of tools checked in parallel")
	return cmd
}

func runCheck(cmd *cobra.Command, g *globalOptions, opts *checkOptions, names []string) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), 2*time.Minute)
	defer cancel()

	out := cmd.OutOrStdout()
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

	reqs, err := cat.Requests(binDir, names...)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Fprintln(out, "No tools declared in catalog.")
		return nil
	}

	fetcher, err := binary.NewFetcher(cat.Platform(), binary.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	checker := drift.NewChecker(fetcher, drift.WithHashChecks(opts.hash), drift.WithJobs(opts.jobs))

	results := checker.CheckAll(ctx, reqs)
	fmt.Fprint(out, drift.FormatDriftReport(results))

	for _, r := range results {
		if r.Drifted() {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "To fix drifts:")
			fmt.Fprintln(out, "  exefetch fetch")
			return &exitError{code: 1}
		}
	}
	return nil
}
