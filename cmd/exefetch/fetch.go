package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/binary"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/report"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/transaction"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// DefaultFetchTimeout bounds a whole fetch command.
const DefaultFetchTimeout = 30 * time.Minute

type fetchOptions struct {
	jobs        int
	json        bool
	lock        bool
	retryFailed bool
}

func newFetchCmd(g *globalOptions) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch [tool...]",
		Short: "Install catalog tools, skipping those that are up to date",
		Long: `Installs the named tools, or every tool in the catalog when none are
named. A tool whose installed executable passes its checks is not
downloaded again.

Examples:
  exefetch fetch
  exefetch fetch kubectl helm
  exefetch fetch --jobs 4 --lock
  exefetch fetch --retry-failed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, g, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 1, "number of tools fetched in parallel")
	cmd.Flags().BoolVar(&opts.json, "json", false, "emit events as JSON lines")
	cmd.Flags().BoolVar(&opts.lock, "lock", false, "hold a lock file next to each target while fetching it")
	cmd.Flags().BoolVar(&opts.retryFailed, "retry-failed", false, "fetch only the tools the previous run did not finish")
	return cmd
}

// fetchOutcome is the result of one tool in a fetch run.
type fetchOutcome struct {
	name   string
	result *binary.Result
	err    error
}

func runFetch(cmd *cobra.Command, g *globalOptions, opts *fetchOptions, names []string) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), DefaultFetchTimeout)
	defer cancel()

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger := newLogger(stderr, g.verbose)

	binDir, err := resolveBinDir(g.binDir)
	if err != nil {
		return fmt.Errorf("resolve bin dir: %w", err)
	}
	stateDir, err := resolveStateDir()
	if err != nil {
		return fmt.Errorf("resolve state dir: %w", err)
	}

	if opts.retryFailed {
		if len(names) > 0 {
			return fmt.Errorf("--retry-failed cannot be combined with tool names")
		}
		prev, err := transaction.LoadLatest(stateDir)
		if errors.Is(err, transaction.ErrNoRuns) {
			return fmt.Errorf("no previous run to retry")
		}
		if err != nil {
			return fmt.Errorf("load previous run: %w", err)
		}
		names = prev.Unfinished()
		if len(names) == 0 {
			fmt.Fprintln(stdout, "Nothing to retry: the previous run finished every tool.")
			return nil
		}
		logger.Debug("retrying unfinished tools", "run", prev.ID, "tools", names)
	}

	cat, err := loadCatalog(ctx, g, logger, stderr)
	if err != nil {
		return err
	}
	defer cat.Close()

	reqs, err := cat.Requests(binDir, names...)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Fprintln(stdout, "No tools declared in catalog.")
		return nil
	}

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("create bin dir: %w", err)
	}

	fetcher, err := binary.NewFetcher(cat.Platform(),
		binary.WithLogger(logger),
		binary.WithReporter(newReporter(stdout, stderr, g.verbose, opts.json)),
		binary.WithTargetLock(opts.lock),
	)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}

	toolNames := make([]string, len(reqs))
	for i, req := range reqs {
		toolNames[i] = req.DisplayName()
	}
	run := transaction.NewRun(toolNames)
	if err := run.Save(stateDir); err != nil {
		logger.Warn("could not record run", "error", err)
	}

	outcomes := fetchAll(ctx, fetcher, reqs, opts.jobs, run)

	if err := run.Save(stateDir); err != nil {
		logger.Warn("could not record run", "error", err)
	}

	failed := 0
	for _, o := range outcomes {
		if o.err == nil {
			continue
		}
		failed++
		if !opts.json {
			fmt.Fprintf(stderr, "%s %s: %v\n", color.New(color.FgRed).Sprint("✗"), o.name, o.err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tools failed; rerun with --retry-failed", failed, len(outcomes))
	}
	return nil
}

// fetchAll fetches reqs with at most jobs in flight, recording each outcome
// in run. Outcomes keep the order of reqs.
func fetchAll(ctx context.Context, f *binary.Fetcher, reqs []binary.FetchRequest, jobs int, run *transaction.Run) []fetchOutcome {
	if jobs < 1 {
		jobs = 1
	}
	outcomes := make([]fetchOutcome, len(reqs))
	sem := make(chan struct{}, jobs)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i, req := range reqs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, req binary.FetchRequest) {
			defer wg.Done()
			defer func() { <-sem }()

			name := req.DisplayName()
			mu.Lock()
			run.Update(name, transaction.StateInProgress, "", 0, nil)
			mu.Unlock()

			res, err := f.Fetch(ctx, req)
			outcomes[i] = fetchOutcome{name: name, result: res, err: err}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				run.Update(name, transaction.StateFailed, "", 0, err)
			case res.Skipped:
				run.Update(name, transaction.StateSkipped, res.Path, 0, nil)
			default:
				run.Update(name, transaction.StateCompleted, res.Path, res.Bytes, nil)
			}
		}(i, req)
	}
	wg.Wait()
	return outcomes
}

// newReporter picks the event sinks: JSON lines, or console lines plus a
// progress bar when stderr is a terminal.
func newReporter(stdout, stderr io.Writer, verbose, jsonOut bool) report.Reporter {
	if jsonOut {
		return report.NewJSON(stdout)
	}
	console := report.NewConsole(stdout, verbose, isTerminal(stdout) && !color.NoColor)
	if !verbose && isTerminal(stderr) {
		return report.Multi(console, report.NewBar(stderr))
	}
	return console
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
