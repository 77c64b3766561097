package drift

import (
	"context"
	"os"
	"sync"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/binary"
)

// Checker computes drift results using a Fetcher's planning and local
// checks.
type Checker struct {
	fetcher    *binary.Fetcher
	hashChecks bool
	jobs       int
}

// Option configures a Checker.
type Option func(*Checker)

// WithHashChecks enables hash checks, which download the published digest
// of each tool.
func WithHashChecks(enabled bool) Option {
	return func(c *Checker) { c.hashChecks = enabled }
}

// WithJobs bounds how many tools are checked at once. Values below 1 mean 1.
func WithJobs(n int) Option {
	return func(c *Checker) { c.jobs = n }
}

// NewChecker creates a Checker. f provides the platform and verifier.
func NewChecker(f *binary.Fetcher, opts ...Option) *Checker {
	c := &Checker{fetcher: f, jobs: 1}
	for _, opt := range opts {
		opt(c)
	}
	if c.jobs < 1 {
		c.jobs = 1
	}
	return c
}

// Check classifies one request.
//
// A tool whose executable is absent is MISSING. One that passes its checks
// is OK. One that fails its checks is VERSION_MISMATCH when it reports a
// version different from the declared one, and CHECK_FAILED otherwise,
// including when a check could not be evaluated.
func (c *Checker) Check(ctx context.Context, req binary.FetchRequest) Result {
	res := Result{Tool: req.DisplayName(), WantVersion: req.Version}

	plan, err := c.fetcher.Plan(req)
	if err != nil {
		res.Status = StatusCheckFailed
		res.Err = err
		return res
	}
	res.Path = plan.Path
	res.ActivePath = shadowingExecutable(res.Tool, plan.Path, plan.Extraction.SymlinkPath)

	if _, err := os.Lstat(plan.Path); err != nil {
		res.Status = StatusMissing
		return res
	}

	local := *plan
	local.Checks = c.localChecks(plan.Checks)
	if len(local.Checks) == 0 {
		res.Status = StatusUnverified
		return res
	}

	ok, err := c.fetcher.CheckLocal(ctx, &local)
	if err != nil {
		res.Status = StatusCheckFailed
		res.Err = err
		return res
	}

	vc, hasVersion := versionCheck(local.Checks)
	if hasVersion {
		res.InstalledVersion = installedVersion(ctx, plan.Path, vc)
	}

	switch {
	case ok:
		res.Status = StatusOK
	case hasVersion && res.InstalledVersion != "" && res.InstalledVersion != vc.Version:
		res.Status = StatusVersionMismatch
	default:
		res.Status = StatusCheckFailed
	}
	return res
}

// CheckAll classifies every request, preserving order.
func (c *Checker) CheckAll(ctx context.Context, reqs []binary.FetchRequest) []Result {
	results := make([]Result, len(reqs))
	sem := make(chan struct{}, c.jobs)

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, req binary.FetchRequest) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = c.Check(ctx, req)
		}(i, req)
	}
	wg.Wait()
	return results
}

func (c *Checker) localChecks(checks []binary.Check) []binary.Check {
	if c.hashChecks {
		return checks
	}
	out := make([]binary.Check, 0, len(checks))
	for _, check := range checks {
		if _, ok := check.(binary.HashCheck); ok {
			continue
		}
		out = append(out, check)
	}
	return out
}
