package binary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/platform"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/report"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/template"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/transaction"
)

// Plan is a FetchRequest with every template expanded for one platform.
type Plan struct {
	Name string
	URL  string
	// Target is the request target: the executable, or the extraction
	// directory in directory mode.
	Target string
	// Path is the executable that checks run against.
	Path       string
	Checks     []Check
	Extraction ExtractionSpec
}

// Resolve validates req and expands its templates with ctx. Errors are
// ErrConfiguration or ErrTemplate.
func Resolve(req FetchRequest, ctx template.Context) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	name := req.DisplayName()
	format := func(field, tmpl string) (string, error) {
		if tmpl == "" {
			return "", nil
		}
		s, err := template.Format(tmpl, ctx)
		if err != nil {
			return "", fmt.Errorf("%s: format %s: %w", name, field, err)
		}
		return s, nil
	}

	plan := &Plan{Name: name, Target: req.Target, Path: req.Target}

	var err error
	if plan.URL, err = format("url", req.URL); err != nil {
		return nil, err
	}

	plan.Checks = make([]Check, 0, len(req.Checks))
	for _, c := range req.Checks {
		if h, ok := c.(HashCheck); ok {
			if h.RemoteHashURL, err = format("hash url", h.RemoteHashURL); err != nil {
				return nil, err
			}
			if h.ChecksumFileEntryPath, err = format("checksum entry", h.ChecksumFileEntryPath); err != nil {
				return nil, err
			}
			c = h
		}
		plan.Checks = append(plan.Checks, c)
	}

	e := req.Extraction
	for _, f := range []struct {
		field string
		value *string
	}{
		{"path in tar", &e.PathInTar},
		{"path in zip", &e.PathInZip},
		{"directory in tar", &e.DirectoryInTar},
		{"executable sub path", &e.ExecutableSubPath},
	} {
		if *f.value, err = format(f.field, *f.value); err != nil {
			return nil, err
		}
	}
	plan.Extraction = e

	if e.DirectoryMode() {
		plan.Path = filepath.Join(req.Target, filepath.FromSlash(e.ExecutableSubPath))
	}
	return plan, nil
}

// Fetcher installs executables described by FetchRequests.
//
// A Fetcher is safe for concurrent use on different targets. Concurrent
// fetches of the same target must be serialized by the caller, or by
// enabling WithTargetLock.
type Fetcher struct {
	platform   *platform.Info
	downloader *Downloader
	verifier   *Verifier
	logger     Logger
	reporter   report.Reporter
	lockTarget bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithReporter sets the default reporter for requests that have none.
func WithReporter(r report.Reporter) Option {
	return func(f *Fetcher) { f.reporter = r }
}

// WithDownloader replaces the default downloader.
func WithDownloader(d *Downloader) Option {
	return func(f *Fetcher) { f.downloader = d }
}

// WithTargetLock makes Fetch hold an exclusive lock file next to the target
// for its duration. A concurrent Fetch of the same target then fails with
// transaction.ErrLockExists.
func WithTargetLock(enabled bool) Option {
	return func(f *Fetcher) { f.lockTarget = enabled }
}

// NewFetcher creates a Fetcher for the platform described by info.
func NewFetcher(info *platform.Info, opts ...Option) (*Fetcher, error) {
	if info == nil {
		return nil, fmt.Errorf("platform info is required")
	}

	f := &Fetcher{
		platform: info,
		logger:   noopLogger{},
		reporter: report.Nop{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.downloader == nil {
		f.downloader = NewDownloader()
	}
	f.verifier = NewVerifier(f.downloader, f.logger)
	return f, nil
}

// Plan resolves req for the Fetcher's platform.
func (f *Fetcher) Plan(req FetchRequest) (*Plan, error) {
	return Resolve(req, f.platform.Placeholders(req.Version))
}

// CheckLocal reports whether the executable described by plan is already
// installed and passes its checks. It never downloads the executable
// itself; hash checks still fetch their remote digest.
func (f *Fetcher) CheckLocal(ctx context.Context, plan *Plan) (bool, error) {
	if !exists(plan.Path) {
		return false, nil
	}

	ok, err := f.verifier.Verify(ctx, plan.Checks, plan.Path)
	if err != nil || !ok {
		return false, err
	}

	if link := plan.Extraction.SymlinkPath; link != "" {
		if !exists(link) {
			f.logger.Debug("symlink missing", "name", plan.Name, "symlink", link)
			return false, nil
		}
		return f.verifier.Verify(ctx, plan.Checks, link)
	}
	return true, nil
}

// Fetch makes sure the executable described by req is installed.
//
// If the installed file already passes its checks nothing is downloaded and
// Result.Skipped is true. Otherwise the URL is downloaded, saved through
// the extraction pipeline, made executable and checked again; a failure of
// that last check is ErrVerificationFailedAfterFetch. Nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, req FetchRequest) (*Result, error) {
	start := time.Now()

	plan, err := f.Plan(req)
	if err != nil {
		return nil, err
	}

	rep := req.Reporter
	if rep == nil {
		rep = f.reporter
	}

	if f.lockTarget {
		lock, err := transaction.AcquireTargetLock(ctx, plan.Target)
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", plan.Target, err)
		}
		defer lock.Release()
	}

	result := &Result{Name: plan.Name, Path: plan.Path, URL: plan.URL}

	ok, err := f.CheckLocal(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("check installed %s: %w", plan.Name, err)
	}
	if ok {
		f.logger.Debug("executable is ok, skipping download", "name", plan.Name, "path", plan.Path)
		rep.Report(report.Event{
			Message: fmt.Sprintf("%s is up to date at %s", plan.Name, plan.Path),
			Kind:    report.KindExecutableIsOK,
			Target:  plan.Path,
		})
		result.Skipped = true
		result.Elapsed = time.Since(start)
		return result, nil
	}

	rep.Report(report.Event{
		Message: fmt.Sprintf("fetching %s from %s", plan.Name, plan.URL),
		Kind:    report.KindFetching,
		Target:  plan.Path,
	})
	f.logger.Debug("downloading", "name", plan.Name, "url", plan.URL)

	// Once fetching was announced every error is announced too, so watchers
	// can close whatever they opened for this target.
	fail := func(err error) (*Result, error) {
		rep.Report(report.Event{
			Message: fmt.Sprintf("fetching %s failed: %v", plan.Name, err),
			Kind:    report.KindFailed,
			Target:  plan.Path,
		})
		return nil, err
	}

	n, err := f.download(ctx, plan, rep)
	if err != nil {
		return fail(err)
	}
	result.Bytes = n

	if err := setExecutable(plan.Path); err != nil {
		return fail(err)
	}

	ok, err = f.CheckLocal(ctx, plan)
	if err != nil {
		return fail(fmt.Errorf("verify downloaded %s: %w", plan.Name, err))
	}
	if !ok {
		f.logger.Warn("downloaded executable failed check", "name", plan.Name, "path", plan.Path)
		return fail(ErrVerificationFailedAfterFetch.New("downloaded executable at %s failed check", plan.Path))
	}

	result.Elapsed = time.Since(start)
	rep.Report(report.Event{
		Message: fmt.Sprintf("installed %s at %s", plan.Name, plan.Path),
		Kind:    report.KindDone,
		Target:  plan.Path,
		Elapsed: result.Elapsed,
	})
	return result, nil
}

// download streams plan.URL through the extraction pipeline into place.
func (f *Fetcher) download(ctx context.Context, plan *Plan, rep report.Reporter) (int64, error) {
	body, size, err := f.downloader.Open(ctx, plan.URL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	src := &progressReader{
		r:        body,
		progress: &report.Progress{Reporter: rep, Target: plan.Path, Total: size},
	}

	rep.Report(report.Event{
		Message: fmt.Sprintf("saving %s to %s", plan.Name, plan.Target),
		Kind:    report.KindSaving,
		Target:  plan.Path,
		Verbose: true,
	})

	e := plan.Extraction
	if e.DirectoryMode() {
		if err := f.saveDirectory(src, plan); err != nil {
			return src.n, err
		}
		return src.n, nil
	}

	stages := decompressStages(e)
	switch {
	case e.PathInTar != "":
		stages = append(stages, tarMemberStage(e.PathInTar))
	case e.PathInZip != "":
		stages = append(stages, zipMemberStage(e.PathInZip))
	}

	r, closeStages, err := stages.open(src)
	if err != nil {
		return src.n, fmt.Errorf("extract %s: %w", plan.Name, err)
	}
	_, err = saveFile(r, plan.Path)
	if cerr := closeStages(); err == nil && cerr != nil {
		_ = os.Remove(plan.Path)
		err = fmt.Errorf("close pipeline: %w", cerr)
	}
	if err != nil {
		return src.n, fmt.Errorf("save %s: %w", plan.Name, err)
	}
	return src.n, nil
}

func (f *Fetcher) saveDirectory(src *progressReader, plan *Plan) error {
	r, closeStages, err := decompressStages(plan.Extraction).open(src)
	if err != nil {
		return fmt.Errorf("extract %s: %w", plan.Name, err)
	}

	_, err = extractTarDir(r, plan.Extraction.DirectoryInTar, plan.Target)
	if cerr := closeStages(); err == nil && cerr != nil {
		err = fmt.Errorf("close pipeline: %w", cerr)
	}
	if err != nil {
		_ = os.RemoveAll(plan.Target)
		return fmt.Errorf("extract %s: %w", plan.Name, err)
	}

	if !exists(plan.Path) {
		_ = os.RemoveAll(plan.Target)
		return ErrMemberNotFound.New("%s not found under %s", plan.Extraction.ExecutableSubPath, plan.Extraction.DirectoryInTar)
	}

	if link := plan.Extraction.SymlinkPath; link != "" {
		if err := linkExecutable(link, plan.Path); err != nil {
			return err
		}
	}
	return nil
}
