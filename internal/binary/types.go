package binary

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/report"
)

// Check is one verification rule. The concrete types are CustomCheck,
// VersionCheck and HashCheck.
type Check interface {
	checkName() string
}

// CustomCheck delegates the decision to Func. An error from Func aborts
// verification and is returned to the caller.
type CustomCheck struct {
	Name string
	Func func(ctx context.Context, path string) (bool, error)
}

func (c CustomCheck) checkName() string {
	if c.Name != "" {
		return "custom:" + c.Name
	}
	return "custom"
}

// VersionCheck runs the candidate with ExecArgs and compares its output with
// Version. A candidate that cannot be run or exits non-zero is not OK.
type VersionCheck struct {
	Version  string
	ExecArgs []string

	// PostProcess turns the trimmed output into a bare version string.
	// An error is returned from Verify as is.
	PostProcess func(output string) (string, error)

	// CaptureStderr includes stderr in the output for tools that print
	// their version there.
	CaptureStderr bool
}

func (VersionCheck) checkName() string { return "version" }

// HashCheck compares the digest of the candidate with a digest published at
// RemoteHashURL. When ChecksumFileEntryPath is set the published resource is
// a checksum manifest and the digest is taken from the matching line.
//
// RemoteHashURL and ChecksumFileEntryPath are templates.
type HashCheck struct {
	Method                string
	RemoteHashURL         string
	ChecksumFileEntryPath string
}

func (HashCheck) checkName() string { return "hash" }

// ExtractionSpec describes how the downloaded stream becomes the executable.
//
// Gzip and Bzip2 decompress in that order. At most one of PathInTar,
// PathInZip and DirectoryInTar may be set. DirectoryInTar extracts a whole
// subtree into the request target and requires ExecutableSubPath; it cannot
// be combined with a HashCheck since there is no single downloaded file to
// hash. PathInTar, PathInZip, DirectoryInTar and ExecutableSubPath are
// templates.
type ExtractionSpec struct {
	Gzip  bool
	Bzip2 bool

	PathInTar string
	PathInZip string

	DirectoryInTar    string
	ExecutableSubPath string
	// SymlinkPath, if set, is pointed at the extracted executable.
	SymlinkPath string
}

// DirectoryMode reports whether a directory subtree is extracted.
func (e ExtractionSpec) DirectoryMode() bool {
	return e.DirectoryInTar != ""
}

func (e ExtractionSpec) archiveStages() int {
	n := 0
	for _, s := range []string{e.PathInTar, e.PathInZip, e.DirectoryInTar} {
		if s != "" {
			n++
		}
	}
	return n
}

// FetchRequest describes one executable to install.
type FetchRequest struct {
	// Name is used in events and logs. It defaults to the base name of
	// Target.
	Name string

	// Target is the executable path, or the destination directory in
	// directory mode. Its parent directory must exist.
	Target string

	// URL is the download URL template.
	URL string

	// Version is bound to the {version} placeholder. Empty means the
	// placeholder is undefined.
	Version string

	Checks     []Check
	Extraction ExtractionSpec

	// Reporter overrides the Fetcher's reporter for this request.
	Reporter report.Reporter
}

// DisplayName returns Name or the base name of Target.
func (r *FetchRequest) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return path.Base(strings.ReplaceAll(r.Target, "\\", "/"))
}

// Validate reports structural problems with the request. Template problems
// are reported by Resolve.
func (r *FetchRequest) Validate() error {
	if r.Target == "" {
		return ErrConfiguration.New("target is required")
	}
	if r.URL == "" {
		return ErrConfiguration.New("url is required for %s", r.DisplayName())
	}
	if len(r.Checks) == 0 {
		return ErrConfiguration.New("%s: at least one check is required: custom, version or hash", r.DisplayName())
	}

	e := r.Extraction
	if e.archiveStages() > 1 {
		return ErrConfiguration.New("%s: only one of path_in_tar, path_in_zip and dir_in_tar may be set", r.DisplayName())
	}
	if e.DirectoryMode() && e.ExecutableSubPath == "" {
		return ErrConfiguration.New("%s: directory extraction requires an executable sub path", r.DisplayName())
	}
	if !e.DirectoryMode() && (e.ExecutableSubPath != "" || e.SymlinkPath != "") {
		return ErrConfiguration.New("%s: executable sub path and symlink require directory extraction", r.DisplayName())
	}

	for _, c := range r.Checks {
		switch c := c.(type) {
		case CustomCheck:
			if c.Func == nil {
				return ErrConfiguration.New("%s: custom check %q has no function", r.DisplayName(), c.Name)
			}
		case VersionCheck:
			if c.Version == "" {
				return ErrConfiguration.New("%s: version check requires a version", r.DisplayName())
			}
		case HashCheck:
			if e.DirectoryMode() {
				return ErrConfiguration.New("%s: hash checks cannot be combined with directory extraction", r.DisplayName())
			}
			if c.RemoteHashURL == "" {
				return ErrConfiguration.New("%s: hash check requires a remote hash url", r.DisplayName())
			}
			if _, err := hasherFor(c.Method); err != nil {
				return err
			}
		case nil:
			return ErrConfiguration.New("%s: nil check", r.DisplayName())
		default:
			return ErrConfiguration.New("%s: unsupported check %T", r.DisplayName(), c)
		}
	}
	return nil
}

// Result describes a completed Fetch.
type Result struct {
	Name string
	// Path is the effective executable path.
	Path    string
	URL     string
	Skipped bool
	Bytes   int64
	Elapsed time.Duration
}
