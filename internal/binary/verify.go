package binary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Verifier decides whether a file on disk is the expected executable.
type Verifier struct {
	downloader *Downloader
	logger     Logger
}

// NewVerifier creates a verifier that fetches remote digests with d.
func NewVerifier(d *Downloader, logger Logger) *Verifier {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Verifier{downloader: d, logger: logger}
}

// Verify runs checks against path in order and stops at the first one that
// fails. It returns true only if every check passes.
//
// Templates inside HashCheck must already be expanded (see Resolve). A
// missing file fails version and hash checks without an error; custom
// checks decide for themselves.
func (v *Verifier) Verify(ctx context.Context, checks []Check, path string) (bool, error) {
	for _, c := range checks {
		ok, err := v.verifyOne(ctx, c, path)
		if err != nil {
			return false, fmt.Errorf("%s check on %s: %w", c.checkName(), path, err)
		}
		if !ok {
			v.logger.Debug("check failed", "check", c.checkName(), "path", path)
			return false, nil
		}
	}
	return true, nil
}

func (v *Verifier) verifyOne(ctx context.Context, c Check, path string) (bool, error) {
	switch c := c.(type) {
	case CustomCheck:
		return c.Func(ctx, path)
	case VersionCheck:
		return v.verifyVersion(ctx, c, path)
	case HashCheck:
		return v.verifyHash(ctx, c, path)
	default:
		return false, ErrConfiguration.New("unsupported check %T", c)
	}
}

func (v *Verifier) verifyVersion(ctx context.Context, c VersionCheck, path string) (bool, error) {
	out, err := ProbeVersion(ctx, path, c.ExecArgs, c.CaptureStderr)
	if err != nil {
		v.logger.Debug("version probe failed", "path", path, "error", err)
		return false, nil
	}

	got := out
	if c.PostProcess != nil {
		got, err = c.PostProcess(out)
		if err != nil {
			return false, fmt.Errorf("post-process version output: %w", err)
		}
		got = strings.TrimSpace(got)
	}

	if got != c.Version {
		v.logger.Debug("version mismatch", "path", path, "want", c.Version, "got", got)
		return false, nil
	}
	return true, nil
}

// ProbeVersion runs path with args and returns its trimmed output. args are
// passed as argv; no shell is involved.
func ProbeVersion(ctx context.Context, path string, args []string, captureStderr bool) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if captureStderr {
		cmd.Stderr = &stdout
	}

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %s: %w", path, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (v *Verifier) verifyHash(ctx context.Context, c HashCheck, path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat candidate: %w", err)
	}

	expected, err := v.expectedDigest(ctx, c)
	if err != nil {
		return false, err
	}

	actual, err := HashFile(path, c.Method)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	if !digestsEqual(expected, actual) {
		v.logger.Debug("digest mismatch", "path", path, "expected", expected, "actual", actual)
		return false, nil
	}
	return true, nil
}

func (v *Verifier) expectedDigest(ctx context.Context, c HashCheck) (string, error) {
	body, err := v.downloader.Get(ctx, c.RemoteHashURL)
	if err != nil {
		return "", err
	}

	if c.ChecksumFileEntryPath == "" {
		return strings.TrimSpace(string(body)), nil
	}
	return FindChecksum(bytes.NewReader(body), c.ChecksumFileEntryPath)
}
