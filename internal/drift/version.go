package drift

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/binary"
)

var versionRegex = regexp.MustCompile(`\d+\.\d+\.\d+`)

// ExtractVersion extracts a semantic version from command output.
func ExtractVersion(output string) (string, error) {
	match := versionRegex.FindString(output)
	if match == "" {
		return "", fmt.Errorf("no version found in output")
	}
	return match, nil
}

// installedVersion runs the executable the way check does and returns the
// version it reports, or "" when none can be determined.
func installedVersion(ctx context.Context, path string, check binary.VersionCheck) string {
	out, err := binary.ProbeVersion(ctx, path, check.ExecArgs, check.CaptureStderr)
	if err != nil {
		return ""
	}
	if check.PostProcess != nil {
		if v, err := check.PostProcess(out); err == nil {
			return strings.TrimSpace(v)
		}
	}
	if v, err := ExtractVersion(out); err == nil {
		return v
	}
	return ""
}

// versionCheck returns the first version check in checks.
func versionCheck(checks []binary.Check) (binary.VersionCheck, bool) {
	for _, c := range checks {
		if v, ok := c.(binary.VersionCheck); ok {
			return v, true
		}
	}
	return binary.VersionCheck{}, false
}
