package drift

import (
	"fmt"
	"strings"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"

// FormatDriftReport formats results for user display.
func FormatDriftReport(results []Result) string {
	var sb strings.Builder
	// header + entries + summary
	sb.Grow(1024 + len(results)*256)

	sb.WriteString("\n" + rule)
	sb.WriteString("DRIFT REPORT\n")
	sb.WriteString(rule + "\n")

	counts := make(map[Status]int)
	for _, r := range results {
		counts[r.Status]++
	}

	// OK entries are summarized, not listed, unless something shadows them.
	for _, r := range results {
		if r.Status == StatusOK && r.ActivePath == "" {
			continue
		}
		sb.WriteString(formatDriftEntry(r))
		sb.WriteString("\n")
	}

	if n := counts[StatusOK]; n > 0 {
		sb.WriteString(fmt.Sprintf("[OK] ✓\n  %d %s up to date\n\n", n, plural(n, "tool", "tools")))
	}

	sb.WriteString(rule)
	drifted := counts[StatusVersionMismatch] + counts[StatusMissing] + counts[StatusCheckFailed]
	if drifted == 0 {
		sb.WriteString("SUMMARY: No drifts detected ✓\n")
	} else {
		sb.WriteString(fmt.Sprintf("SUMMARY: %d %s detected\n", drifted, plural(drifted, "drift", "drifts")))

		var parts []string
		if n := counts[StatusVersionMismatch]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d version mismatch", n))
		}
		if n := counts[StatusMissing]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d missing", n))
		}
		if n := counts[StatusCheckFailed]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d check failed", n))
		}
		sb.WriteString("  " + strings.Join(parts, ", ") + "\n")
	}
	if n := counts[StatusUnverified]; n > 0 {
		sb.WriteString(fmt.Sprintf("  %d unverified (hash checks disabled)\n", n))
	}
	sb.WriteString(rule)

	return sb.String()
}

// formatDriftEntry formats a single entry.
func formatDriftEntry(r Result) string {
	var sb strings.Builder
	sb.Grow(512)

	switch r.Status {
	case StatusOK:
		sb.WriteString("[SHADOWED]\n")
		sb.WriteString(fmt.Sprintf("  %s\n", r.Tool))
		sb.WriteString(fmt.Sprintf("    Installed: %s\n", r.Path))

	case StatusVersionMismatch:
		sb.WriteString("[VERSION MISMATCH]\n")
		sb.WriteString(fmt.Sprintf("  %s\n", r.Tool))
		sb.WriteString(fmt.Sprintf("    Declared:  %s\n", r.WantVersion))
		sb.WriteString(fmt.Sprintf("    Installed: %s at %s\n", r.InstalledVersion, r.Path))
		sb.WriteString("    \n")
		sb.WriteString("    → Run fetch to replace it\n")

	case StatusMissing:
		sb.WriteString("[MISSING]\n")
		sb.WriteString(fmt.Sprintf("  %s\n", r.Tool))
		if r.WantVersion != "" {
			sb.WriteString(fmt.Sprintf("    Declared:  %s\n", r.WantVersion))
		}
		if r.Path != "" {
			sb.WriteString(fmt.Sprintf("    Installed: (not installed) at %s\n", r.Path))
		} else {
			sb.WriteString("    Installed: (not installed)\n")
		}
		sb.WriteString("    \n")
		sb.WriteString("    → Declared in catalog but not found\n")

	case StatusCheckFailed:
		sb.WriteString("[CHECK FAILED]\n")
		sb.WriteString(fmt.Sprintf("  %s\n", r.Tool))
		if r.Path != "" {
			sb.WriteString(fmt.Sprintf("    Path:      %s\n", r.Path))
		}
		if r.InstalledVersion != "" {
			sb.WriteString(fmt.Sprintf("    Installed: %s\n", r.InstalledVersion))
		}
		if r.Err != nil {
			sb.WriteString(fmt.Sprintf("    Error:     %v\n", r.Err))
		}
		sb.WriteString("    \n")
		sb.WriteString("    → The installed file does not pass its checks\n")

	case StatusUnverified:
		sb.WriteString("[UNVERIFIED]\n")
		sb.WriteString(fmt.Sprintf("  %s\n", r.Tool))
		sb.WriteString(fmt.Sprintf("    Path:      %s\n", r.Path))
		sb.WriteString("    \n")
		sb.WriteString("    → Only hash checks are declared; rerun with --hash\n")
	}

	if r.ActivePath != "" {
		sb.WriteString(fmt.Sprintf("    ⚠️  %s on PATH resolves to %s\n", r.Tool, r.ActivePath))
	}

	return sb.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
