package shell

import (
	"fmt"
	"strings"
)

// GenerateActivationCommand returns the line users add to their rc file.
func GenerateActivationCommand(shell ShellType) (string, error) {
	switch shell {
	case ShellBash, ShellZsh:
		return fmt.Sprintf(`eval "$(exefetch shellenv %s)"`, shell), nil
	case ShellFish:
		return fmt.Sprintf("exefetch shellenv %s | source", shell), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// isActivationCommand reports whether cmd is one GenerateActivationCommand
// can produce.
func isActivationCommand(cmd string) bool {
	for _, s := range GetSupportedShells() {
		if want, _ := GenerateActivationCommand(s); cmd == want {
			return true
		}
	}
	return false
}

// PathScript returns shell code that prepends binDir to PATH unless it is
// already there.
func PathScript(shell ShellType, binDir string) (string, error) {
	if binDir == "" {
		return "", fmt.Errorf("bin dir is required")
	}
	q := quote(shell, binDir)

	switch shell {
	case ShellBash, ShellZsh:
		return fmt.Sprintf("case \":${PATH}:\" in\n  *:%s:*) ;;\n  *) export PATH=%s:\"${PATH}\" ;;\nesac\n", q, q), nil
	case ShellFish:
		return fmt.Sprintf("contains -- %s $PATH; or set -gx PATH %s $PATH\n", q, q), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// quote single-quotes s. fish allows backslash escapes inside single
// quotes; POSIX shells need the quote closed and reopened.
func quote(shell ShellType, s string) string {
	if shell == ShellFish {
		s = strings.ReplaceAll(s, `\`, `\\`)
		return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
