package shell

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// parentProcessName is swapped in tests.
var parentProcessName = func() (name, exe string) {
	p, err := process.NewProcess(int32(os.Getppid()))
	if err != nil {
		return "", ""
	}
	name, _ = p.Name()
	exe, _ = p.Exe()
	return name, exe
}

// DetectShell detects the user's shell. It never fails; an undetectable
// shell is reported as ShellUnknown.
func DetectShell() (*DetectionResult, error) {
	if shell := os.Getenv("SHELL"); shell != "" {
		shellType := parseShellFromPath(shell)
		if shellType.IsValid() {
			return &DetectionResult{
				Shell:      shellType,
				Method:     "$SHELL environment variable",
				ShellPath:  shell,
				Confidence: "high",
			}, nil
		}
	}

	if shellType, shellPath := detectFromParentProcess(); shellType.IsValid() {
		return &DetectionResult{
			Shell:      shellType,
			Method:     "parent process",
			ShellPath:  shellPath,
			Confidence: "medium",
		}, nil
	}

	return &DetectionResult{
		Shell:      ShellUnknown,
		Method:     "detection failed",
		Confidence: "none",
	}, nil
}

// parseShellFromPath maps a shell binary path such as /usr/bin/zsh or a
// login-shell name such as -bash to a ShellType.
func parseShellFromPath(shellPath string) ShellType {
	baseName := strings.ToLower(filepath.Base(shellPath))
	baseName = strings.TrimPrefix(baseName, "-")

	switch baseName {
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	default:
		return ShellUnknown
	}
}

// detectFromParentProcess inspects the process that started exefetch.
func detectFromParentProcess() (ShellType, string) {
	name, exe := parentProcessName()
	if shellType := parseShellFromPath(name); shellType.IsValid() {
		if exe == "" {
			exe = name
		}
		return shellType, exe
	}
	return ShellUnknown, ""
}

// ValidateShell validates that a shell type is supported
func ValidateShell(shell ShellType) error {
	if !shell.IsValid() {
		return &UnsupportedShellError{Shell: shell.String()}
	}
	return nil
}

// GetSupportedShells returns a list of supported shells
func GetSupportedShells() []ShellType {
	return []ShellType{ShellBash, ShellZsh, ShellFish}
}
