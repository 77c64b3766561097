package shell

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetRCFilePath returns the rc file of shell under home.
func GetRCFilePath(shell ShellType, home string) (string, error) {
	if err := ValidateShell(shell); err != nil {
		return "", err
	}
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
	}

	switch shell {
	case ShellBash:
		return filepath.Join(home, ".bashrc"), nil
	case ShellZsh:
		return filepath.Join(home, ".zshrc"), nil
	default:
		return filepath.Join(home, ".config", "fish", "config.fish"), nil
	}
}

// RCFileExists reports whether rcPath is an existing regular file.
// Symlinks are not followed.
func RCFileExists(rcPath string) (bool, error) {
	info, err := os.Lstat(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &RCFileError{Path: rcPath, Message: "failed to stat file", Cause: err}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return false, &RCFileError{Path: rcPath, Message: "refusing to modify a symlink"}
	}
	if !info.Mode().IsRegular() {
		return false, &RCFileError{Path: rcPath, Message: "not a regular file"}
	}
	return true, nil
}

// CreateRCFile creates an empty rc file and its parent directory.
func CreateRCFile(rcPath string) error {
	if err := checkTraversal(rcPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(rcPath), 0o755); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create parent directory", Cause: err}
	}

	file, err := os.OpenFile(rcPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create file", Cause: err}
	}
	defer file.Close()

	if _, err := file.WriteString("# Shell configuration\n"); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to write header", Cause: err}
	}
	return nil
}

// checkTraversal rejects paths that still contain ".." elements.
func checkTraversal(p string) error {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == ".." {
			return &RCFileError{Path: p, Message: "path traversal is not allowed"}
		}
	}
	return nil
}

// HasActivationLine reports whether rcPath already runs exefetch shellenv.
// Commented-out lines do not count.
func HasActivationLine(rcPath string) (bool, error) {
	file, err := os.Open(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &RCFileError{Path: rcPath, Message: "failed to open file", Cause: err}
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, ActivationMarker) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, &RCFileError{Path: rcPath, Message: "failed to read file", Cause: err}
	}
	return false, nil
}

// BackupRCFile copies rcPath next to itself with BackupSuffix.
func BackupRCFile(rcPath string) (string, error) {
	content, err := os.ReadFile(rcPath)
	if err != nil {
		return "", &RCFileError{Path: rcPath, Message: "failed to read file for backup", Cause: err}
	}

	backupPath := rcPath + BackupSuffix
	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", &RCFileError{Path: backupPath, Message: "failed to write backup file", Cause: err}
	}
	return backupPath, nil
}

// AddActivationLine appends activationCommand to rcPath through a temp
// file and rename. Only commands produced by GenerateActivationCommand are
// accepted.
func AddActivationLine(rcPath string, activationCommand string) error {
	if !isActivationCommand(activationCommand) {
		return &RCFileError{Path: rcPath, Message: fmt.Sprintf("invalid activation command format: %q", activationCommand)}
	}

	exists, err := RCFileExists(rcPath)
	if err != nil {
		return err
	}

	var existing []byte
	mode := os.FileMode(0o644)
	if exists {
		if existing, err = os.ReadFile(rcPath); err != nil {
			return &RCFileError{Path: rcPath, Message: "failed to read existing file", Cause: err}
		}
		if fi, err := os.Stat(rcPath); err == nil {
			mode = fi.Mode().Perm()
		}
	}

	dir := filepath.Dir(rcPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create parent directory", Cause: err}
	}
	tmpFile, err := os.CreateTemp(dir, ".exefetch-tmp-*")
	if err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	var sb strings.Builder
	sb.Write(existing)
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\n" + sectionComment + "\n" + activationCommand + "\n")

	if _, err := tmpFile.WriteString(sb.String()); err != nil {
		tmpFile.Close()
		return &RCFileError{Path: rcPath, Message: "failed to write activation line", Cause: err}
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return &RCFileError{Path: rcPath, Message: "failed to sync file", Cause: err}
	}
	if err := tmpFile.Close(); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to close temporary file", Cause: err}
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to set permissions", Cause: err}
	}

	if err := os.Rename(tmpPath, rcPath); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to rename temp file", Cause: err}
	}
	return nil
}
