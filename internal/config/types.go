package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Tool is one catalog entry. Its string fields are templates unless noted.
type Tool struct {
	Name    string
	URL     string
	Version string

	// Target is the install path, absolute or relative to the bin dir.
	// Empty means Name, or Name+DirectorySuffix in directory mode.
	// Not a template.
	Target string

	VersionArgs   []string
	VersionStderr bool

	HashMethod    string
	HashURL       string
	ChecksumEntry string

	Gzip            bool
	Bzip2           bool
	PathInTar       string
	PathInZip       string
	DirInTar        string
	ExecutableInDir string

	// Symlink is absolute or relative to the bin dir. Not a template.
	Symlink string

	postProcess *lua.LFunction
	execIsOK    *lua.LFunction
}

// HasPostProcess reports whether the entry declares version_post_process.
func (t *Tool) HasPostProcess() bool { return t.postProcess != nil }

// HasCustomCheck reports whether the entry declares exec_is_ok.
func (t *Tool) HasCustomCheck() bool { return t.execIsOK != nil }

// DirectoryMode reports whether the tool unpacks a whole tar subtree.
func (t *Tool) DirectoryMode() bool { return t.DirInTar != "" }

// TargetPath resolves the install path against binDir.
func (t *Tool) TargetPath(binDir string) string {
	target := t.Target
	if target == "" {
		target = t.Name
		if t.DirectoryMode() {
			target += DirectorySuffix
		}
	}
	return resolveAgainst(binDir, target)
}

// SymlinkPath resolves the symlink path against binDir, or returns "".
func (t *Tool) SymlinkPath(binDir string) string {
	if t.Symlink == "" {
		return ""
	}
	return resolveAgainst(binDir, t.Symlink)
}

func resolveAgainst(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

// Validate performs the catalog-level checks on an entry. Extraction and
// check combinations are validated again when the entry becomes a
// binary.FetchRequest.
func (t *Tool) Validate() error {
	if err := validateToolName(t.Name); err != nil {
		return &ValidationError{Field: "tools", Message: err.Error()}
	}
	field := func(name string) string { return t.Name + "." + name }

	if strings.TrimSpace(t.URL) == "" {
		return &ValidationError{Field: field(luaFieldURL), Message: "url cannot be empty"}
	}
	if t.Version == "" && t.HashURL == "" && t.execIsOK == nil {
		return &ValidationError{
			Field:   t.Name,
			Message: "no check declared (set version, hash_url or exec_is_ok)",
		}
	}
	if t.Version == "" && (len(t.VersionArgs) > 0 || t.postProcess != nil || t.VersionStderr) {
		return &ValidationError{
			Field:   field(luaFieldVersion),
			Message: "version_args, version_post_process and version_stderr require version",
		}
	}
	if t.HashURL == "" && (t.ChecksumEntry != "" || t.HashMethod != "") {
		return &ValidationError{
			Field:   field(luaFieldHashURL),
			Message: "hash_method and checksum_entry require hash_url",
		}
	}
	if t.Target != "" {
		if err := validateRelativePath(t.Target); err != nil {
			return &ValidationError{Field: field(luaFieldTarget), Message: err.Error()}
		}
	}
	if t.Symlink != "" {
		if err := validateRelativePath(t.Symlink); err != nil {
			return &ValidationError{Field: field(luaFieldSymlink), Message: err.Error()}
		}
	}
	return nil
}

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "catalog validation failed for " + e.Field + ": " + e.Message
	}
	return "catalog validation failed: " + e.Message
}

var toolNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

func validateToolName(name string) error {
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("tool name too long (%d chars, max 128)", len(name))
	}
	if !toolNamePattern.MatchString(name) {
		return fmt.Errorf("invalid tool name %q", name)
	}
	return nil
}

// validateRelativePath rejects relative paths that climb out of the bin dir.
// Absolute paths are the user's explicit choice and pass.
func validateRelativePath(p string) error {
	if filepath.IsAbs(p) {
		return nil
	}
	clean := filepath.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes the bin dir", p)
	}
	return nil
}
