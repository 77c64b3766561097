package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/config"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/platform"
	"github.com/ZebulonRouseFrantzich/exefetch/internal/shell"
	"github.com/mattn/go-isatty"
)

// Environment variables read by the CLI. The bin dir variable is shared
// with shell integration.
const (
	envConfig   = "EXEFETCH_CONFIG"
	envStateDir = "EXEFETCH_STATE_DIR"
)

// resolveBinDir returns the install directory: the flag, then
// EXEFETCH_BIN_DIR, then $XDG_DATA_HOME/exefetch/bin, then
// ~/.local/share/exefetch/bin.
func resolveBinDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if dir := os.Getenv(shell.EnvBinDir); dir != "" {
		return filepath.Abs(dir)
	}
	data, err := xdgDir("XDG_DATA_HOME", ".local", "share")
	if err != nil {
		return "", err
	}
	return filepath.Join(data, "exefetch", "bin"), nil
}

// resolveStateDir returns where run records are kept.
func resolveStateDir() (string, error) {
	if dir := os.Getenv(envStateDir); dir != "" {
		return dir, nil
	}
	state, err := xdgDir("XDG_STATE_HOME", ".local", "state")
	if err != nil {
		return "", err
	}
	return filepath.Join(state, "exefetch"), nil
}

// defaultConfigPath is where init writes the catalog and where other
// commands look for one when neither the flag nor EXEFETCH_CONFIG is set.
func defaultConfigPath() (string, error) {
	if p := os.Getenv(envConfig); p != "" {
		return p, nil
	}
	cfg, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "exefetch", "catalog.lua"), nil
}

// resolveConfigPath returns the catalog to load. An empty path means the
// built-in catalog. An explicitly named catalog must exist.
func resolveConfigPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if p := os.Getenv(envConfig); p != "" {
		return p, nil
	}
	p, err := defaultConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		return "", nil
	}
	return p, nil
}

func xdgDir(env string, fallback ...string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// newLogger returns a text logger on w. Only warnings are shown unless
// verbose is set.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadCatalog parses the configured catalog for the selected platform and
// prints a warning when catalog URLs appear to carry credentials.
func loadCatalog(ctx context.Context, opts *globalOptions, logger *slog.Logger, stderr io.Writer) (*config.Catalog, error) {
	detector := platform.Override(platform.NewDetector(), opts.goos, opts.arch)
	parser := config.NewParser(detector).WithLogger(logger)

	path, err := resolveConfigPath(opts.configPath)
	if err != nil {
		return nil, err
	}

	var cat *config.Catalog
	if path == "" {
		logger.Debug("using built-in catalog")
		cat, err = parser.ParseDefault(ctx)
	} else {
		logger.Debug("using catalog file", "path", path)
		cat, err = parser.ParseFile(ctx, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %s", config.FormatError(err, opts.verbose))
	}

	if warning := config.FormatSensitiveDataWarning(config.DetectSensitiveData(cat.Tools())); warning != "" {
		fmt.Fprint(stderr, warning)
	}
	return cat, nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
