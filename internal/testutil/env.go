// Package testutil provides utilities for testing exefetch in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env holds the isolated directories created by SetupTestEnv.
type Env struct {
	Root     string
	BinDir   string
	StateDir string
	Config   string
}

// SetupTestEnv points every exefetch environment variable at a fresh temp
// directory so tests never touch a real installation. t.TempDir handles
// cleanup.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	root := t.TempDir()
	env := &Env{
		Root:     root,
		BinDir:   filepath.Join(root, "bin"),
		StateDir: filepath.Join(root, "state"),
		Config:   filepath.Join(root, "config", "catalog.lua"),
	}

	t.Setenv("EXEFETCH_BIN_DIR", env.BinDir)
	t.Setenv("EXEFETCH_STATE_DIR", env.StateDir)
	t.Setenv("EXEFETCH_CONFIG", env.Config)
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "xdg-state"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg-config"))

	for _, dir := range []string{env.BinDir, env.StateDir, filepath.Dir(env.Config)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return env
}

// VersionScript returns a POSIX shell script that prints version.
func VersionScript(version string) []byte {
	return []byte("#!/bin/sh\necho " + version + "\n")
}
