package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("version probes use shell scripts")
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "exefetch "+Version) {
		t.Errorf("output = %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, _, err := execute(t, "frobnicate"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestExitError(t *testing.T) {
	var err error = &exitError{code: 1}
	var exit *exitError
	if !errors.As(err, &exit) || exit.code != 1 {
		t.Errorf("errors.As() = %v", exit)
	}
	if err.Error() != "exit status 1" {
		t.Errorf("Error() = %q", err.Error())
	}
}
