package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/platform"
)

var (
	linuxInfo = &platform.Info{
		OS:        "linux",
		Arch:      "amd64",
		ArchRaw:   "amd64",
		ArchToken: "x64",
	}
	darwinArmInfo = &platform.Info{
		OS:        "darwin",
		Arch:      "arm64",
		ArchRaw:   "arm64",
		ArchToken: "arm64",
	}
)

// mockDetector is a test implementation of platform.Detector.
type mockDetector struct {
	info *platform.Info
	err  error
}

func (m *mockDetector) Detect(ctx context.Context) (*platform.Info, error) {
	if m.err != nil {
		return nil, m.err
	}
	info := *m.info
	return &info, nil
}

func parse(t *testing.T, info *platform.Info, code string) *Catalog {
	t.Helper()
	var detector platform.Detector
	if info != nil {
		detector = &mockDetector{info: info}
	}
	c, err := NewParser(detector).ParseString(context.Background(), code)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestParser_ParseString_Minimal(t *testing.T) {
	c := parse(t, nil, `
		exefetch = {
			tools = {
				tool = {
					url = "https://example.com/tool-{version}",
					version = "1.0.0",
				},
			},
		}
	`)

	if got := c.Names(); len(got) != 1 || got[0] != "tool" {
		t.Fatalf("Names() = %v, want [tool]", got)
	}
	tool, ok := c.Lookup("tool")
	if !ok {
		t.Fatal("Lookup(tool) not found")
	}
	if tool.URL != "https://example.com/tool-{version}" {
		t.Errorf("URL = %q", tool.URL)
	}
	if tool.Version != "1.0.0" {
		t.Errorf("Version = %q", tool.Version)
	}
	if tool.HasPostProcess() || tool.HasCustomCheck() {
		t.Error("unexpected Lua functions on a plain entry")
	}
}

func TestParser_ParseString_Full(t *testing.T) {
	c := parse(t, linuxInfo, `
		exefetch = {
			tools = {
				full = {
					url = "https://example.com/{version}/full.tar.gz",
					version = "2.1.0",
					target = "sub/full",
					version_args = { "version", "--short" },
					version_stderr = true,
					version_post_process = function(out) return out end,
					exec_is_ok = function(path) return true end,
					hash_method = "sha512",
					hash_url = "https://example.com/{version}/SUMS",
					checksum_entry = "full_{platform}",
					gzip = true,
					bzip2 = false,
					path_in_tar = "full/bin/full",
				},
				dir = {
					url = "https://example.com/dir.tar",
					version = "1.0.0",
					dir_in_tar = "dir-{version}",
					executable_in_dir = "bin/dir",
					symlink = "dir",
				},
			},
		}
	`)

	if got := strings.Join(c.Names(), ","); got != "dir,full" {
		t.Errorf("Names() = %s, want sorted dir,full", got)
	}

	full, _ := c.Lookup("full")
	want := Tool{
		Name:          "full",
		URL:           "https://example.com/{version}/full.tar.gz",
		Version:       "2.1.0",
		Target:        "sub/full",
		VersionStderr: true,
		HashMethod:    "sha512",
		HashURL:       "https://example.com/{version}/SUMS",
		ChecksumEntry: "full_{platform}",
		Gzip:          true,
		PathInTar:     "full/bin/full",
	}
	if full.Name != want.Name || full.URL != want.URL || full.Version != want.Version ||
		full.Target != want.Target || full.VersionStderr != want.VersionStderr ||
		full.HashMethod != want.HashMethod || full.HashURL != want.HashURL ||
		full.ChecksumEntry != want.ChecksumEntry || full.Gzip != want.Gzip ||
		full.Bzip2 != want.Bzip2 || full.PathInTar != want.PathInTar {
		t.Errorf("full = %+v\nwant %+v", *full, want)
	}
	if strings.Join(full.VersionArgs, " ") != "version --short" {
		t.Errorf("VersionArgs = %v", full.VersionArgs)
	}
	if !full.HasPostProcess() || !full.HasCustomCheck() {
		t.Error("expected both Lua functions to be captured")
	}

	dir, _ := c.Lookup("dir")
	if !dir.DirectoryMode() {
		t.Error("dir.DirectoryMode() = false")
	}
	if dir.ExecutableInDir != "bin/dir" || dir.Symlink != "dir" {
		t.Errorf("dir = %+v", *dir)
	}
}

func TestParser_ParseString_PlatformConditionals(t *testing.T) {
	code := `
		exefetch = {
			tools = {
				everywhere = { url = "https://example.com/a", version = "1.0.0" },
				linux_only = platform.is_linux and {
					url = "https://example.com/b",
					version = "1.0.0",
				} or false,
				mac_only = platform.is_macos and {
					url = "https://example.com/c",
					version = "1.0.0",
				} or nil,
			},
		}
	`

	tests := []struct {
		name string
		info *platform.Info
		want string
	}{
		{name: "linux", info: linuxInfo, want: "everywhere,linux_only"},
		{name: "darwin", info: darwinArmInfo, want: "everywhere,mac_only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := parse(t, tt.info, code)
			if got := strings.Join(c.Names(), ","); got != tt.want {
				t.Errorf("Names() = %s, want %s", got, tt.want)
			}
			if c.Platform().OS != tt.info.OS {
				t.Errorf("Platform().OS = %s, want %s", c.Platform().OS, tt.info.OS)
			}
		})
	}
}

func TestParser_ParseString_Errors(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		wantParse bool
		field     string
	}{
		{
			name:      "syntax_error",
			code:      `exefetch = {`,
			wantParse: true,
		},
		{
			name:      "runtime_error",
			code:      `error("nope")`,
			wantParse: true,
		},
		{
			name:      "missing_root",
			code:      `x = 1`,
			wantParse: true,
		},
		{
			name:      "tools_not_table",
			code:      `exefetch = { tools = "kubectl" }`,
			wantParse: true,
		},
		{
			name:  "array_entry",
			code:  `exefetch = { tools = { { url = "https://x", version = "1" } } }`,
			field: "tools",
		},
		{
			name:  "entry_not_table",
			code:  `exefetch = { tools = { kubectl = "1.21.0" } }`,
			field: "kubectl",
		},
		{
			name:  "bad_name",
			code:  `exefetch = { tools = { ["../x"] = { url = "https://x", version = "1" } } }`,
			field: "tools",
		},
		{
			name:  "missing_url",
			code:  `exefetch = { tools = { t = { version = "1" } } }`,
			field: "t.url",
		},
		{
			name:  "no_check",
			code:  `exefetch = { tools = { t = { url = "https://x" } } }`,
			field: "t",
		},
		{
			name:  "wrong_type",
			code:  `exefetch = { tools = { t = { url = "https://x", version = 1.5 } } }`,
			field: "t.version",
		},
		{
			name:  "bool_as_string",
			code:  `exefetch = { tools = { t = { url = "https://x", version = "1", gzip = "yes" } } }`,
			field: "t.gzip",
		},
		{
			name:  "version_args_not_strings",
			code:  `exefetch = { tools = { t = { url = "https://x", version = "1", version_args = { "--v", 2 } } } }`,
			field: "t.version_args[2]",
		},
		{
			name:  "post_process_without_version",
			code:  `exefetch = { tools = { t = { url = "https://x", hash_url = "https://h", version_post_process = function(o) return o end } } }`,
			field: "t.version",
		},
		{
			name:  "checksum_entry_without_hash_url",
			code:  `exefetch = { tools = { t = { url = "https://x", version = "1", checksum_entry = "bin/t" } } }`,
			field: "t.hash_url",
		},
		{
			name:  "target_escapes_bin_dir",
			code:  `exefetch = { tools = { t = { url = "https://x", version = "1", target = "../t" } } }`,
			field: "t.target",
		},
		{
			name:  "symlink_escapes_bin_dir",
			code:  `exefetch = { tools = { t = { url = "https://x", version = "1", dir_in_tar = "t", executable_in_dir = "t", symlink = "../../t" } } }`,
			field: "t.symlink",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewParser(nil).ParseString(context.Background(), tt.code)
			if err == nil {
				c.Close()
				t.Fatal("expected error")
			}

			var parseErr *ParseError
			var validationErr *ValidationError
			switch {
			case tt.wantParse:
				if !errors.As(err, &parseErr) {
					t.Fatalf("error = %T %v, want *ParseError", err, err)
				}
			default:
				if !errors.As(err, &validationErr) {
					t.Fatalf("error = %T %v, want *ValidationError", err, err)
				}
				if validationErr.Field != tt.field {
					t.Errorf("Field = %q, want %q", validationErr.Field, tt.field)
				}
			}
		})
	}
}

func TestParser_ParseString_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewParser(nil).ParseString(ctx, `while true do end`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if !strings.Contains(parseErr.Message, "timed out") {
		t.Errorf("Message = %q", parseErr.Message)
	}
}

func TestParser_ParseString_DetectorError(t *testing.T) {
	detector := &mockDetector{err: errors.New("no platform")}
	_, err := NewParser(detector).ParseString(context.Background(), `exefetch = {}`)
	if err == nil || !strings.Contains(err.Error(), "platform detection failed") {
		t.Fatalf("error = %v", err)
	}
}

func TestParser_ParseString_EmptyTools(t *testing.T) {
	c := parse(t, nil, `exefetch = {}`)
	if len(c.Names()) != 0 {
		t.Errorf("Names() = %v, want empty", c.Names())
	}
}

func TestParser_ParseString_TooManyTools(t *testing.T) {
	code := `exefetch = { tools = {} }
		for i = 1, 1001 do
			exefetch.tools["t" .. i] = { url = "https://x", version = "1" }
		end`
	_, err := NewParser(nil).ParseString(context.Background(), code)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "tools" {
		t.Fatalf("error = %v, want tools ValidationError", err)
	}
}

func TestParser_ParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.lua")
	code := `exefetch = { tools = { t = { url = "https://x", version = "1" } } }`
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := NewParser(nil).ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	defer c.Close()
	if _, ok := c.Lookup("t"); !ok {
		t.Error("tool t missing")
	}

	if _, err := NewParser(nil).ParseFile(context.Background(), filepath.Join(dir, "missing.lua")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

func TestParser_ParseDefault(t *testing.T) {
	c, err := NewParser(&mockDetector{info: linuxInfo}).ParseDefault(context.Background())
	if err != nil {
		t.Fatalf("ParseDefault() error = %v", err)
	}
	defer c.Close()

	want := "eksctl,gomplate,helm,helmfile,kubectl,minikube,sops"
	if got := strings.Join(c.Names(), ","); got != want {
		t.Errorf("Names() = %s, want %s", got, want)
	}
	if !strings.Contains(DefaultCatalog(), "exefetch = {") {
		t.Error("DefaultCatalog() does not look like a catalog")
	}
}

func TestFormatError(t *testing.T) {
	err := &ParseError{
		Message: "Lua syntax error",
		Detail:  "<string>:1: unexpected symbol\nstack traceback:\n\t[G]: ?",
	}

	short := FormatError(err, false)
	if strings.Contains(short, "stack traceback") {
		t.Errorf("non-verbose output kept the traceback: %q", short)
	}
	if !strings.HasPrefix(short, "Lua syntax error: ") {
		t.Errorf("non-verbose output = %q", short)
	}

	long := FormatError(err, true)
	if !strings.Contains(long, "stack traceback") || !strings.Contains(long, "Details:") {
		t.Errorf("verbose output = %q", long)
	}

	plain := errors.New("plain")
	if got := FormatError(plain, false); got != "plain" {
		t.Errorf("FormatError(plain) = %q", got)
	}
}
