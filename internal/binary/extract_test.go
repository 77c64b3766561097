package binary

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/testutil"
)

func readAllStages(t *testing.T, p pipeline, data []byte) ([]byte, error) {
	t.Helper()
	r, closeStages, err := p.open(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(r)
	if cerr := closeStages(); err == nil {
		err = cerr
	}
	return out, err
}

func TestPipelineStages(t *testing.T) {
	script := testutil.VersionScript("1.0.0")
	tarball := testutil.Tar(t,
		testutil.Entry{Name: "README.md", Body: []byte("readme")},
		testutil.Entry{Name: "linux-amd64/", Dir: true},
		testutil.Entry{Name: "linux-amd64/helm", Body: script, Mode: 0o755},
	)

	tests := []struct {
		name  string
		stage pipeline
		data  []byte
		want  []byte
	}{
		{name: "raw", data: script, want: script},
		{name: "gzip", stage: pipeline{gunzipStage}, data: testutil.Gzip(t, script), want: script},
		{name: "tar_member", stage: pipeline{tarMemberStage("linux-amd64/helm")}, data: tarball, want: script},
		{name: "tar_gz_member", stage: pipeline{gunzipStage, tarMemberStage("linux-amd64/helm")}, data: testutil.Gzip(t, tarball), want: script},
		{
			name:  "zip_member",
			stage: pipeline{zipMemberStage("bin/tool.exe")},
			data: testutil.Zip(t,
				testutil.Entry{Name: "bin", Dir: true},
				testutil.Entry{Name: "bin/tool.exe", Body: script},
			),
			want: script,
		},
		{
			name:  "gzip_then_zip",
			stage: pipeline{gunzipStage, zipMemberStage("tool")},
			data:  testutil.Gzip(t, testutil.Zip(t, testutil.Entry{Name: "tool", Body: script})),
			want:  script,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readAllStages(t, tt.stage, tt.data)
			if err != nil {
				t.Fatalf("pipeline error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPipelineMemberNotFound(t *testing.T) {
	tests := []struct {
		name  string
		stage pipeline
		data  []byte
	}{
		{
			name:  "tar_missing",
			stage: pipeline{tarMemberStage("helm")},
			data:  testutil.Tar(t, testutil.Entry{Name: "linux-amd64/helm", Body: []byte("x")}),
		},
		{
			name:  "zip_missing",
			stage: pipeline{zipMemberStage("tool")},
			data:  testutil.Zip(t, testutil.Entry{Name: "other", Body: []byte("x")}),
		},
		{
			// member names are compared as stored, without cleaning
			name:  "tar_dot_slash_name",
			stage: pipeline{tarMemberStage("tool")},
			data:  testutil.Tar(t, testutil.Entry{Name: "./tool", Body: []byte("x")}),
		},
		{
			name:  "zip_dot_slash_name",
			stage: pipeline{zipMemberStage("tool")},
			data:  testutil.Zip(t, testutil.Entry{Name: "./tool", Body: []byte("x")}),
		},
		{
			name:  "zip_directory_marker",
			stage: pipeline{zipMemberStage("tool/")},
			data:  testutil.Zip(t, testutil.Entry{Name: "tool", Dir: true}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readAllStages(t, tt.stage, tt.data)
			if !ErrMemberNotFound.Has(err) {
				t.Errorf("expected ErrMemberNotFound, got %v", err)
			}
		})
	}
}

func TestPipelineBzip2Fixtures(t *testing.T) {
	want := testutil.VersionScript("2.0.0")

	raw, err := os.ReadFile(filepath.Join("testdata", "tool.bz2"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := readAllStages(t, pipeline{bunzip2Stage}, raw)
	if err != nil {
		t.Fatalf("bzip2 stage error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("bzip2 output = %q, want %q", got, want)
	}

	tarball, err := os.ReadFile(filepath.Join("testdata", "tool.tar.bz2"))
	if err != nil {
		t.Fatal(err)
	}
	got, err = readAllStages(t, pipeline{bunzip2Stage, tarMemberStage("tool-2.0.0/bin/tool")}, tarball)
	if err != nil {
		t.Fatalf("bzip2+tar error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("bzip2+tar output = %q, want %q", got, want)
	}
}

func TestPipelineClosesOnError(t *testing.T) {
	var closed bool
	tracked := func(r io.Reader) (io.Reader, func() error, error) {
		return r, func() error { closed = true; return nil }, nil
	}

	_, _, err := pipeline{tracked, gunzipStage}.open(bytes.NewReader([]byte("not gzip")))
	if err == nil {
		t.Fatal("expected gzip error")
	}
	if !closed {
		t.Error("earlier stage was not closed after a later stage failed")
	}
}

func TestZipSpoolRemoved(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	if runtime.GOOS == "windows" {
		t.Setenv("TMP", tmp)
	}

	data := testutil.Zip(t, testutil.Entry{Name: "tool", Body: []byte("x")})
	if _, err := readAllStages(t, pipeline{zipMemberStage("tool")}, data); err != nil {
		t.Fatal(err)
	}
	if _, err := readAllStages(t, pipeline{zipMemberStage("nope")}, data); err == nil {
		t.Fatal("expected member not found")
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("spool files left behind: %d", len(entries))
	}
}

func TestExtractTarDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks")
	}

	tarball := testutil.Tar(t,
		testutil.Entry{Name: "node-v14/", Dir: true},
		testutil.Entry{Name: "node-v14/bin/", Dir: true},
		testutil.Entry{Name: "node-v14/bin/node", Body: []byte("node"), Mode: 0o755},
		testutil.Entry{Name: "node-v14/bin/npm", Linkname: "../lib/npm-cli.js"},
		testutil.Entry{Name: "node-v14/lib/npm-cli.js", Body: []byte("npm"), Mode: 0o644},
		testutil.Entry{Name: "node-v14-docs/index.html", Body: []byte("not part of the subtree")},
		testutil.Entry{Name: "other/file", Body: []byte("skip")},
	)

	dest := filepath.Join(t.TempDir(), "node")
	if err := os.MkdirAll(filepath.Join(dest, "stale"), 0755); err != nil {
		t.Fatal(err)
	}

	n, err := extractTarDir(bytes.NewReader(tarball), "node-v14/", dest)
	if err != nil {
		t.Fatalf("extractTarDir error: %v", err)
	}
	if n != int64(len("node")+len("npm")) {
		t.Errorf("written = %d", n)
	}

	if _, err := os.Stat(filepath.Join(dest, "stale")); !os.IsNotExist(err) {
		t.Error("destination should be recreated")
	}

	info, err := os.Stat(filepath.Join(dest, "bin", "node"))
	if err != nil {
		t.Fatalf("bin/node missing: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("bin/node mode = %v, want 0755", info.Mode().Perm())
	}

	link, err := os.Readlink(filepath.Join(dest, "bin", "npm"))
	if err != nil || link != "../lib/npm-cli.js" {
		t.Errorf("bin/npm link = %q, %v", link, err)
	}
	if data, err := os.ReadFile(filepath.Join(dest, "bin", "npm")); err != nil || string(data) != "npm" {
		t.Errorf("bin/npm resolves to %q, %v", data, err)
	}

	for _, unwanted := range []string{"index.html", "file", "node-v14"} {
		if _, err := os.Stat(filepath.Join(dest, unwanted)); !os.IsNotExist(err) {
			t.Errorf("%s should not be extracted", unwanted)
		}
	}
}

func TestExtractTarDir_Errors(t *testing.T) {
	tests := []struct {
		name    string
		entries []testutil.Entry
		prefix  string
		check   func(error) bool
	}{
		{
			name:    "no_match",
			entries: []testutil.Entry{{Name: "a/b", Body: []byte("x")}},
			prefix:  "c",
			check:   ErrMemberNotFound.Has,
		},
		{
			name:    "escaping_symlink",
			entries: []testutil.Entry{{Name: "pkg/evil", Linkname: "../../../etc/passwd"}},
			prefix:  "pkg",
			check:   func(err error) bool { return err != nil },
		},
		{
			name:    "absolute_symlink",
			entries: []testutil.Entry{{Name: "pkg/evil", Linkname: "/etc/passwd"}},
			prefix:  "pkg",
			check:   func(err error) bool { return err != nil },
		},
		{
			// each link is local on its own; together they reach dest's parent
			name: "symlink_chain",
			entries: []testutil.Entry{
				{Name: "pkg/d/e/l", Linkname: "../.."},
				{Name: "pkg/l2", Linkname: "d/e/l/.."},
				{Name: "pkg/l2/evil", Body: []byte("pwned")},
			},
			prefix: "pkg",
			check:  func(err error) bool { return err != nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			dest := filepath.Join(parent, "out")
			_, err := extractTarDir(bytes.NewReader(testutil.Tar(t, tt.entries...)), tt.prefix, dest)
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if _, err := os.Lstat(filepath.Join(parent, "evil")); !os.IsNotExist(err) {
				t.Errorf("entry written outside destination: %v", err)
			}
		})
	}
}

func TestStripPrefix(t *testing.T) {
	tests := []struct {
		name, prefix string
		want         string
		ok           bool
	}{
		{"pkg", "pkg", "", true},
		{"pkg/bin/tool", "pkg", "bin/tool", true},
		{"pkg-docs/x", "pkg", "", false},
		{"other", "pkg", "", false},
		{"a/b/c/d", "a/b", "c/d", true},
		{"anything", "", "anything", true},
	}
	for _, tt := range tests {
		got, ok := stripPrefix(tt.name, tt.prefix)
		if got != tt.want || ok != tt.ok {
			t.Errorf("stripPrefix(%q, %q) = %q, %v; want %q, %v", tt.name, tt.prefix, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCleanArchivePath(t *testing.T) {
	tests := map[string]string{
		"pkg/":        "pkg",
		"./pkg//bin/": "pkg/bin",
		"./":          "",
		"pkg":         "pkg",
	}
	for in, want := range tests {
		if got := cleanArchivePath(in); got != want {
			t.Errorf("cleanArchivePath(%q) = %q, want %q", in, got, want)
		}
	}
}
