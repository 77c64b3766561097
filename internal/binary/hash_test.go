package binary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		method string
		want   string
	}{
		{"", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"sha256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"SHA1", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"md5", "900150983cd24fb0d6963f7d28e17f72"},
		{"sha512", "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
		{"blake3", "6437b3ac38465133ffb63b75273a8db548c558465d79db03fd359c6cd5bd9d85"},
	}

	for _, tt := range tests {
		t.Run("method_"+tt.method, func(t *testing.T) {
			got, err := HashFile(path, tt.method)
			if err != nil {
				t.Fatalf("HashFile error: %v", err)
			}
			if got != tt.want {
				t.Errorf("HashFile(%q) = %s, want %s", tt.method, got, tt.want)
			}
		})
	}
}

func TestHashFile_UnsupportedMethod(t *testing.T) {
	_, err := HashFile("irrelevant", "crc32")
	if !ErrConfiguration.Has(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestFindChecksum(t *testing.T) {
	manifest := strings.Join([]string{
		"1111111111111111  bin/gomplate_darwin-amd64",
		"2222222222222222  bin/gomplate_linux-amd64",
		"3333333333333333 bin/gomplate_linux-arm64",
		"",
		"no-space-line",
		"4444444444444444   bin/gomplate_windows-amd64.exe  \r",
	}, "\n")

	tests := []struct {
		name    string
		entry   string
		want    string
		wantErr bool
	}{
		{name: "double_space", entry: "bin/gomplate_linux-amd64", want: "2222222222222222"},
		{name: "single_space", entry: "bin/gomplate_linux-arm64", want: "3333333333333333"},
		{name: "trailing_whitespace_and_cr", entry: "bin/gomplate_windows-amd64.exe", want: "4444444444444444"},
		{name: "no_basename_match", entry: "gomplate_linux-amd64", wantErr: true},
		{name: "missing", entry: "bin/gomplate_freebsd-amd64", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindChecksum(strings.NewReader(manifest), tt.entry)
			if tt.wantErr {
				if !ErrChecksumEntryNotFound.Has(err) {
					t.Errorf("expected ErrChecksumEntryNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindChecksum error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FindChecksum(%q) = %q, want %q", tt.entry, got, tt.want)
			}
		})
	}
}

func TestDigestsEqual(t *testing.T) {
	if !digestsEqual(" ABCDEF\n", "abcdef") {
		t.Error("digests should compare case-insensitively and trimmed")
	}
	if digestsEqual("abc", "abd") {
		t.Error("different digests should not be equal")
	}
}
