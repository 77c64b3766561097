package drift

import (
	"context"
	"testing"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/binary"
)

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{name: "bare", output: "1.21.0", want: "1.21.0"},
		{name: "prefixed", output: "Client Version: v1.21.0", want: "1.21.0"},
		{name: "first_match_wins", output: "helmfile 0.139.9 (go 1.16.3)", want: "0.139.9"},
		{name: "multiline", output: "sops 3.7.1 (latest)\nmore", want: "3.7.1"},
		{name: "no_version", output: "hello", wantErr: true},
		{name: "two_components", output: "v1.2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVersion(tt.output)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractVersion(%q) error = %v, wantErr %v", tt.output, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractVersion(%q) = %q, want %q", tt.output, got, tt.want)
			}
		})
	}
}

func TestInstalledVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeTool(t, dir, "tool", "v2.0.1")

	tests := []struct {
		name  string
		check binary.VersionCheck
		want  string
	}{
		{name: "post_process", check: binary.VersionCheck{PostProcess: stripV}, want: "2.0.1"},
		{name: "regex_fallback", check: binary.VersionCheck{}, want: "2.0.1"},
		{
			name: "post_process_error_falls_back",
			check: binary.VersionCheck{PostProcess: func(string) (string, error) {
				return "", context.Canceled
			}},
			want: "2.0.1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := installedVersion(context.Background(), path, tt.check); got != tt.want {
				t.Errorf("installedVersion() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := installedVersion(context.Background(), dir+"/missing", binary.VersionCheck{}); got != "" {
		t.Errorf("installedVersion(missing) = %q, want empty", got)
	}
}

func TestVersionCheck(t *testing.T) {
	checks := []binary.Check{
		binary.HashCheck{RemoteHashURL: "https://x"},
		binary.VersionCheck{Version: "1.0.0"},
		binary.VersionCheck{Version: "2.0.0"},
	}
	vc, ok := versionCheck(checks)
	if !ok || vc.Version != "1.0.0" {
		t.Errorf("versionCheck() = %+v, %v; want first version check", vc, ok)
	}
	if _, ok := versionCheck(checks[:1]); ok {
		t.Error("versionCheck() found a check in hash-only list")
	}
}
