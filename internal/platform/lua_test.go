package platform

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestInjectPlatformTable_Linux(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{
		OS:        "linux",
		Arch:      "amd64",
		ArchRaw:   "x86_64",
		ArchToken: "x64",
		Distro:    "ubuntu",
		Family:    FamilyDebian,
		Version:   "22.04",
	}
	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	tests := []struct {
		name string
		code string
		want lua.LValue
	}{
		{"os", `return platform.os`, lua.LString("linux")},
		{"arch", `return platform.arch`, lua.LString("amd64")},
		{"arch_token", `return platform.arch_token`, lua.LString("x64")},
		{"arch_raw", `return platform.arch_raw`, lua.LString("x86_64")},
		{"is_linux", `return platform.is_linux`, lua.LTrue},
		{"is_macos", `return platform.is_macos`, lua.LFalse},
		{"is_windows", `return platform.is_windows`, lua.LFalse},
		{"is_apple_silicon", `return platform.is_apple_silicon`, lua.LFalse},
		{"distro.id", `return platform.distro.id`, lua.LString("ubuntu")},
		{"distro.family", `return platform.distro.family`, lua.LString("debian")},
		{"distro.version", `return platform.distro.version`, lua.LString("22.04")},
		{"when_true", `return platform.when(platform.is_linux, "yes")`, lua.LString("yes")},
		{"when_false", `return platform.when(platform.is_macos, "yes")`, lua.LNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := L.DoString(tt.code); err != nil {
				t.Fatalf("failed to execute code: %v", err)
			}
			got := L.Get(-1)
			L.Pop(1)

			if got.Type() != tt.want.Type() || got.String() != tt.want.String() {
				t.Errorf("got %v (%v), want %v (%v)", got, got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func TestInjectPlatformTable_MacOSHasNoDistro(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{OS: "darwin", Arch: "arm64", ArchRaw: "arm64", ArchToken: "arm64"}
	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	if err := L.DoString(`assert(platform.distro == nil, "distro should be nil")
assert(platform.is_apple_silicon, "expected apple silicon")`); err != nil {
		t.Fatalf("lua assertion failed: %v", err)
	}
}

func TestInjectPlatformTable_ReadOnly(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"modify_existing", `platform.os = "windows"`},
		{"add_new", `platform.custom = 1`},
		{"replace_metatable", `setmetatable(platform, {})`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			L := lua.NewState()
			defer L.Close()

			info := &Info{OS: "linux", Arch: "amd64", ArchToken: "x64"}
			if err := InjectPlatformTable(L, info); err != nil {
				t.Fatalf("InjectPlatformTable() error = %v", err)
			}

			err := L.DoString(tt.code)
			if err == nil {
				t.Fatal("expected error when modifying platform table")
			}
			if tt.name != "replace_metatable" && !strings.Contains(err.Error(), "read-only") {
				t.Errorf("error = %v, want read-only error", err)
			}
		})
	}
}
