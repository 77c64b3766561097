// Package platform detects the host operating system and architecture and
// turns them into the placeholder values used by download templates.
//
// Detection uses runtime.GOOS/GOARCH for the basics and gopsutil for Linux
// distribution details. Distribution detection failures are not fatal.
package platform

import (
	"context"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/template"
)

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS        string // "linux", "darwin", "windows"
	Arch      string // normalized GOARCH: "amd64", "arm64", "386", "arm"
	ArchRaw   string // value the architecture was detected from
	ArchToken string // template token: "x64", "arm64", "ia32", "arm"
	Distro    string // distro ID (Linux only, e.g., "ubuntu")
	Family    string // canonical family (e.g., "debian")
	Version   string // distro version (e.g., "22.04")
}

// Placeholders returns the template context for a request declaring version.
// An empty version leaves {version} undefined.
func (i *Info) Placeholders(version string) template.Context {
	return template.Context{
		Version:  version,
		Platform: i.OS,
		Arch:     i.ArchToken,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool { return i.OS == "linux" }

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool { return i.OS == "darwin" }

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool { return i.OS == "windows" }

// IsAppleSilicon returns true if running on macOS on arm64.
func (i *Info) IsAppleSilicon() bool { return i.OS == "darwin" && i.Arch == "arm64" }

// HasDistro reports whether Linux distribution details were detected.
func (i *Info) HasDistro() bool { return i.IsLinux() && i.Distro != "" }

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. It lets callers simulate another
// platform, e.g. to print the URLs a catalog resolves to on darwin.
type StaticDetector struct {
	Info *Info
}

// Detect returns a copy of the configured Info.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	info := *s.Info
	return &info, nil
}

// Override wraps a detector and replaces OS and/or architecture when set.
// arch is a GOARCH value or an already-tokenized value such as "x64".
func Override(base Detector, goos, arch string) Detector {
	if goos == "" && arch == "" {
		return base
	}
	return &overrideDetector{base: base, goos: goos, arch: arch}
}

type overrideDetector struct {
	base Detector
	goos string
	arch string
}

func (o *overrideDetector) Detect(ctx context.Context) (*Info, error) {
	info, err := o.base.Detect(ctx)
	if err != nil {
		return nil, err
	}
	if o.goos != "" {
		info.OS = normalizePlatform(o.goos)
		if !info.IsLinux() {
			info.Distro, info.Family, info.Version = "", "", ""
		}
	}
	if o.arch != "" {
		arch, err := normalizeArch(o.arch)
		if err != nil {
			return nil, err
		}
		info.Arch = arch
		info.ArchRaw = o.arch
		info.ArchToken = archToken(arch)
	}
	return info, nil
}
