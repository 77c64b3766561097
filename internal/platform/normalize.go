package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// archTokens maps normalized GOARCH values to the architecture tokens used in
// download templates. Catalog filters such as x64ToAmd64 operate on these.
var archTokens = map[string]string{
	"amd64": "x64",
	"386":   "ia32",
	"arm64": "arm64",
	"arm":   "arm",
}

// normalizeArch converts GOARCH values, uname-style machine names and
// template tokens to a normalized GOARCH value.
func normalizeArch(arch string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "amd64", "x86_64", "x64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	case "386", "i386", "i686", "x86", "ia32":
		return "386", nil
	case "arm", "armv7", "armv7l", "armv6l":
		return "arm", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %q", arch)
	}
}

// archToken returns the template token for a normalized GOARCH value.
func archToken(arch string) string {
	if token, ok := archTokens[arch]; ok {
		return token
	}
	return arch
}

// normalizePlatform lowercases and trims platform IDs.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
