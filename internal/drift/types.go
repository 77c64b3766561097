// Package drift reports whether the tools of a catalog are installed as
// declared. It runs only local checks: it never downloads an executable,
// and it fetches remote digests only when hash checks are enabled.
package drift

// Status is the state of one installed tool.
type Status int

const (
	StatusOK Status = iota
	StatusVersionMismatch
	StatusMissing
	StatusCheckFailed
	// StatusUnverified means the file is present but every declared check
	// was a hash check and hash checks were disabled.
	StatusUnverified
)

// String returns the report name of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusVersionMismatch:
		return "VERSION_MISMATCH"
	case StatusMissing:
		return "MISSING"
	case StatusCheckFailed:
		return "CHECK_FAILED"
	case StatusUnverified:
		return "UNVERIFIED"
	default:
		return "UNKNOWN"
	}
}

// Symbol returns the visual marker for a Status.
func (s Status) Symbol() string {
	switch s {
	case StatusOK:
		return "✓"
	case StatusMissing:
		return "✗"
	case StatusVersionMismatch, StatusCheckFailed:
		return "!"
	default:
		return "?"
	}
}

// Result is the drift status of one tool.
type Result struct {
	Tool   string
	Status Status
	// Path is the executable the checks ran against.
	Path string

	WantVersion string
	// InstalledVersion is what the installed executable reports, when it
	// could be determined.
	InstalledVersion string

	// ActivePath is the executable of the same name found first on PATH,
	// when it differs from Path.
	ActivePath string

	// Err is set when a check could not be evaluated.
	Err error
}

// Drifted reports whether the result needs attention. Unverified tools
// are not drifted.
func (r Result) Drifted() bool {
	return r.Status != StatusOK && r.Status != StatusUnverified
}
