package shell

// Environment variable names read by shell integration
const (
	// EnvBinDir overrides the bin dir put on PATH.
	EnvBinDir = "EXEFETCH_BIN_DIR"
)

// Activation and backup markers
const (
	// ActivationMarker is the string that must appear in activation commands
	ActivationMarker = "exefetch shellenv"

	// BackupSuffix is appended to the rc file path for backups
	BackupSuffix = ".exefetch-backup"

	// sectionComment precedes the activation line in rc files
	sectionComment = "# exefetch - put fetched executables on PATH"
)
