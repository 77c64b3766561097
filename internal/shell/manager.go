package shell

import "fmt"

// Manager sets up shell integration in rc files.
type Manager struct {
	home string
}

// NewManager creates a shell manager.
func NewManager(config Config) *Manager {
	return &Manager{home: config.Home}
}

// SetupIntegration adds the activation line to the rc file of shell.
func (m *Manager) SetupIntegration(shell ShellType, opts SetupOptions) (*SetupResult, error) {
	if err := ValidateShell(shell); err != nil {
		return nil, err
	}

	rcPath, err := GetRCFilePath(shell, m.home)
	if err != nil {
		return nil, fmt.Errorf("get rc file path: %w", err)
	}
	activationCmd, err := GenerateActivationCommand(shell)
	if err != nil {
		return nil, fmt.Errorf("generate activation command: %w", err)
	}

	exists, err := RCFileExists(rcPath)
	if err != nil {
		return nil, fmt.Errorf("check rc file: %w", err)
	}

	hasActivation := false
	if exists {
		if hasActivation, err = HasActivationLine(rcPath); err != nil {
			return nil, fmt.Errorf("check activation line: %w", err)
		}
	}

	result := &SetupResult{
		Shell:             shell,
		RCFile:            rcPath,
		AlreadyPresent:    hasActivation,
		ActivationCommand: activationCmd,
	}
	if (hasActivation && !opts.Force) || opts.DryRun {
		return result, nil
	}

	if !exists {
		if err := CreateRCFile(rcPath); err != nil {
			return nil, fmt.Errorf("create rc file: %w", err)
		}
	} else if opts.Backup {
		if result.BackupPath, err = BackupRCFile(rcPath); err != nil {
			return nil, fmt.Errorf("backup rc file: %w", err)
		}
	}

	if err := AddActivationLine(rcPath, activationCmd); err != nil {
		return nil, fmt.Errorf("add activation line: %w", err)
	}
	result.Added = true
	return result, nil
}

// DetectAndSetup detects the user's shell and sets up integration.
func (m *Manager) DetectAndSetup(opts SetupOptions) (*SetupResult, error) {
	detection, err := DetectShell()
	if err != nil {
		return nil, fmt.Errorf("detect shell: %w", err)
	}
	if !detection.Shell.IsValid() {
		return nil, &UnsupportedShellError{Shell: detection.ShellPath}
	}
	return m.SetupIntegration(detection.Shell, opts)
}
