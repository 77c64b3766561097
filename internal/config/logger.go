package config

import "github.com/ZebulonRouseFrantzich/exefetch/internal/binary"

// Logger provides structured logging for catalog operations.
// It is the same shape as binary.Logger so one *slog.Logger serves both.
type Logger = binary.Logger

// noopLogger is the default when none is provided.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
