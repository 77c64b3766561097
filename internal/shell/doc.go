// Package shell puts the exefetch bin dir on the user's PATH.
//
// Users add one line to their shell rc file:
//
//	eval "$(exefetch shellenv bash)"      # bash, zsh
//	exefetch shellenv fish | source       # fish
//
// and `exefetch shellenv` prints a PATH update for the bin dir that is in
// effect when the shell starts, so EXEFETCH_BIN_DIR changes need no rc
// edit.
//
// # Shell Detection
//
// DetectShell tries $SHELL first and then the name of the parent process
// (gopsutil). Only bash, zsh and fish are supported.
//
// # RC File Safety
//
// AddActivationLine only writes recognized activation commands, refuses
// symlinked rc files and replaces the file through a temp file and rename.
package shell
