package binary

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ExecutableMode is the permission set on installed executables.
const ExecutableMode os.FileMode = 0755

// saveFile replaces dest with the contents of r. An existing file is
// removed first; if writing fails the partial file is removed too, so dest
// is either absent or complete.
func saveFile(r io.Reader, dest string) (int64, error) {
	if err := removeIfExists(dest); err != nil {
		return 0, err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, ExecutableMode)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", dest, cerr)
	}
	if err != nil {
		_ = os.Remove(dest)
		return n, fmt.Errorf("write %s: %w", dest, err)
	}
	return n, nil
}

// setExecutable sets ExecutableMode on path.
func setExecutable(path string) error {
	if err := os.Chmod(path, ExecutableMode); err != nil {
		return fmt.Errorf("set permissions on %s: %w", path, err)
	}
	return nil
}

// linkExecutable points symlinkPath at target using a path relative to the
// symlink's directory, replacing whatever was at symlinkPath.
func linkExecutable(symlinkPath, target string) error {
	rel, err := filepath.Rel(filepath.Dir(symlinkPath), target)
	if err != nil {
		return fmt.Errorf("relative path for symlink %s: %w", symlinkPath, err)
	}
	if err := removeIfExists(symlinkPath); err != nil {
		return err
	}
	if err := os.Symlink(rel, symlinkPath); err != nil {
		return fmt.Errorf("create symlink %s: %w", symlinkPath, err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// exists reports whether something is at path without following symlinks.
func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
