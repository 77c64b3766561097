package drift

import (
	"os/exec"
	"path/filepath"
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// shadowingExecutable returns the executable called name found first on
// PATH when it is not one of installed. Symlinks are resolved on both
// sides.
func shadowingExecutable(name string, installed ...string) string {
	found, err := lookPath(name)
	if err != nil {
		return ""
	}
	active := resolve(found)
	for _, p := range installed {
		if p != "" && resolve(p) == active {
			return ""
		}
	}
	return active
}

func resolve(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
