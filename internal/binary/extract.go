package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/zeebo/errs"
)

// stage wraps a reader. The returned closer releases whatever the stage
// opened and is never nil.
type stage func(io.Reader) (io.Reader, func() error, error)

// pipeline is an ordered list of stages applied to a download body.
type pipeline []stage

// open applies every stage in order. On success the returned closer closes
// all stages in reverse order; on failure the stages already opened are
// closed before returning.
func (p pipeline) open(r io.Reader) (io.Reader, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var group errs.Group
		for i := len(closers) - 1; i >= 0; i-- {
			group.Add(closers[i]())
		}
		return group.Err()
	}

	for _, s := range p {
		next, closer, err := s(r)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, closer)
		r = next
	}
	return r, closeAll, nil
}

func nopCloser() error { return nil }

// decompressStages returns the gzip and bzip2 stages requested by spec.
func decompressStages(spec ExtractionSpec) pipeline {
	var p pipeline
	if spec.Gzip {
		p = append(p, gunzipStage)
	}
	if spec.Bzip2 {
		p = append(p, bunzip2Stage)
	}
	return p
}

func gunzipStage(r io.Reader) (io.Reader, func() error, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("create gzip reader: %w", err)
	}
	return zr, zr.Close, nil
}

func bunzip2Stage(r io.Reader) (io.Reader, func() error, error) {
	return bzip2.NewReader(r), nopCloser, nil
}

// tarMemberStage returns a stage yielding the contents of the first tar
// entry named name. Entries before it are skipped by the tar reader.
func tarMemberStage(name string) stage {
	return func(r io.Reader) (io.Reader, func() error, error) {
		tr := tar.NewReader(r)
		for {
			header, err := tr.Next()
			if errors.Is(err, io.EOF) {
				return nil, nil, ErrMemberNotFound.New("%s not found in tar", name)
			}
			if err != nil {
				return nil, nil, fmt.Errorf("read tar header: %w", err)
			}
			if header.Name == name {
				return tr, nopCloser, nil
			}
		}
	}
}

// zipMemberStage spools the stream to a temporary file, since zip needs
// random access, and yields the contents of the regular file named name.
func zipMemberStage(name string) stage {
	return func(r io.Reader) (io.Reader, func() error, error) {
		spool, err := os.CreateTemp("", "exefetch-*.zip")
		if err != nil {
			return nil, nil, fmt.Errorf("create zip spool: %w", err)
		}
		cleanup := func() error {
			return errs.Combine(spool.Close(), os.Remove(spool.Name()))
		}

		size, err := io.Copy(spool, r)
		if err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("spool zip: %w", err)
		}

		zr, err := zip.NewReader(spool, size)
		if err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("open zip: %w", err)
		}

		for _, f := range zr.File {
			if f.Name != name || f.FileInfo().IsDir() {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				_ = cleanup()
				return nil, nil, fmt.Errorf("open %s in zip: %w", name, err)
			}
			return rc, func() error { return errs.Combine(rc.Close(), cleanup()) }, nil
		}

		_ = cleanup()
		return nil, nil, ErrMemberNotFound.New("%s not found in zip", name)
	}
}

// extractTarDir writes every entry at or below prefix in the tar stream r to
// dest, stripping prefix from the entry names. dest is removed first.
// All writes go through an os.Root on dest, so an entry that would resolve
// outside dest, including through a symlink written earlier by the same
// archive, fails the extraction.
// It returns the number of bytes written to regular files.
func extractTarDir(r io.Reader, prefix, dest string) (int64, error) {
	prefix = cleanArchivePath(prefix)

	if err := os.RemoveAll(dest); err != nil {
		return 0, fmt.Errorf("remove destination: %w", err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}
	root, err := os.OpenRoot(dest)
	if err != nil {
		return 0, fmt.Errorf("open destination: %w", err)
	}
	defer func() { _ = root.Close() }()

	var (
		matched int
		written int64
	)
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("read tar header: %w", err)
		}

		rel, ok := stripPrefix(cleanArchivePath(header.Name), prefix)
		if !ok {
			continue
		}
		matched++
		if rel == "" {
			continue
		}

		name := filepath.FromSlash(rel)
		if !filepath.IsLocal(name) {
			return written, fmt.Errorf("illegal file path: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := root.MkdirAll(name, header.FileInfo().Mode().Perm()|0700); err != nil {
				return written, fmt.Errorf("create directory %s: %w", name, err)
			}

		case tar.TypeReg:
			n, err := writeEntry(root, tr, name, header.FileInfo().Mode().Perm())
			written += n
			if err != nil {
				return written, err
			}

		case tar.TypeSymlink:
			link := filepath.FromSlash(header.Linkname)
			if filepath.IsAbs(link) || !filepath.IsLocal(filepath.Join(filepath.Dir(name), link)) {
				return written, fmt.Errorf("illegal symlink target: %s -> %s", header.Name, header.Linkname)
			}
			if err := mkdirParent(root, name); err != nil {
				return written, err
			}
			if err := root.Symlink(header.Linkname, name); err != nil {
				return written, fmt.Errorf("create symlink %s: %w", name, err)
			}
		}
	}

	if matched == 0 {
		return written, ErrMemberNotFound.New("%s not found in tar", prefix)
	}
	return written, nil
}

func writeEntry(root *os.Root, r io.Reader, name string, mode os.FileMode) (int64, error) {
	if err := mkdirParent(root, name); err != nil {
		return 0, err
	}
	out, err := root.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, fmt.Errorf("create file %s: %w", name, err)
	}
	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write file %s: %w", name, err)
	}
	return n, nil
}

func mkdirParent(root *os.Root, name string) error {
	dir := filepath.Dir(name)
	if dir == "." {
		return nil
	}
	if err := root.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", name, err)
	}
	return nil
}

// cleanArchivePath normalizes a slash-separated archive path: trailing
// separators and "./" prefixes are removed.
func cleanArchivePath(p string) string {
	p = path.Clean(strings.TrimRight(p, "/"))
	if p == "." {
		return ""
	}
	return p
}

// stripPrefix returns name relative to prefix, and whether name is prefix
// itself or lies below it.
func stripPrefix(name, prefix string) (string, bool) {
	if name == prefix {
		return "", true
	}
	if prefix == "" {
		return name, name != ""
	}
	rest, ok := strings.CutPrefix(name, prefix+"/")
	if !ok {
		return "", false
	}
	return rest, true
}
