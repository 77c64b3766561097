package binary

import (
	"bufio"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// DefaultHashMethod is used when HashCheck.Method is empty.
const DefaultHashMethod = "sha256"

var hashMethods = map[string]func() hash.Hash{
	"sha256": sha256.New,
	"sha1":   sha1.New,
	"sha512": sha512.New,
	"md5":    md5.New,
	"blake3": func() hash.Hash { return blake3.New() },
}

// HashMethods returns the supported hash method names, sorted.
func HashMethods() []string {
	names := make([]string, 0, len(hashMethods))
	for name := range hashMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func hasherFor(method string) (func() hash.Hash, error) {
	if method == "" {
		method = DefaultHashMethod
	}
	h, ok := hashMethods[strings.ToLower(method)]
	if !ok {
		return nil, ErrConfiguration.New("unsupported hash method %q (supported: %s)", method, strings.Join(HashMethods(), ", "))
	}
	return h, nil
}

// HashFile returns the lowercase hex digest of the file at path.
func HashFile(path, method string) (string, error) {
	newHash, err := hasherFor(method)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := newHash()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FindChecksum returns the digest for entryPath in a checksum manifest.
//
// Each line is "<digest> <path>": the line is split at its first space and
// both halves are trimmed, so any run of separating spaces works. The path
// must match exactly. Lines without a space are ignored.
func FindChecksum(r io.Reader, entryPath string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		digest, name, ok := strings.Cut(scanner.Text(), " ")
		if !ok {
			continue
		}
		if strings.TrimSpace(name) == entryPath {
			return strings.TrimSpace(digest), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}
	return "", ErrChecksumEntryNotFound.New("no entry for %s in checksum file", entryPath)
}

// digestsEqual compares two hex digests ignoring case and surrounding space.
func digestsEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
