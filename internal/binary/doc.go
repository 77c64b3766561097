// Package binary downloads, extracts, installs and verifies standalone
// executables.
//
// # Model
//
// A FetchRequest names a target path, a URL template, one or more checks
// and an optional ExtractionSpec. Fetcher.Fetch runs:
//
//	CheckLocal -> skip | download -> save -> chmod 0755 -> verify
//
// If the target already passes every check nothing is downloaded. A
// download that does not pass afterwards fails with
// ErrVerificationFailedAfterFetch. Nothing is retried.
//
// # Checks
//
//   - CustomCheck: a caller-supplied predicate
//   - VersionCheck: runs the executable and compares its output
//   - HashCheck: compares a digest with a published digest or checksum
//     manifest entry (sha256, sha1, sha512, md5, blake3)
//
// All checks must pass.
//
// # Extraction
//
// The response body streams through optional gzip and bzip2 decoders and
// then at most one of: a single tar member, a single zip member (spooled to
// a temporary file), or a tar subtree extracted into a directory with an
// optional symlink to the executable inside it.
//
// # Usage
//
//	f, err := binary.NewFetcher(info, binary.WithReporter(rep))
//	if err != nil {
//	    return err
//	}
//	res, err := f.Fetch(ctx, binary.FetchRequest{
//	    Target:  "/usr/local/bin/helm",
//	    URL:     "https://get.helm.sh/helm-v{version}-{platform}-{arch!x64ToAmd64}.tar.gz",
//	    Version: "3.5.4",
//	    Checks:  []binary.Check{binary.VersionCheck{Version: "3.5.4", ExecArgs: []string{"version", "--short"}}},
//	    Extraction: binary.ExtractionSpec{
//	        Gzip:      true,
//	        PathInTar: "{platform}-{arch!x64ToAmd64}/helm",
//	    },
//	})
package binary
