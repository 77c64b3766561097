package binary

import (
	"github.com/zeebo/errs"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/template"
)

// Error classes returned by Fetch and Verify. Test with Class.Has(err).
var (
	// ErrConfiguration marks an invalid FetchRequest. It is returned before
	// any network access.
	ErrConfiguration = errs.Class("configuration error")

	// ErrTransport marks a failed HTTP request or a non-2xx response.
	ErrTransport = errs.Class("transport error")

	// ErrMemberNotFound marks an archive that does not contain the
	// requested file or directory.
	ErrMemberNotFound = errs.Class("member not found")

	// ErrChecksumEntryNotFound marks a checksum manifest without a line for
	// the requested path.
	ErrChecksumEntryNotFound = errs.Class("checksum entry not found")

	// ErrVerificationFailedAfterFetch marks a download that was saved but
	// did not pass its checks.
	ErrVerificationFailedAfterFetch = errs.Class("verification failed after fetch")
)

// ErrTemplate is the template expansion error class.
var ErrTemplate = &template.Error
