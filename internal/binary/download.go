package binary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZebulonRouseFrantzich/exefetch/internal/report"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "exefetch/1.0"
	// MaxHashResponseSize caps the body read for remote digests and
	// checksum manifests.
	MaxHashResponseSize = 4 << 20
	maxRedirects        = 10
)

// Downloader performs streamed HTTP GETs. It does not retry.
type Downloader struct {
	client    *http.Client
	userAgent string
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = c }
}

// WithUserAgent replaces DefaultUserAgent.
func WithUserAgent(ua string) DownloaderOption {
	return func(d *Downloader) { d.userAgent = ua }
}

// NewDownloader creates a new downloader
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open issues a GET for url and returns the response body. The caller must
// close it. ContentLength is -1 when the server did not send it.
func (d *Downloader) Open(ctx context.Context, url string) (body io.ReadCloser, contentLength int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, ErrTransport.New("create request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, ErrTransport.Wrap(fmt.Errorf("get %s: %w", url, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, 0, ErrTransport.New("get %s: unexpected status code: %d", url, resp.StatusCode)
	}

	return resp.Body, resp.ContentLength, nil
}

// Get returns the body of url. Bodies larger than MaxHashResponseSize are
// refused rather than truncated.
func (d *Downloader) Get(ctx context.Context, url string) ([]byte, error) {
	body, _, err := d.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxHashResponseSize+1))
	if err != nil {
		return nil, ErrTransport.Wrap(fmt.Errorf("read %s: %w", url, err))
	}
	if len(data) > MaxHashResponseSize {
		return nil, ErrTransport.New("response from %s exceeds %d bytes", url, MaxHashResponseSize)
	}
	return data, nil
}

// progressReader counts bytes read from the response body and feeds them to
// a throttled progress reporter. Read failures are transport errors.
type progressReader struct {
	r        io.Reader
	n        int64
	progress *report.Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.n += int64(n)
		p.progress.Add(n)
	}
	if err != nil && err != io.EOF {
		err = ErrTransport.Wrap(err)
	}
	return n, err
}
