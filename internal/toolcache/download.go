package toolcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// ReleaseBaseURL is the default host release assets are fetched from.
const ReleaseBaseURL = "https://github.com"

// AssetURL returns the download URL for a linux/amd64 release asset of a
// tool hosted at owner/repo, following the fixed
// .../releases/download/v<version>/<name>-linux-amd64 layout.
func AssetURL(base, owner, repo, name, version string) string {
	return fmt.Sprintf("%s/%s/%s/releases/download/v%s/%s-linux-amd64", base, owner, repo, version, name)
}

type downloaderOptions struct {
	token   string
	verbose bool
	// writer receives verbose HTTP logs (typically stderr) so stdout stays
	// clean for the wrapped tool's own output.
	writer io.Writer
}

type DownloaderOption func(*downloaderOptions)

// WithToken authenticates download requests. Release assets are public, but
// authenticated requests avoid the anonymous rate limit on busy runners.
func WithToken(token string) DownloaderOption {
	return func(o *downloaderOptions) {
		o.token = token
	}
}

func WithVerbose(enabled bool, writer io.Writer) DownloaderOption {
	return func(o *downloaderOptions) {
		o.verbose = enabled
		o.writer = writer
	}
}

// loggingRoundTripper wraps an underlying transport and emits one line per
// request and response (including latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base http.RoundTripper
	w    io.Writer
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if t.w != nil {
		_, _ = fmt.Fprintf(t.w, "[verbose] download: %s %s\n", req.Method, req.URL.String())
	}
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start)
	if t.w != nil {
		if err != nil {
			_, _ = fmt.Fprintf(t.w, "[verbose] download: error after %s: %v\n", dur.Truncate(time.Millisecond), err)
		} else {
			_, _ = fmt.Fprintf(t.w, "[verbose] download: %d %s (%s)\n", resp.StatusCode, http.StatusText(resp.StatusCode), dur.Truncate(time.Millisecond))
		}
	}
	return resp, err
}

// Downloader fetches release assets over HTTP.
type Downloader struct {
	client *http.Client
}

func NewDownloader(opts ...DownloaderOption) *Downloader {
	o := &downloaderOptions{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, w: o.writer}
	}
	if o.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}

	return &Downloader{client: &http.Client{Transport: transport}}
}

// Fetch downloads url into dest and marks it executable. Any network or
// filesystem failure is fatal for the run; no retries.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	// The cache treats existence of the final path as a hit, so a partial
	// download must never land there. Write to a temp file in the same dir
	// and rename into place only once the body is fully written.
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".partial-*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("marking %s executable: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storing %s: %w", dest, err)
	}
	return nil
}
