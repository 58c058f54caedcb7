// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"yarnpin/internal/artifact"
)

// maxArtifactBytes is the upper bound on a downloaded release (100 MB).
// The pinned single-file distributions are a few MB; anything near this
// limit is a wrong URL, not a release.
const maxArtifactBytes = 100 << 20

// ErrDownloadFailed is the sentinel wrapped by transport and HTTP status
// failures during Fetch.
var ErrDownloadFailed = errors.New("artifact download failed")

type (
	// Provisioner guarantees the pinned artifact is present and trusted in
	// the local cache. It performs no retries and no resumption; a fetch
	// either completes and verifies in one pass or fails.
	Provisioner struct {
		desc       artifact.Descriptor
		cachePath  string
		httpClient *http.Client
		logger     *log.Logger
	}

	// Option configures a Provisioner during construction.
	Option func(*Provisioner)
)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provisioner) {
		p.httpClient = c
	}
}

// WithLogger overrides the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Provisioner) {
		p.logger = l
	}
}

// New creates a Provisioner for the given descriptor and cache path.
func New(desc artifact.Descriptor, cachePath string, opts ...Option) *Provisioner {
	p := &Provisioner{
		desc:      desc,
		cachePath: cachePath,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.httpClient == nil {
		p.httpClient = http.DefaultClient
	}
	if p.logger == nil {
		p.logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "provision",
		})
	}
	return p
}

// CachePath returns the local cache location the provisioner manages.
func (p *Provisioner) CachePath() string { return p.cachePath }

// Present reports whether the cache entry exists. Content is not
// inspected; presence alone marks the entry trusted.
func (p *Provisioner) Present() bool {
	info, err := os.Stat(p.cachePath)
	return err == nil && !info.IsDir()
}

// Ensure makes the artifact available: a no-op when the cache entry
// already exists (no network call, regardless of content validity),
// otherwise one Fetch. Returns true when the artifact is available on
// return.
func (p *Provisioner) Ensure(ctx context.Context) (bool, error) {
	if p.Present() {
		return true, nil
	}

	if err := p.Fetch(ctx); err != nil {
		return false, err
	}

	return true, nil
}

// Fetch downloads the pinned release, verifies its SHA-256 digest against
// the pin, and writes it to the cache path. On a digest mismatch nothing
// is written and a *ChecksumError is returned. The write goes through a
// temp file in the target directory followed by an atomic rename, so a
// crash mid-write cannot leave a truncated cache entry.
func (p *Provisioner) Fetch(ctx context.Context) error {
	url := p.desc.URL()

	p.logger.Info("downloading artifact",
		"name", p.desc.Name,
		"version", p.desc.Version,
		"url", url)

	body, err := p.download(ctx, url)
	if err != nil {
		return err
	}

	p.logger.Debug("validating artifact", "bytes", len(body))

	// Verification happens before any filesystem activity on the cache
	// path; a corrupted or tampered download is never cached.
	if err := VerifyBytes(p.desc.Filename(), body, p.desc.SHA256); err != nil {
		var cerr *ChecksumError
		if errors.As(err, &cerr) {
			p.logger.Error("downloaded artifact doesn't match pinned digest",
				"expected", cerr.Expected,
				"got", cerr.Got)
		}
		return err
	}

	p.logger.Info("writing artifact", "path", p.cachePath)

	if err := p.writeAtomic(body); err != nil {
		return err
	}

	return nil
}

// Verify re-hashes the existing cache entry against the pinned digest.
// Returns an error when the entry is absent or its content no longer
// matches the pin.
func (p *Provisioner) Verify() error {
	if !p.Present() {
		return fmt.Errorf("artifact not present at %s", p.cachePath)
	}
	return VerifyFile(p.cachePath, p.desc.SHA256)
}

// download performs the single blocking GET for the release body. Any
// transport error or non-2xx status wraps ErrDownloadFailed; there are no
// retries.
func (p *Provisioner) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: unexpected status %d", ErrDownloadFailed, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response from %s: %v", ErrDownloadFailed, url, err)
	}
	if len(body) > maxArtifactBytes {
		return nil, fmt.Errorf("%w: %s: response exceeds %d bytes", ErrDownloadFailed, url, maxArtifactBytes)
	}

	return body, nil
}

// writeAtomic writes body to the cache path via a temp file in the same
// directory and an os.Rename, which is atomic on a single filesystem.
func (p *Provisioner) writeAtomic(body []byte) error {
	dir := filepath.Dir(p.cachePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+p.desc.Filename()+".*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	// Track whether the rename succeeded so the deferred cleanup knows
	// whether to remove the temp file.
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("setting artifact permissions: %w", err)
	}

	if err := os.Rename(tmpPath, p.cachePath); err != nil {
		return fmt.Errorf("moving artifact into place: %w", err)
	}
	renamed = true

	return nil
}
