// Package release resolves app releases from remote release hosts.
//
// Two backend variants exist: GitHubBackend for apps hosted on GitHub
// Releases and DepotBackend for apps published to a first-party release
// depot. Both present the same Backend interface so the update engine can
// stay host-agnostic.
package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tdameron/freshen/internal/version"
)

const (
	// perPage is the number of releases fetched per API page.
	perPage = 30

	// maxResponseBytes bounds JSON API response size (10 MB).
	maxResponseBytes = 10 << 20

	// snippetBytes bounds the error-body excerpt carried in TransportError.
	snippetBytes = 256
)

var (
	// ErrNotFound indicates no release satisfied the query, including a tag
	// search that exhausted all pages.
	ErrNotFound = errors.New("release not found")
	// ErrNoMatchingAsset indicates a release exists but carries no installer
	// artifact usable on this platform.
	ErrNoMatchingAsset = errors.New("no matching installer asset")
)

// TransportError reports a failed exchange with a release host: either the
// request itself failed (Err set) or the host answered with a non-success
// status (StatusCode and a bounded body Snippet set).
type TransportError struct {
	URL        string
	StatusCode int
	Snippet    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	if e.Snippet != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.URL, e.StatusCode, e.Snippet)
	}
	return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Asset is one downloadable artifact attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
}

// Release is one published release of an app.
// Version is nil when the tag does not parse as a semantic version; such
// releases are skipped during latest-selection.
type Release struct {
	Tag        string
	Version    *version.Version
	Prerelease bool
	Assets     []Asset
}

// Backend resolves releases for one app on one release host.
// The empty page token requests the first page; an empty returned token
// means the listing is exhausted.
type Backend interface {
	Latest(ctx context.Context, app string) (*Release, error)
	ByTag(ctx context.Context, app, tag string) (*Release, error)
	Page(ctx context.Context, app, pageToken string) ([]Release, string, error)
}

// clientConfig holds the HTTP settings shared by both backend variants.
type clientConfig struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// Option configures a backend during construction.
type Option func(*clientConfig)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithBaseURL overrides the release host's API base URL, primarily for
// test servers.
func WithBaseURL(base string) Option {
	return func(cfg *clientConfig) {
		cfg.baseURL = strings.TrimRight(base, "/")
	}
}

// WithToken sets an API token for authenticated requests.
func WithToken(token string) Option {
	return func(cfg *clientConfig) {
		cfg.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(cfg *clientConfig) {
		cfg.userAgent = ua
	}
}

// get executes a GET request with the shared headers. Request failures are
// wrapped in *TransportError; the response status is the caller's to check.
func (cfg *clientConfig) get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if cfg.userAgent != "" {
		req.Header.Set("User-Agent", cfg.userAgent)
	}
	if cfg.token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.token)
	}
	resp, err := cfg.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return resp, nil
}

// errorFromResponse drains a bounded excerpt of a non-success response body
// into a *TransportError and closes the body.
func errorFromResponse(url string, resp *http.Response) *TransportError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, snippetBytes))
	return &TransportError{
		URL:        url,
		StatusCode: resp.StatusCode,
		Snippet:    strings.TrimSpace(string(body)),
	}
}

// newRelease builds a Release from a tag, tolerating unparsable tags.
func newRelease(tag string, prerelease bool, assets []Asset) Release {
	r := Release{Tag: tag, Prerelease: prerelease, Assets: assets}
	if v, err := version.Parse(tag); err == nil {
		r.Version = v
		if v.IsPrerelease() {
			r.Prerelease = true
		}
	}
	return r
}

// findTag pages through the backend's release list until it finds the tag.
// An unparsable tag surfaces the version parse failure; exhausting every
// page returns ErrNotFound.
func findTag(ctx context.Context, b Backend, app, tag string) (*Release, error) {
	token := ""
	for {
		releases, next, err := b.Page(ctx, app, token)
		if err != nil {
			return nil, err
		}
		for i := range releases {
			if releases[i].Tag != tag {
				continue
			}
			if releases[i].Version == nil {
				_, perr := version.Parse(tag)
				return nil, perr
			}
			return &releases[i], nil
		}
		if next == "" {
			return nil, fmt.Errorf("%w: tag %s", ErrNotFound, tag)
		}
		token = next
	}
}

// latestInstallable pages through every release and returns the stable
// release with the highest version that carries an installer asset for app.
func latestInstallable(ctx context.Context, b Backend, app string) (*Release, error) {
	var best *Release
	token := ""
	for {
		releases, next, err := b.Page(ctx, app, token)
		if err != nil {
			return nil, err
		}
		for i := range releases {
			r := &releases[i]
			if r.Version == nil || r.Prerelease || !hasInstaller(app, r.Assets) {
				continue
			}
			if best == nil || r.Version.GreaterThan(best.Version) {
				best = r
			}
		}
		if next == "" {
			break
		}
		token = next
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no installable release for %s", ErrNotFound, app)
	}
	return best, nil
}
