package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tdameron/freshen/internal/version"
)

const defaultGitHubBase = "https://api.github.com"

// GitHubBackend resolves releases from the GitHub Releases API.
type GitHubBackend struct {
	owner string
	repo  string
	cfg   clientConfig
}

// ghRelease is the JSON wire format of a GitHub release.
type ghRelease struct {
	TagName    string    `json:"tag_name"`
	Prerelease bool      `json:"prerelease"`
	Draft      bool      `json:"draft"`
	Assets     []ghAsset `json:"assets"`
}

// ghAsset is the JSON wire format of a GitHub release asset.
type ghAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// NewGitHub creates a backend for the owner/repo repository.
func NewGitHub(owner, repo string, opts ...Option) *GitHubBackend {
	b := &GitHubBackend{
		owner: owner,
		repo:  repo,
		cfg: clientConfig{
			httpClient: http.DefaultClient,
			baseURL:    defaultGitHubBase,
		},
	}
	for _, opt := range opts {
		opt(&b.cfg)
	}
	return b
}

func (b *GitHubBackend) header() http.Header {
	return http.Header{
		"Accept":               {"application/vnd.github+json"},
		"X-GitHub-Api-Version": {"2022-11-28"},
	}
}

// Latest resolves the newest stable release carrying an installer asset for
// app. It asks the dedicated latest-release endpoint first and falls back to
// scanning the paginated release list when that release is unusable (missing
// installer asset, or a tag that is not a version).
func (b *GitHubBackend) Latest(ctx context.Context, app string) (*Release, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", b.cfg.baseURL, b.owner, b.repo)
	resp, err := b.cfg.get(ctx, reqURL, b.header())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return latestInstallable(ctx, b, app)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(reqURL, resp)
	}

	var gr ghRelease
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&gr)
	resp.Body.Close()
	if decodeErr != nil {
		return nil, &TransportError{URL: reqURL, Err: decodeErr}
	}

	r := fromGitHub(gr)
	if r.Version == nil || r.Prerelease || !hasInstaller(app, r.Assets) {
		return latestInstallable(ctx, b, app)
	}
	return &r, nil
}

// ByTag resolves the release published under an exact tag. It uses the
// direct tag endpoint and falls back to pagination on 404, since some
// proxies of the API do not implement the tag route.
func (b *GitHubBackend) ByTag(ctx context.Context, app, tag string) (*Release, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s",
		b.cfg.baseURL, b.owner, b.repo, url.PathEscape(tag))
	resp, err := b.cfg.get(ctx, reqURL, b.header())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return findTag(ctx, b, app, tag)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(reqURL, resp)
	}

	var gr ghRelease
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&gr)
	resp.Body.Close()
	if decodeErr != nil {
		return nil, &TransportError{URL: reqURL, Err: decodeErr}
	}

	r := fromGitHub(gr)
	if r.Version == nil {
		_, perr := version.Parse(r.Tag)
		return nil, perr
	}
	return &r, nil
}

// Page fetches one page of the release list. The page token is the next-page
// URL from the previous response's Link header; empty requests the first
// page. Draft releases are dropped.
func (b *GitHubBackend) Page(ctx context.Context, app, pageToken string) ([]Release, string, error) {
	reqURL := pageToken
	if reqURL == "" {
		reqURL = fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d",
			b.cfg.baseURL, b.owner, b.repo, perPage)
	}
	resp, err := b.cfg.get(ctx, reqURL, b.header())
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", errorFromResponse(reqURL, resp)
	}

	var raw []ghRelease
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&raw)
	next := parseLinkHeader(resp.Header.Get("Link"))
	resp.Body.Close()
	if decodeErr != nil {
		return nil, "", &TransportError{URL: reqURL, Err: decodeErr}
	}

	releases := make([]Release, 0, len(raw))
	for _, gr := range raw {
		if gr.Draft {
			continue
		}
		releases = append(releases, fromGitHub(gr))
	}
	return releases, next, nil
}

func fromGitHub(gr ghRelease) Release {
	assets := make([]Asset, 0, len(gr.Assets))
	for _, ga := range gr.Assets {
		assets = append(assets, Asset{Name: ga.Name, DownloadURL: ga.BrowserDownloadURL})
	}
	return newRelease(gr.TagName, gr.Prerelease, assets)
}

// parseLinkHeader extracts the URL with rel="next" from a Link header.
// Returns "" when there is no next page.
//
// Example: <https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
func parseLinkHeader(header string) string {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}
