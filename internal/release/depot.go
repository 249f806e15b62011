package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const defaultDepotBase = "https://depot.freshen.dev"

// DepotBackend resolves releases from a first-party release depot.
// The depot lists releases newest-first by publication time, which is not
// version order, so latest-selection always scans the full listing.
type DepotBackend struct {
	owner string
	app   string
	cfg   clientConfig
}

// depotPage is the JSON wire format of one page of the depot release index.
type depotPage struct {
	Releases []depotRelease `json:"releases"`
	NextPage *int           `json:"next_page"`
}

type depotRelease struct {
	TagName    string       `json:"tag_name"`
	Prerelease bool         `json:"prerelease"`
	Assets     []depotAsset `json:"assets"`
}

type depotAsset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
}

// NewDepot creates a backend for the owner's app on the release depot.
func NewDepot(owner, app string, opts ...Option) *DepotBackend {
	b := &DepotBackend{
		owner: owner,
		app:   app,
		cfg: clientConfig{
			httpClient: http.DefaultClient,
			baseURL:    defaultDepotBase,
		},
	}
	for _, opt := range opts {
		opt(&b.cfg)
	}
	return b
}

// Latest resolves the stable release with the highest version that carries
// an installer asset for app. Depot recency order is never trusted.
func (b *DepotBackend) Latest(ctx context.Context, app string) (*Release, error) {
	return latestInstallable(ctx, b, app)
}

// ByTag pages through the release index until the tag is found.
func (b *DepotBackend) ByTag(ctx context.Context, app, tag string) (*Release, error) {
	return findTag(ctx, b, app, tag)
}

// Page fetches one page of the release index. Page tokens are the depot's
// numeric page numbers; empty requests the first page.
func (b *DepotBackend) Page(ctx context.Context, app, pageToken string) ([]Release, string, error) {
	page := 1
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid page token %q: %w", pageToken, err)
		}
		page = n
	}

	reqURL := fmt.Sprintf("%s/v1/apps/%s/%s/releases?page=%d", b.cfg.baseURL, b.owner, b.app, page)
	resp, err := b.cfg.get(ctx, reqURL, nil)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", errorFromResponse(reqURL, resp)
	}

	var dp depotPage
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&dp)
	resp.Body.Close()
	if decodeErr != nil {
		return nil, "", &TransportError{URL: reqURL, Err: decodeErr}
	}

	releases := make([]Release, 0, len(dp.Releases))
	for _, dr := range dp.Releases {
		assets := make([]Asset, 0, len(dr.Assets))
		for _, da := range dr.Assets {
			assets = append(assets, Asset{Name: da.Name, DownloadURL: da.DownloadURL})
		}
		releases = append(releases, newRelease(dr.TagName, dr.Prerelease, assets))
	}

	next := ""
	if dp.NextPage != nil {
		next = strconv.Itoa(*dp.NextPage)
	}
	return releases, next, nil
}
