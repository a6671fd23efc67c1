package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"PromoScanner/internal/fetch"
)

// Listing downloads feeds from directory-listing portals that expose
// their file index as a JSON endpoint (BinaProjects-style).
type Listing struct {
	client *http.Client
}

// NewListing wires an HTTP client, defaulting to a 60s-timeout client.
func NewListing(client *http.Client) *Listing {
	if client == nil {
		client = defaultClient()
	}
	return &Listing{client: client}
}

// Name identifies the engine inside the registry.
func (l *Listing) Name() string {
	return "listing"
}

// Fetch reads the portal's file index and downloads the newest file for
// the requested store and category.
func (l *Listing) Fetch(ctx context.Context, req fetch.Request) ([]byte, error) {
	pathPrefix := req.Chain.Options["pathPrefix"]
	indexURL := joinURL(req.Chain.PortalURL, pathPrefix, "MainIO_Hok.aspx")

	files, err := l.fetchIndex(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", req.Chain.Name, err)
	}

	for _, file := range files {
		if fetch.MatchesFile(file.Name, req.StoreID, req.Category) {
			fileURL := joinURL(req.Chain.PortalURL, pathPrefix, "Download", file.Name)
			return download(ctx, l.client, fileURL)
		}
	}

	return nil, fmt.Errorf("chain %s: no %s file for store %s", req.Chain.Name, req.Category, req.StoreID)
}

type listedFile struct {
	Name string `json:"FileNm"`
}

func (l *Listing) fetchIndex(ctx context.Context, indexURL string) ([]listedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal returned %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var files []listedFile
	if err := json.Unmarshal(payload, &files); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return files, nil
}
