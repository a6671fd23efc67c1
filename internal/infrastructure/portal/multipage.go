package portal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PromoScanner/internal/fetch"
)

// downloadLinkText is the anchor label the catalog portals put on feed
// download links.
const downloadLinkText = "לחץ להורדה"

// catIDs maps feed categories to the catalog portal's catID parameter.
var catIDs = map[fetch.Category]int{
	fetch.Price:     1,
	fetch.PriceFull: 2,
	fetch.Promo:     3,
	fetch.PromoFull: 4,
	fetch.Stores:    5,
}

// Multipage downloads feeds from catalog portals that expose a
// per-category page of download links (Shufersal-style).
type Multipage struct {
	client *http.Client
}

// NewMultipage wires an HTTP client, defaulting to a 60s-timeout client.
func NewMultipage(client *http.Client) *Multipage {
	if client == nil {
		client = defaultClient()
	}
	return &Multipage{client: client}
}

// Name identifies the engine inside the registry.
func (m *Multipage) Name() string {
	return "multipage"
}

// Fetch requests the category page for the store and follows its newest
// download link.
func (m *Multipage) Fetch(ctx context.Context, req fetch.Request) ([]byte, error) {
	catID, ok := catIDs[req.Category]
	if !ok {
		return nil, fmt.Errorf("category %s is not published by %s", req.Category, req.Chain.Name)
	}

	pageURL := fmt.Sprintf("%s/FileObject/UpdateCategory?catID=%d",
		strings.TrimRight(req.Chain.PortalURL, "/"), catID)
	if req.Category != fetch.Stores {
		pageURL += "&storeId=" + req.StoreID
	}

	doc, err := m.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", req.Chain.Name, err)
	}

	fileURL := findDownloadLink(doc)
	if fileURL == "" {
		return nil, fmt.Errorf("chain %s: no download link for %s", req.Chain.Name, req.Category)
	}

	return download(ctx, m.client, fileURL)
}

func (m *Multipage) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// findDownloadLink returns the href of the first download anchor on the
// page. The portal lists files newest first.
func findDownloadLink(doc *goquery.Document) string {
	var href string
	doc.Find("a").EachWithBreak(func(i int, a *goquery.Selection) bool {
		if !strings.Contains(strings.TrimSpace(a.Text()), downloadLinkText) {
			return true
		}
		href, _ = a.Attr("href")
		return false
	})
	return href
}
