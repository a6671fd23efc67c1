package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"PromoScanner/internal/fetch"
)

// Cerberus downloads feeds from session-login portals: a username-only
// login followed by an ajax file directory (publishedprices.co.il style,
// shared by several chains).
type Cerberus struct {
	client *http.Client
}

// NewCerberus wires an HTTP client with a cookie jar for the login
// session.
func NewCerberus(client *http.Client) *Cerberus {
	if client == nil {
		jar, _ := cookiejar.New(nil)
		client = &http.Client{Timeout: 60 * time.Second, Jar: jar}
	}
	return &Cerberus{client: client}
}

// Name identifies the engine inside the registry.
func (c *Cerberus) Name() string {
	return "cerberus"
}

// Fetch logs in with the chain's portal username, lists the file
// directory filtered by category, and downloads the newest match.
func (c *Cerberus) Fetch(ctx context.Context, req fetch.Request) ([]byte, error) {
	base := strings.TrimRight(req.Chain.PortalURL, "/")

	if err := c.login(ctx, base, req.Chain.Username); err != nil {
		return nil, fmt.Errorf("chain %s: %w", req.Chain.Name, err)
	}

	names, err := c.listFiles(ctx, base, string(req.Category))
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", req.Chain.Name, err)
	}

	for _, name := range names {
		if fetch.MatchesFile(name, req.StoreID, req.Category) {
			return download(ctx, c.client, base+"/file/d/"+name)
		}
	}

	return nil, fmt.Errorf("chain %s: no %s file for store %s", req.Chain.Name, req.Category, req.StoreID)
}

func (c *Cerberus) login(ctx context.Context, base, username string) error {
	if username == "" {
		return fmt.Errorf("portal username is not configured")
	}

	form := url.Values{}
	form.Set("username", username)

	resp, err := c.postForm(ctx, base+"/login/user", form)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("login returned %s", resp.Status)
	}
	return nil
}

func (c *Cerberus) listFiles(ctx context.Context, base, search string) ([]string, error) {
	form := url.Values{}
	form.Set("iDisplayLength", "100000")
	form.Set("sSearch", search)

	resp, err := c.postForm(ctx, base+"/file/ajax_dir", form)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var dir struct {
		Entries []struct {
			Name string `json:"name"`
		} `json:"aaData"`
	}
	if err := json.Unmarshal(payload, &dir); err != nil {
		return nil, fmt.Errorf("decode directory: %w", err)
	}

	names := make([]string, 0, len(dir.Entries))
	for _, entry := range dir.Entries {
		names = append(names, entry.Name)
	}
	return names, nil
}

func (c *Cerberus) postForm(ctx context.Context, postURL string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	return c.client.Do(req)
}
