package portal

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "PromoScanner/1.0"

func defaultClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// download fetches a published feed file and returns its XML payload.
// The portals serve gzip, zip, or plain XML depending on the chain.
func download(ctx context.Context, client *http.Client, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal returned %s for %s", resp.Status, fileURL)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return decompress(payload)
}

func decompress(payload []byte) ([]byte, error) {
	switch {
	case len(payload) >= 2 && payload[0] == 0x1f && payload[1] == 0x8b:
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		decoded, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("read gzip: %w", err)
		}
		return decoded, nil

	case len(payload) >= 4 && string(payload[:4]) == "PK\x03\x04":
		zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
		if err != nil {
			return nil, fmt.Errorf("open zip: %w", err)
		}
		for _, f := range zr.File {
			if !strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open zip entry: %w", err)
			}
			decoded, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("read zip entry: %w", err)
			}
			return decoded, nil
		}
		return nil, fmt.Errorf("zip archive has no xml entry")
	}

	return payload, nil
}

func joinURL(base string, parts ...string) string {
	joined := strings.TrimRight(base, "/")
	for _, part := range parts {
		if part == "" {
			continue
		}
		joined += "/" + strings.Trim(part, "/")
	}
	return joined
}
