// Package icon proxies feed icons so clients never hit third-party hosts
// directly.
package icon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxIconSize = 1 << 20 // 1 MiB

// URLBuilder rewrites an original icon URL into its proxied form.
type URLBuilder struct {
	basePath string
}

func NewURLBuilder() *URLBuilder {
	return &URLBuilder{basePath: "/icon"}
}

func (b *URLBuilder) URL(original string) string {
	if original == "" {
		return ""
	}
	return b.basePath + "?url=" + url.QueryEscape(original)
}

// Proxy fetches icon bytes on behalf of clients.
type Proxy struct {
	httpClient *http.Client
	userAgent  string
}

func NewProxy(httpClient *http.Client, userAgent string) *Proxy {
	return &Proxy{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Fetch retrieves the icon and returns its bytes and content type.
func (p *Proxy) Fetch(ctx context.Context, iconURL string) ([]byte, string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", iconURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch icon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read icon body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
