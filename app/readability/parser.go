// Package readability extracts the readable content of an article link,
// either through a remote Mercury-style parsing API or locally.
package readability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

type Parser struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
}

func NewParser(httpClient *http.Client, endpoint, userAgent string) *Parser {
	return &Parser{
		httpClient: httpClient,
		endpoint:   endpoint,
		userAgent:  userAgent,
	}
}

// Run extracts content for link. With a remote endpoint configured, the link
// and credential are forwarded to it; otherwise the page is fetched and
// extracted locally. Failures are reported to the caller, who treats them as
// non-fatal.
func (p *Parser) Run(ctx context.Context, link, credential string) (string, error) {
	if link == "" {
		return "", fmt.Errorf("article has no link")
	}

	if p.endpoint != "" {
		return p.parseRemote(ctx, link, credential)
	}
	return p.parseLocal(ctx, link)
}

func (p *Parser) parseRemote(ctx context.Context, link, credential string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	reqURL := p.endpoint + "?url=" + url.QueryEscape(link)
	req, err := http.NewRequestWithContext(timeoutCtx, "GET", reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	if credential != "" {
		req.Header.Set("X-API-Key", credential)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call parsing API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("parsing API error: %d %s", resp.StatusCode, resp.Status)
	}

	var parsed struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode parsing API response: %w", err)
	}

	if parsed.Content == "" {
		return "", fmt.Errorf("parsing API returned no content")
	}

	return parsed.Content, nil
}

func (p *Parser) parseLocal(ctx context.Context, link string) (string, error) {
	data, err := p.fetchPage(ctx, link)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}

	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("failed to parse link: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from page")
	}

	slog.Debug("Content extracted successfully",
		"url", link,
		"title", article.Title,
		"content_length", len(article.Content))

	return article.Content, nil
}

func (p *Parser) fetchPage(ctx context.Context, link string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
