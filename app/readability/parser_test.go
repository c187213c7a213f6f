package readability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParser_Remote(t *testing.T) {
	var gotKey, gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotURL = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content": "<p>parsed content</p>"}`))
	}))
	defer server.Close()

	parser := NewParser(server.Client(), server.URL, "JARR/test")

	content, err := parser.Run(context.Background(), "https://example.com/article", "user-key")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if content != "<p>parsed content</p>" {
		t.Errorf("Unexpected content: %q", content)
	}
	if gotKey != "user-key" {
		t.Errorf("Expected credential forwarded as X-API-Key, got %q", gotKey)
	}
	if gotURL != "https://example.com/article" {
		t.Errorf("Expected article URL forwarded, got %q", gotURL)
	}
}

func TestParser_RemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	parser := NewParser(server.Client(), server.URL, "JARR/test")

	_, err := parser.Run(context.Background(), "https://example.com/article", "")
	if err == nil {
		t.Fatal("Expected error from failing parsing API")
	}
}

func TestParser_Local(t *testing.T) {
	page := `
	<!DOCTYPE html>
	<html>
	<head><title>Test Article</title></head>
	<body>
		<nav>Navigation</nav>
		<article>
			<h1>Main Article Title</h1>
			<p>This is the main content of the article. It contains several paragraphs of meaningful text that should be extracted by the readability algorithm.</p>
			<p>This is another paragraph with more content. The readability algorithm should identify this as the main content area and extract it properly.</p>
			<p>Here is some more substantial content to ensure we meet the character threshold. This paragraph adds more context and information.</p>
		</article>
		<footer><p>Copyright 2024</p></footer>
	</body>
	</html>
	`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer server.Close()

	parser := NewParser(server.Client(), "", "JARR/test")

	content, err := parser.Run(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(content, "main content of the article") {
		t.Errorf("Expected extracted content to contain main article text")
	}
}

func TestParser_LocalNonHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	parser := NewParser(server.Client(), "", "JARR/test")

	_, err := parser.Run(context.Background(), server.URL, "")
	if err == nil {
		t.Fatal("Expected error for non-HTML content type")
	}
}

func TestParser_EmptyLink(t *testing.T) {
	parser := NewParser(http.DefaultClient, "", "JARR/test")

	_, err := parser.Run(context.Background(), "", "")
	if err == nil {
		t.Fatal("Expected error for empty link")
	}
}
