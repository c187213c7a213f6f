package icon

import (
	"testing"
)

func TestURLBuilder(t *testing.T) {
	builder := NewURLBuilder()

	got := builder.URL("https://example.com/favicon.ico")
	expected := "/icon?url=https%3A%2F%2Fexample.com%2Ffavicon.ico"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestURLBuilder_EmptyURL(t *testing.T) {
	builder := NewURLBuilder()

	if got := builder.URL(""); got != "" {
		t.Errorf("Expected empty string for empty input, got %q", got)
	}
}

func TestURLBuilder_QueryEscaping(t *testing.T) {
	builder := NewURLBuilder()

	got := builder.URL("https://example.com/icon?size=32&v=2")
	expected := "/icon?url=https%3A%2F%2Fexample.com%2Ficon%3Fsize%3D32%26v%3D2"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
