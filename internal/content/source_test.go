package content_test

import (
	"testing"

	"brainwave/internal/content"
	"brainwave/internal/domain"
)

func TestSelectSource(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want domain.Source
	}{
		{"Watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", domain.SourceVideo},
		{"Mobile URL", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", domain.SourceVideo},
		{"Short URL", "https://youtu.be/dQw4w9WgXcQ", domain.SourceVideo},
		{"Upper case host", "https://WWW.YOUTUBE.COM/watch?v=dQw4w9WgXcQ", domain.SourceVideo},
		{"Website", "https://example.com/article", domain.SourceWebPage},
		{"Lookalike", "https://youtub.example.com", domain.SourceWebPage},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := content.SelectSource(test.url); got != test.want {
				t.Errorf("Expected %s source, got %s", test.want, got)
			}
		})
	}
}

func TestValidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"HTTPS", "https://example.com/a?b=c", true},
		{"HTTP with port", "http://127.0.0.1:8080/page", true},
		{"Surrounding spaces", "  https://example.com  ", true},
		{"Empty", "", false},
		{"Blank", "   ", false},
		{"No scheme", "example.com", false},
		{"FTP", "ftp://example.com/file", false},
		{"No host", "https://", false},
		{"Inner space", "https://exa mple.com", false},
		{"Plain text", "not a url", false},
		{"Double dot host", "https://example..com", false},
		{"Single label host", "http://foo", false},
		{"Single label host with path", "https://localhost/page", false},
		{"Trailing dot host", "https://example.com./", false},
		{"IPv6 literal", "http://[::1]:8080/", true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := content.ValidURL(test.url); got != test.want {
				t.Errorf("Expected %v for %q, got %v", test.want, test.url, got)
			}
		})
	}
}

func TestFindURL(t *testing.T) {
	got, err := content.FindURL("please summarize https://example.com/post/1 thanks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "https://example.com/post/1" {
		t.Fatalf("unexpected URL: %q", got)
	}
}

func TestFindURLNoMatch(t *testing.T) {
	got, err := content.FindURL("just words")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "" {
		t.Fatalf("expected no URL, got %q", got)
	}
}
