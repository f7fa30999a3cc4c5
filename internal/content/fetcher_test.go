package content_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"brainwave/internal/content"
	"brainwave/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPageServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("expected User-Agent header")
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestFetchContainerPage(t *testing.T) {
	srv := newPageServer(t, http.StatusOK, `<div class="article-content">Hello world.</div>`)
	fetcher := content.NewFetcher(nil, discardLogger())

	docs := fetcher.Fetch(context.Background(), srv.URL)

	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}

	if docs[0].Content != "Hello world." {
		t.Fatalf("unexpected content: %q", docs[0].Content)
	}

	if docs[0].Metadata.SourceURL != srv.URL {
		t.Fatalf("unexpected source URL: %q", docs[0].Metadata.SourceURL)
	}
}

func TestFetchContainerExcludesRestOfPage(t *testing.T) {
	srv := newPageServer(t, http.StatusOK,
		`<html><body><header>Site</header><div class="article-content"><p>Body</p></div><aside>Ads</aside></body></html>`)
	fetcher := content.NewFetcher(nil, discardLogger())

	docs := fetcher.Fetch(context.Background(), srv.URL)

	if len(docs) != 1 || docs[0].Content != "Body" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestFetchWholePageFallback(t *testing.T) {
	srv := newPageServer(t, http.StatusOK, `<html><body><p>A</p><p>B</p></body></html>`)
	fetcher := content.NewFetcher(nil, discardLogger())

	docs := fetcher.Fetch(context.Background(), srv.URL)

	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}

	if !strings.Contains(docs[0].Content, "A") || !strings.Contains(docs[0].Content, "B") {
		t.Fatalf("expected both paragraphs, got %q", docs[0].Content)
	}
}

func TestFetchErrorStatusReturnsEmpty(t *testing.T) {
	for _, status := range []int{
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
	} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := newPageServer(t, status, `<div class="article-content">error page</div>`)
			fetcher := content.NewFetcher(nil, discardLogger())

			if docs := fetcher.Fetch(context.Background(), srv.URL); len(docs) != 0 {
				t.Fatalf("expected no documents, got %d", len(docs))
			}
		})
	}
}

func TestFetchConnectionRefusedReturnsEmpty(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	if err = listener.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}

	fetcher := content.NewFetcher(nil, discardLogger())

	if docs := fetcher.Fetch(context.Background(), "http://"+addr+"/"); len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestFetchMalformedURLReturnsEmpty(t *testing.T) {
	fetcher := content.NewFetcher(nil, discardLogger())

	if docs := fetcher.Fetch(context.Background(), "://bad"); len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestFetchTruncatedBodyReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = io.WriteString(w, "<p>short")
	}))
	t.Cleanup(srv.Close)

	fetcher := content.NewFetcher(nil, discardLogger())

	if docs := fetcher.Fetch(context.Background(), srv.URL); len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestExtractReportsTruncatedBodyAsNetworkKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = io.WriteString(w, "<p>short")
	}))
	t.Cleanup(srv.Close)

	fetcher := content.NewFetcher(nil, discardLogger())

	_, err := fetcher.Extract(context.Background(), srv.URL)

	var fetchErr *content.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Kind != content.FetchErrorNetwork {
		t.Fatalf("expected network FetchError, got %v", err)
	}
}

func newEncodedPageServer(t *testing.T, contentType string, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestFetchDecodesHeaderCharset(t *testing.T) {
	srv := newEncodedPageServer(t, "text/html; charset=windows-1252",
		"<div class=\"article-content\">caf\xe9 cr\xe8me</div>")
	fetcher := content.NewFetcher(nil, discardLogger())

	docs := fetcher.Fetch(context.Background(), srv.URL)

	if len(docs) != 1 || docs[0].Content != "café crème" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestFetchDecodesMetaCharset(t *testing.T) {
	srv := newEncodedPageServer(t, "text/html",
		"<html><head><meta charset=\"windows-1251\"></head>"+
			"<body><div class=\"article-content\">\xcf\xf0\xe8\xe2\xe5\xf2</div></body></html>")
	fetcher := content.NewFetcher(nil, discardLogger())

	docs := fetcher.Fetch(context.Background(), srv.URL)

	if len(docs) != 1 || docs[0].Content != "Привет" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestExtractReportsStatusKind(t *testing.T) {
	srv := newPageServer(t, http.StatusNotFound, "")
	fetcher := content.NewFetcher(nil, discardLogger())

	_, err := fetcher.Extract(context.Background(), srv.URL)

	var fetchErr *content.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}

	if fetchErr.Kind != content.FetchErrorStatus || fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected fetch error: %+v", fetchErr)
	}
}

func TestExtractReportsNetworkKind(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := newPageServer(t, http.StatusOK, "<p>x</p>")
	fetcher := content.NewFetcher(nil, discardLogger())

	_, err := fetcher.Extract(ctx, srv.URL)

	var fetchErr *content.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Kind != content.FetchErrorNetwork {
		t.Fatalf("expected network FetchError, got %v", err)
	}

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context error, got %v", err)
	}
}

func TestExtractReportsKind(t *testing.T) {
	srv := newPageServer(t, http.StatusOK, `<div class="article-content">x</div>`)
	fetcher := content.NewFetcher(nil, discardLogger())

	got, err := fetcher.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Kind != domain.ExtractionContainer {
		t.Fatalf("unexpected kind: %s", got.Kind)
	}
}

func TestLoadNeverReturnsError(t *testing.T) {
	fetcher := content.NewFetcher(nil, discardLogger())

	docs, err := fetcher.Load(context.Background(), "://bad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}
