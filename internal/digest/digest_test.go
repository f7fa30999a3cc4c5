package digest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"brainwave/internal/content"
	"brainwave/internal/digest"
	"brainwave/internal/domain"
	"brainwave/internal/summarizer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubLoader struct {
	mu    sync.Mutex
	calls int
	docs  []domain.Document
	err   error
}

func (l *stubLoader) Load(_ context.Context, _ string) ([]domain.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	return l.docs, l.err
}

func (l *stubLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.calls
}

type recordingSummarizer struct {
	mu      sync.Mutex
	calls   int
	docs    []domain.Document
	apiKey  string
	summary string
}

func (s *recordingSummarizer) Summarize(
	_ context.Context,
	apiKey string,
	docs []domain.Document,
	_ summarizer.Template,
) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.docs = docs
	s.apiKey = apiKey

	if _, err := summarizer.StuffDocuments(docs); err != nil {
		return "", err
	}

	return s.summary, nil
}

type recordingHistory struct {
	mu        sync.Mutex
	summaries []domain.Summary
	err       error
}

func (h *recordingHistory) AddSummary(_ context.Context, summary *domain.Summary) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.summaries = append(h.summaries, *summary)

	return h.err
}

func TestRunValidationBlocksNetwork(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.Request
		message string
	}{
		{"Empty credential", domain.Request{APIKey: "", URL: "https://example.com"}, digest.MissingInputMessage},
		{"Blank credential", domain.Request{APIKey: "  ", URL: "https://example.com"}, digest.MissingInputMessage},
		{"Empty URL", domain.Request{APIKey: "key", URL: ""}, digest.MissingInputMessage},
		{"Blank URL", domain.Request{APIKey: "key", URL: " \t"}, digest.MissingInputMessage},
		{"Invalid URL", domain.Request{APIKey: "key", URL: "not a url"}, digest.InvalidURLMessage},
		{"Unsupported scheme", domain.Request{APIKey: "key", URL: "ftp://example.com"}, digest.InvalidURLMessage},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			web := &stubLoader{}
			video := &stubLoader{}
			s := &recordingSummarizer{summary: "unused"}

			svc := digest.New(web, video, s, nil, discardLogger())

			_, err := svc.Run(context.Background(), test.req)
			if !digest.IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}

			if err.Error() != test.message {
				t.Fatalf("unexpected message: %q", err.Error())
			}

			if web.callCount() != 0 || video.callCount() != 0 || s.calls != 0 {
				t.Fatalf("expected no collaborator calls")
			}
		})
	}
}

func TestRunDispatchesBySource(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantVideo bool
	}{
		{"Website", "https://example.com/post", false},
		{"Video", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"Short video link", "https://youtu.be/dQw4w9WgXcQ", true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			web := &stubLoader{docs: []domain.Document{{Content: "page"}}}
			video := &stubLoader{docs: []domain.Document{{Content: "transcript"}}}
			s := &recordingSummarizer{summary: "summary"}

			svc := digest.New(web, video, s, nil, discardLogger())

			got, err := svc.Run(context.Background(), domain.Request{APIKey: "key", URL: test.url})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if test.wantVideo {
				if video.callCount() != 1 || web.callCount() != 0 || got.Source != domain.SourceVideo {
					t.Fatalf("expected video loader only")
				}
			} else if web.callCount() != 1 || video.callCount() != 0 || got.Source != domain.SourceWebPage {
				t.Fatalf("expected web loader only")
			}
		})
	}
}

func TestRunTrimsInputsAndRecordsHistory(t *testing.T) {
	web := &stubLoader{docs: []domain.Document{{Content: "page"}}}
	s := &recordingSummarizer{summary: "summary"}
	history := &recordingHistory{}

	svc := digest.New(web, &stubLoader{}, s, history, discardLogger())

	got, err := svc.Run(context.Background(), domain.Request{
		UserID: 7,
		APIKey: " key ",
		URL:    " https://example.com/post ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.apiKey != "key" {
		t.Fatalf("expected trimmed API key, got %q", s.apiKey)
	}

	if got.Text != "summary" || got.URL != "https://example.com/post" || got.UserID != 7 {
		t.Fatalf("unexpected summary: %+v", got)
	}

	if len(history.summaries) != 1 || history.summaries[0].Text != "summary" {
		t.Fatalf("expected summary to be recorded, got %+v", history.summaries)
	}
}

func TestRunIgnoresHistoryFailure(t *testing.T) {
	web := &stubLoader{docs: []domain.Document{{Content: "page"}}}
	history := &recordingHistory{err: errors.New("disk full")}

	svc := digest.New(web, &stubLoader{}, &recordingSummarizer{summary: "summary"}, history, discardLogger())

	if _, err := svc.Run(context.Background(), domain.Request{APIKey: "key", URL: "https://example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunPropagatesLoaderError(t *testing.T) {
	loaderErr := errors.New("no captions")
	video := &stubLoader{err: loaderErr}
	s := &recordingSummarizer{summary: "unused"}

	svc := digest.New(&stubLoader{}, video, s, nil, discardLogger())

	_, err := svc.Run(context.Background(), domain.Request{APIKey: "key", URL: "https://youtu.be/dQw4w9WgXcQ"})
	if !errors.Is(err, loaderErr) {
		t.Fatalf("expected loader error, got %v", err)
	}

	if digest.IsValidationError(err) {
		t.Fatalf("loader error must not be a validation error")
	}

	if s.calls != 0 {
		t.Fatalf("expected summarizer not to be called")
	}
}

func TestRunEmptyExtractionSurfacesEmptyInput(t *testing.T) {
	web := &stubLoader{}
	s := &recordingSummarizer{summary: "unused"}

	svc := digest.New(web, &stubLoader{}, s, nil, discardLogger())

	_, err := svc.Run(context.Background(), domain.Request{APIKey: "key", URL: "https://example.com"})
	if !errors.Is(err, summarizer.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func newPage(t *testing.T, body string) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv.URL
}

func TestEndToEndContainerPage(t *testing.T) {
	pageURL := newPage(t, `<div class="article-content">Hello world.</div>`)
	s := &recordingSummarizer{summary: "summary"}

	svc := digest.New(content.NewFetcher(nil, discardLogger()), &stubLoader{}, s, nil, discardLogger())

	if _, err := svc.Run(context.Background(), domain.Request{APIKey: "key", URL: pageURL}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.docs) != 1 || s.docs[0].Content != "Hello world." {
		t.Fatalf("unexpected documents: %+v", s.docs)
	}
}

func TestEndToEndWholePage(t *testing.T) {
	pageURL := newPage(t, `<html><body><p>A</p><p>B</p></body></html>`)
	s := &recordingSummarizer{summary: "summary"}

	svc := digest.New(content.NewFetcher(nil, discardLogger()), &stubLoader{}, s, nil, discardLogger())

	if _, err := svc.Run(context.Background(), domain.Request{APIKey: "key", URL: pageURL}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.docs) != 1 ||
		!strings.Contains(s.docs[0].Content, "A") ||
		!strings.Contains(s.docs[0].Content, "B") {
		t.Fatalf("unexpected documents: %+v", s.docs)
	}
}

func TestEndToEndUnreachablePage(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	if err = listener.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}

	var llmCalls atomic.Int32
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		llmCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(llm.Close)

	svc := digest.New(
		content.NewFetcher(nil, discardLogger()),
		&stubLoader{},
		summarizer.NewOpenAISummarizer(llm.URL+"/", "model"),
		nil,
		discardLogger(),
	)

	_, err = svc.Run(context.Background(), domain.Request{APIKey: "key", URL: "http://" + addr + "/"})
	if err == nil {
		t.Fatalf("expected error for unreachable page")
	}

	if !errors.Is(err, summarizer.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}

	if got := llmCalls.Load(); got != 0 {
		t.Fatalf("expected no LLM calls, got %d", got)
	}
}
