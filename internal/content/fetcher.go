package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"brainwave/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

type FetchErrorKind string

const (
	FetchErrorRequest FetchErrorKind = "request"
	FetchErrorNetwork FetchErrorKind = "network"
	FetchErrorStatus  FetchErrorKind = "status"
	FetchErrorParse   FetchErrorKind = "parse"
	FetchErrorPanic   FetchErrorKind = "panic"
)

type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchErrorStatus {
		return fmt.Sprintf("fetch %s: unexpected status: %d", e.URL, e.StatusCode)
	}

	return fmt.Sprintf("fetch %s (kind = %s): %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher turns a web page URL into plain text.
type Fetcher struct {
	client *http.Client
	log    *slog.Logger
}

// NewFetcher builds a fetcher. A nil client means a zero http.Client, so only
// the caller's context bounds a request.
func NewFetcher(client *http.Client, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}

	return &Fetcher{
		client: client,
		log:    log,
	}
}

// Fetch returns one document with the page text, or no documents when the
// page could not be fetched or parsed. Failures are only logged.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) []domain.Document {
	extraction, err := f.Extract(ctx, pageURL)
	if err != nil {
		fields := []any{
			"error", err,
			"url", pageURL,
		}
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			fields = append(fields, "kind", string(fetchErr.Kind), "statusCode", fetchErr.StatusCode)
		}

		f.log.ErrorContext(ctx, "Failed to extract page text", fields...)

		return nil
	}

	f.log.DebugContext(ctx, "Page text is extracted",
		"url", pageURL,
		"extraction", extraction.Kind.String(),
		"textLen", len(extraction.Text))

	return []domain.Document{{
		Content:  extraction.Text,
		Metadata: domain.Metadata{SourceURL: pageURL},
	}}
}

// Load adapts Fetch to the loader contract used for every source. It never
// returns an error.
func (f *Fetcher) Load(ctx context.Context, pageURL string) ([]domain.Document, error) {
	return f.Fetch(ctx, pageURL), nil
}

// Extract performs the GET and the text extraction and reports what failed.
func (f *Fetcher) Extract(ctx context.Context, pageURL string) (extraction domain.Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			extraction = domain.Extraction{}
			err = &FetchError{Kind: FetchErrorPanic, URL: pageURL, Err: fmt.Errorf("%v", r)}
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.Extraction{}, &FetchError{Kind: FetchErrorRequest, URL: pageURL, Err: err}
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req) //nolint:gosec // User-supplied URL
	if err != nil {
		return domain.Extraction{}, &FetchError{Kind: FetchErrorNetwork, URL: pageURL, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"error", closeErr,
				"url", pageURL,
				"operation", "Extract")
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return domain.Extraction{}, &FetchError{
			Kind:       FetchErrorStatus,
			URL:        pageURL,
			StatusCode: resp.StatusCode,
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Extraction{}, &FetchError{Kind: FetchErrorNetwork, URL: pageURL, Err: err}
	}

	// Legacy charsets are decoded to UTF-8.
	body, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return domain.Extraction{}, &FetchError{Kind: FetchErrorParse, URL: pageURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return domain.Extraction{}, &FetchError{Kind: FetchErrorParse, URL: pageURL, Err: err}
	}

	return ExtractText(doc), nil
}
