package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"brainwave/internal/content"
	"brainwave/internal/domain"
	"brainwave/internal/summarizer"
)

const (
	MissingInputMessage = "Please provide the API key to get started"
	InvalidURLMessage   = "Please enter a valid URL. It can be a YouTube video URL or a website URL."
)

// ValidationError reports input that was rejected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Loader turns a URL into documents.
type Loader interface {
	Load(ctx context.Context, rawURL string) ([]domain.Document, error)
}

// HistoryRecorder stores completed summaries.
type HistoryRecorder interface {
	AddSummary(ctx context.Context, summary *domain.Summary) error
}

type Service struct {
	loaders    map[domain.Source]Loader
	summarizer summarizer.Summarizer
	template   summarizer.Template
	history    HistoryRecorder
	now        func() time.Time
	log        *slog.Logger
}

// New builds the service. history may be nil.
func New(
	webLoader Loader,
	videoLoader Loader,
	s summarizer.Summarizer,
	history HistoryRecorder,
	log *slog.Logger,
) *Service {
	return &Service{
		loaders: map[domain.Source]Loader{
			domain.SourceWebPage: webLoader,
			domain.SourceVideo:   videoLoader,
		},
		summarizer: s,
		template:   summarizer.DefaultTemplate(),
		history:    history,
		now:        time.Now,
		log:        log,
	}
}

// Validate trims the request and rejects missing or malformed input.
func Validate(req domain.Request) (domain.Request, error) {
	req.APIKey = strings.TrimSpace(req.APIKey)
	req.URL = strings.TrimSpace(req.URL)

	if req.APIKey == "" || req.URL == "" {
		return req, &ValidationError{Message: MissingInputMessage}
	}

	if !content.ValidURL(req.URL) {
		return req, &ValidationError{Message: InvalidURLMessage}
	}

	return req, nil
}

// Run performs one validate, extract and summarize cycle.
func (s *Service) Run(ctx context.Context, req domain.Request) (domain.Summary, error) {
	req, err := Validate(req)
	if err != nil {
		return domain.Summary{}, err
	}

	source := content.SelectSource(req.URL)

	loader, ok := s.loaders[source]
	if !ok || loader == nil {
		return domain.Summary{}, fmt.Errorf("loader is not configured (source = %s)", source)
	}

	docs, err := loader.Load(ctx, req.URL)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("load documents (source = %s): %w", source, err)
	}

	s.log.InfoContext(ctx, "Documents are loaded",
		"userID", req.UserID,
		"chatID", req.ChatID,
		"url", req.URL,
		"source", source.String(),
		"documentCount", len(docs))

	text, err := s.summarizer.Summarize(ctx, req.APIKey, docs, s.template)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summarize: %w", err)
	}

	summary := domain.Summary{
		UserID:    req.UserID,
		URL:       req.URL,
		Source:    source,
		Text:      text,
		CreatedAt: s.now(),
	}

	if s.history != nil {
		if err = s.history.AddSummary(ctx, &summary); err != nil {
			s.log.ErrorContext(ctx, "Failed to record summary",
				"error", err,
				"userID", req.UserID,
				"url", req.URL)
		}
	}

	return summary, nil
}

// IsValidationError reports whether err was produced by input validation.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}
