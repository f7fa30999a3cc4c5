package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brainwave/internal/domain"
)

const (
	// DefaultPromptTemplate asks for a bounded-length summary.
	DefaultPromptTemplate = `
Provide a summary of the following content in 300 words:
Content:{text}

`

	textSlot          = "{text}"
	documentSeparator = "\n\n"
)

var (
	ErrEmptyInput    = errors.New("input is empty")
	ErrMissingAPIKey = errors.New("API key is missing")
)

// Summarizer produces a single summary for a sequence of documents.
type Summarizer interface {
	Summarize(
		ctx context.Context,
		apiKey string,
		docs []domain.Document,
		tmpl Template,
	) (string, error)
}

// Template is a prompt with exactly one {text} slot.
type Template struct {
	raw string
}

func NewTemplate(raw string) (Template, error) {
	if n := strings.Count(raw, textSlot); n != 1 {
		return Template{}, fmt.Errorf("template must contain exactly one %s slot (found %d)", textSlot, n)
	}

	return Template{raw: raw}, nil
}

func DefaultTemplate() Template {
	return Template{raw: DefaultPromptTemplate}
}

func (t Template) Render(text string) string {
	return strings.Replace(t.raw, textSlot, text, 1)
}

// StuffDocuments joins the content of all documents into one text block.
func StuffDocuments(docs []domain.Document) (string, error) {
	contents := make([]string, 0, len(docs))

	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}

		contents = append(contents, doc.Content)
	}

	if len(contents) == 0 {
		return "", ErrEmptyInput
	}

	return strings.Join(contents, documentSeparator), nil
}
