package summarizer

import (
	"context"
	"fmt"
	"strings"

	"brainwave/internal/domain"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const temperature = 0.7

// OpenAISummarizer calls an OpenAI-compatible Chat Completions API. The
// credential is supplied per call, so a client is built for every request.
type OpenAISummarizer struct {
	baseURL string
	model   string
	options []option.RequestOption
}

func NewOpenAISummarizer(
	baseURL string,
	model string,
	options ...option.RequestOption,
) *OpenAISummarizer {
	return &OpenAISummarizer{
		baseURL: strings.TrimSpace(baseURL),
		model:   strings.TrimSpace(model),
		options: options,
	}
}

// Summarize renders the documents into the template and asks the model once.
func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	apiKey string,
	docs []domain.Document,
	tmpl Template,
) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	text, err := StuffDocuments(docs)
	if err != nil {
		return "", err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if s.baseURL != "" {
		opts = append(opts, option.WithBaseURL(s.baseURL))
	}
	opts = append(opts, s.options...)

	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(s.model),
		Temperature: openai.Float(temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(tmpl.Render(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("choices are missing (model = %s)", resp.Model)
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("output text is missing (finishReason = %s)", resp.Choices[0].FinishReason)
	}

	return summary, nil
}
