package chapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-chapters/internal/apierr"
)

// defaultOpenAIModel is the chat model for the alternative provider.
const defaultOpenAIModel = openai.GPT4oMini

// chatCompleter is the slice of the OpenAI client this package uses.
// *openai.Client implements it; tests inject mocks.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Generator     = (*OpenAIGenerator)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// OpenAIGenerator generates chapters via OpenAI's chat completion API,
// as the alternative provider. The instruction contract is identical to
// the default provider's.
type OpenAIGenerator struct {
	client     chatCompleter
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// OpenAIOption configures an OpenAIGenerator.
type OpenAIOption func(*OpenAIGenerator)

// WithOpenAIModel overrides the chat model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(g *OpenAIGenerator) { g.model = model }
}

// WithOpenAIMaxRetries sets the retry budget for transient failures.
func WithOpenAIMaxRetries(n int) OpenAIOption {
	return func(g *OpenAIGenerator) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// WithOpenAIClient sets a custom client (for testing).
func WithOpenAIClient(c chatCompleter) OpenAIOption {
	return func(g *OpenAIGenerator) { g.client = c }
}

// NewOpenAIGenerator creates a generator backed by the given OpenAI
// client.
func NewOpenAIGenerator(client *openai.Client, opts ...OpenAIOption) *OpenAIGenerator {
	g := &OpenAIGenerator{
		client:     client,
		model:      defaultOpenAIModel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate sends the fixed instruction and the transcript as a chat
// completion and returns the chapter text.
func (g *OpenAIGenerator) Generate(ctx context.Context, transcript string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: maxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(transcript)},
		},
		Temperature: 0, // deterministic chapter lists for the same input
	}

	cfg := apierr.RetryConfig{
		MaxRetries: g.maxRetries,
		BaseDelay:  g.baseDelay,
		MaxDelay:   g.maxDelay,
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", classifyOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chapter generation: empty response from API")
		}
		return resp.Choices[0].Message.Content, nil
	}, isRetryableOpenAIError)
}

// classifyOpenAIError maps OpenAI API errors to apierr sentinels.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout,
			http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrBadRequest)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}

// isRetryableOpenAIError reports whether an error is transient.
func isRetryableOpenAIError(err error) bool {
	return errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrTimeout)
}
