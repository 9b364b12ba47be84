package chapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/replicate/replicate-go"

	"github.com/alnah/go-chapters/internal/apierr"
)

// GenerationModel is the hosted text-generation model for chapter lists.
const GenerationModel = "anthropic/claude-3.5-haiku"

// modelRunner is the slice of the Replicate client this package uses.
// *replicate.Client implements it; tests inject mocks.
type modelRunner interface {
	Run(ctx context.Context, identifier string, input replicate.PredictionInput, webhook *replicate.Webhook) (replicate.PredictionOutput, error)
}

// Compile-time interface compliance checks.
var (
	_ Generator   = (*ReplicateGenerator)(nil)
	_ modelRunner = (*replicate.Client)(nil)
)

// ReplicateGenerator generates chapters via a Replicate-hosted model.
// Language models stream there, so output usually arrives as string
// fragments; they are joined in order before returning.
type ReplicateGenerator struct {
	run        modelRunner
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// ReplicateOption configures a ReplicateGenerator.
type ReplicateOption func(*ReplicateGenerator)

// WithModel overrides the generation model identifier.
func WithModel(model string) ReplicateOption {
	return func(g *ReplicateGenerator) { g.model = model }
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) ReplicateOption {
	return func(g *ReplicateGenerator) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) ReplicateOption {
	return func(g *ReplicateGenerator) {
		if base > 0 {
			g.baseDelay = base
		}
		if max > 0 {
			g.maxDelay = max
		}
	}
}

// WithRunner sets a custom model runner (for testing).
func WithRunner(r modelRunner) ReplicateOption {
	return func(g *ReplicateGenerator) { g.run = r }
}

// NewReplicateGenerator creates a generator backed by the given
// Replicate client.
func NewReplicateGenerator(client *replicate.Client, opts ...ReplicateOption) *ReplicateGenerator {
	g := &ReplicateGenerator{
		run:        client,
		model:      GenerationModel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate sends the fixed instruction and the transcript to the model
// and returns the reconstituted chapter text.
func (g *ReplicateGenerator) Generate(ctx context.Context, transcript string) (string, error) {
	input := replicate.PredictionInput{
		"system_prompt": systemPrompt,
		"prompt":        userPrompt(transcript),
		"max_tokens":    maxOutputTokens,
	}

	cfg := apierr.RetryConfig{
		MaxRetries: g.maxRetries,
		BaseDelay:  g.baseDelay,
		MaxDelay:   g.maxDelay,
	}

	output, err := apierr.RetryWithBackoff(ctx, cfg, func() (replicate.PredictionOutput, error) {
		out, err := g.run.Run(ctx, g.model, input, nil)
		if err != nil {
			return nil, classifyReplicateError(err)
		}
		return out, nil
	}, isRetryableReplicateError)
	if err != nil {
		return "", fmt.Errorf("chapter generation: %w", err)
	}

	return JoinOutput(output), nil
}

// classifyReplicateError maps Replicate API errors to apierr sentinels.
func classifyReplicateError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *replicate.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w", apiErr.Detail, apierr.ErrRateLimit)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%s: %w", apiErr.Detail, apierr.ErrQuotaExceeded)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w", apiErr.Detail, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout,
			http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%s: %w", apiErr.Detail, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return fmt.Errorf("%s: %w", apiErr.Detail, apierr.ErrBadRequest)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}

// isRetryableReplicateError reports whether an error is transient.
func isRetryableReplicateError(err error) bool {
	return errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrTimeout)
}
