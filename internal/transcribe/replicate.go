package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/replicate/replicate-go"

	"github.com/alnah/go-chapters/internal/apierr"
	"github.com/alnah/go-chapters/internal/transcript"
)

// WhisperModel is the hosted speech-to-text model, pinned by version.
// Optimized for speed at good accuracy, which is what keeps long uploads
// tolerable.
const WhisperModel = "vaibhavs10/incredibly-fast-whisper:3ab86df6c8f54c11309d4d1f930ac292bad43ace52d10c80d87eb258b3c9f79c"

// Fixed transcription options. These are part of the service contract:
// chunk-level timestamps are what the normalizer renders, and diarization
// stays off because chapters don't care who is speaking.
const (
	taskTranscribe     = "transcribe"
	languageAutoDetect = "None"
	timestampChunk     = "chunk"
	batchSize          = 64
)

// Default retry configuration. Zero retries preserves the original
// single-attempt policy; WithMaxRetries opts into backoff.
const (
	defaultMaxRetries = 0
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// modelRunner is the slice of the Replicate client this package uses.
// *replicate.Client implements it; tests inject mocks.
type modelRunner interface {
	Run(ctx context.Context, identifier string, input replicate.PredictionInput, webhook *replicate.Webhook) (replicate.PredictionOutput, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber = (*ReplicateTranscriber)(nil)
	_ modelRunner = (*replicate.Client)(nil)
)

// ReplicateTranscriber transcribes audio via Replicate's hosted whisper.
type ReplicateTranscriber struct {
	run        modelRunner
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// ReplicateOption configures a ReplicateTranscriber.
type ReplicateOption func(*ReplicateTranscriber)

// WithModel overrides the whisper model identifier.
func WithModel(model string) ReplicateOption {
	return func(t *ReplicateTranscriber) { t.model = model }
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) ReplicateOption {
	return func(t *ReplicateTranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) ReplicateOption {
	return func(t *ReplicateTranscriber) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// WithRunner sets a custom model runner (for testing).
func WithRunner(r modelRunner) ReplicateOption {
	return func(t *ReplicateTranscriber) { t.run = r }
}

// NewReplicateTranscriber creates a transcriber backed by the given
// Replicate client.
func NewReplicateTranscriber(client *replicate.Client, opts ...ReplicateOption) *ReplicateTranscriber {
	t := &ReplicateTranscriber{
		run:        client,
		model:      WhisperModel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe uploads the audio inline and classifies the service's
// loosely typed answer into a transcript variant.
func (t *ReplicateTranscriber) Transcribe(ctx context.Context, audioPath string) (transcript.Result, error) {
	audio, err := dataURI(audioPath)
	if err != nil {
		return transcript.Result{}, err
	}

	input := replicate.PredictionInput{
		"audio":         audio,
		"task":          taskTranscribe,
		"language":      languageAutoDetect,
		"timestamp":     timestampChunk,
		"batch_size":    batchSize,
		"diarise_audio": false,
	}

	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
	}

	output, err := apierr.RetryWithBackoff(ctx, cfg, func() (replicate.PredictionOutput, error) {
		out, err := t.run.Run(ctx, t.model, input, nil)
		if err != nil {
			return nil, classifyReplicateError(err)
		}
		return out, nil
	}, isRetryableReplicateError)
	if err != nil {
		return transcript.Result{}, fmt.Errorf("transcription: %w", err)
	}

	return transcript.FromOutput(output), nil
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
	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrTimeout) {
		return true
	}
	return false
}
