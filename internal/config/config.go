// Package config loads service configuration from the environment.
// A .env file, if present, is loaded by main before Load runs.
package config

import (
	"errors"
	"fmt"
	"strconv"
)

// Environment variable names.
const (
	EnvReplicateToken = "REPLICATE_API_TOKEN"
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvFFmpegPath     = "FFMPEG_PATH"
	EnvProvider       = "CHAPTERS_PROVIDER"
	EnvAddr           = "CHAPTERS_ADDR"
	EnvScratchDir     = "CHAPTERS_SCRATCH_DIR"
	EnvMaxRetries     = "CHAPTERS_MAX_RETRIES"
)

// Provider names.
const (
	ProviderReplicate = "replicate"
	ProviderOpenAI    = "openai"
)

// Defaults.
const (
	DefaultAddr = ":8080"
)

// ErrUnknownProvider indicates CHAPTERS_PROVIDER names a provider that
// does not exist.
var ErrUnknownProvider = errors.New("unknown provider")

// ErrTokenMissing indicates the API credential for the selected provider
// is not set. Checked before any work is attempted on a request.
var ErrTokenMissing = errors.New("API token not configured")

// Config holds service configuration resolved from the environment.
type Config struct {
	// ReplicateToken authenticates against Replicate (default provider).
	ReplicateToken string

	// OpenAIKey authenticates against OpenAI (alternative provider).
	OpenAIKey string

	// FFmpegPath overrides transcoder resolution when set.
	FFmpegPath string

	// Provider selects the hosted-model provider: "replicate" or "openai".
	Provider string

	// Addr is the HTTP listen address.
	Addr string

	// ScratchDir overrides the scratch directory. Empty means os.TempDir.
	ScratchDir string

	// MaxRetries is the retry budget for hosted-model calls.
	// 0 (the default) preserves single-attempt behavior.
	MaxRetries int
}

// Load resolves configuration from getenv. getenv is injected so tests
// can run without touching the process environment.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		ReplicateToken: getenv(EnvReplicateToken),
		OpenAIKey:      getenv(EnvOpenAIKey),
		FFmpegPath:     getenv(EnvFFmpegPath),
		Provider:       getenv(EnvProvider),
		Addr:           getenv(EnvAddr),
		ScratchDir:     getenv(EnvScratchDir),
	}

	if cfg.Provider == "" {
		cfg.Provider = ProviderReplicate
	}
	if cfg.Provider != ProviderReplicate && cfg.Provider != ProviderOpenAI {
		return Config{}, fmt.Errorf("%s=%q (use %q or %q): %w",
			EnvProvider, cfg.Provider, ProviderReplicate, ProviderOpenAI, ErrUnknownProvider)
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	if raw := getenv(EnvMaxRetries); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("%s=%q: must be a non-negative integer", EnvMaxRetries, raw)
		}
		cfg.MaxRetries = n
	}

	return cfg, nil
}

// Token returns the credential for the selected provider.
func (c Config) Token() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIKey
	}
	return c.ReplicateToken
}

// HasToken reports whether the selected provider has a credential.
func (c Config) HasToken() bool {
	return c.Token() != ""
}
