package config_test

import (
	"errors"
	"testing"

	"github.com/alnah/go-chapters/internal/config"
)

// fakeEnv returns a getenv func backed by a map.
func fakeEnv(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(fakeEnv(nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Provider != config.ProviderReplicate {
		t.Errorf("Provider = %q, want %q", cfg.Provider, config.ProviderReplicate)
	}
	if cfg.Addr != config.DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, config.DefaultAddr)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.MaxRetries)
	}
	if cfg.HasToken() {
		t.Error("HasToken() = true with no token set")
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	cfg, err := config.Load(fakeEnv(map[string]string{
		config.EnvReplicateToken: "r8_test",
		config.EnvFFmpegPath:     "/opt/ffmpeg",
		config.EnvAddr:           ":9090",
		config.EnvScratchDir:     "/var/scratch",
		config.EnvMaxRetries:     "3",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ReplicateToken != "r8_test" {
		t.Errorf("ReplicateToken = %q", cfg.ReplicateToken)
	}
	if cfg.FFmpegPath != "/opt/ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.FFmpegPath)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.ScratchDir != "/var/scratch" {
		t.Errorf("ScratchDir = %q", cfg.ScratchDir)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if !cfg.HasToken() {
		t.Error("HasToken() = false with replicate token set")
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	_, err := config.Load(fakeEnv(map[string]string{
		config.EnvProvider: "huggingface",
	}))
	if !errors.Is(err, config.ErrUnknownProvider) {
		t.Fatalf("Load() error = %v, want ErrUnknownProvider", err)
	}
}

func TestLoad_InvalidMaxRetries(t *testing.T) {
	for _, raw := range []string{"abc", "-1", "1.5"} {
		_, err := config.Load(fakeEnv(map[string]string{
			config.EnvMaxRetries: raw,
		}))
		if err == nil {
			t.Errorf("Load() with %s=%q: expected error", config.EnvMaxRetries, raw)
		}
	}
}

func TestToken_FollowsProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     string
	}{
		{"replicate", config.ProviderReplicate, "r8_tok"},
		{"openai", config.ProviderOpenAI, "sk_tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(fakeEnv(map[string]string{
				config.EnvProvider:       tt.provider,
				config.EnvReplicateToken: "r8_tok",
				config.EnvOpenAIKey:      "sk_tok",
			}))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := cfg.Token(); got != tt.want {
				t.Errorf("Token() = %q, want %q", got, tt.want)
			}
		})
	}
}
