// Package cli implements the chapters commands. Commands receive their
// dependencies through an Env so tests can run them against fakes.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/replicate/replicate-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-chapters/internal/chapters"
	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/ffmpeg"
	"github.com/alnah/go-chapters/internal/pipeline"
	"github.com/alnah/go-chapters/internal/scratch"
	"github.com/alnah/go-chapters/internal/server"
	"github.com/alnah/go-chapters/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing commands in isolation.
//
// All fields have production defaults via DefaultEnv(). Tests override
// specific fields with the With* options.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	PipelineFactory PipelineFactory
	ServerFactory   ServerFactory
}

// PipelineFactory assembles the request pipeline from configuration.
type PipelineFactory interface {
	NewPipeline(cfg config.Config, logOut io.Writer) (server.Service, error)
}

// HTTPServer is the lifecycle slice of the HTTP layer the serve command
// drives.
type HTTPServer interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

// ServeOptions carries HTTP-layer settings from the serve command.
type ServeOptions struct {
	SkipTranscode bool
	BodyLimit     string
}

// ServerFactory builds the HTTP layer around an assembled pipeline.
type ServerFactory interface {
	NewServer(svc server.Service, opts ServeOptions) HTTPServer
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithPipelineFactory sets the pipeline factory.
func WithPipelineFactory(f PipelineFactory) EnvOption {
	return func(e *Env) { e.PipelineFactory = f }
}

// WithServerFactory sets the server factory.
func WithServerFactory(f ServerFactory) EnvOption {
	return func(e *Env) { e.ServerFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		Getenv:          os.Getenv,
		PipelineFactory: &defaultPipelineFactory{},
		ServerFactory:   &defaultServerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// defaultPipelineFactory assembles the real pipeline.
type defaultPipelineFactory struct{}

func (defaultPipelineFactory) NewPipeline(cfg config.Config, logOut io.Writer) (server.Service, error) {
	var (
		transcriber transcribe.Transcriber
		generator   chapters.Generator
	)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		client := openai.NewClient(cfg.OpenAIKey)
		transcriber = transcribe.NewOpenAITranscriber(client,
			transcribe.WithOpenAIMaxRetries(cfg.MaxRetries))
		generator = chapters.NewOpenAIGenerator(client,
			chapters.WithOpenAIMaxRetries(cfg.MaxRetries))
	default:
		// Without a token the client constructor refuses to build. The nil
		// client is never called: the pipeline rejects requests up front
		// when no credential is configured.
		var client *replicate.Client
		if cfg.ReplicateToken != "" {
			c, err := replicate.NewClient(replicate.WithToken(cfg.ReplicateToken))
			if err != nil {
				return nil, fmt.Errorf("replicate client: %w", err)
			}
			client = c
		}
		transcriber = transcribe.NewReplicateTranscriber(client,
			transcribe.WithMaxRetries(cfg.MaxRetries))
		generator = chapters.NewReplicateGenerator(client,
			chapters.WithMaxRetries(cfg.MaxRetries))
	}

	deps := pipeline.Deps{
		Scratch:        scratch.NewManager(cfg.ScratchDir),
		Resolver:       ffmpeg.NewResolver(),
		Converter:      ffmpeg.NewConverter(ffmpeg.WithLog(logOut)),
		Transcriber:    transcriber,
		Generator:      generator,
		Token:          cfg.Token(),
		FFmpegOverride: cfg.FFmpegPath,
	}
	return pipeline.New(deps, pipeline.WithLog(logOut)), nil
}

// defaultServerFactory builds the real HTTP layer.
type defaultServerFactory struct{}

func (defaultServerFactory) NewServer(svc server.Service, opts ServeOptions) HTTPServer {
	return server.New(svc,
		server.WithSkipTranscode(opts.SkipTranscode),
		server.WithBodyLimit(opts.BodyLimit))
}

// Compile-time interface verification.
var (
	_ PipelineFactory = (*defaultPipelineFactory)(nil)
	_ ServerFactory   = (*defaultServerFactory)(nil)
	_ HTTPServer      = (*server.Server)(nil)
)
