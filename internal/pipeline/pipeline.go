// Package pipeline chains the per-request stages: scratch allocation,
// transcoding, transcription, normalization, and chapter generation.
// Each request runs the chain sequentially; no stage starts before the
// previous one finished. Scratch files are released on every exit
// path, success or failure.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alnah/go-chapters/internal/chapters"
	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/scratch"
	"github.com/alnah/go-chapters/internal/transcribe"
	"github.com/alnah/go-chapters/internal/transcript"
)

// Scratch allocates and releases request-scoped temp paths.
// *scratch.Manager implements it.
type Scratch interface {
	Allocate() scratch.Paths
	Release(p scratch.Paths)
}

// PathResolver locates the transcoder binary. *ffmpeg.Resolver
// implements it.
type PathResolver interface {
	Resolve(override string) (string, error)
}

// Converter extracts compact audio from uploaded media.
// *ffmpeg.Converter implements it.
type Converter interface {
	Convert(ctx context.Context, ffmpegPath, inputPath, outputPath string) error
}

// Deps holds the pipeline's collaborators. This is the central injection
// point: production wiring passes the real implementations, tests pass
// recording fakes.
type Deps struct {
	Scratch     Scratch
	Resolver    PathResolver
	Converter   Converter
	Transcriber transcribe.Transcriber
	Generator   chapters.Generator

	// Token is the credential for the hosted-model provider. When empty,
	// every operation fails with config.ErrTokenMissing before any
	// scratch, subprocess, or network work happens.
	Token string

	// FFmpegOverride is the configured transcoder path, passed through
	// to the resolver.
	FFmpegOverride string
}

// Pipeline executes the request chain.
type Pipeline struct {
	deps   Deps
	logOut io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLog sets a writer for phase logging.
func WithLog(w io.Writer) Option {
	return func(p *Pipeline) { p.logOut = w }
}

// New creates a Pipeline from its collaborators.
func New(deps Deps, opts ...Option) *Pipeline {
	p := &Pipeline{
		deps:   deps,
		logOut: io.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TranscribeOptions selects a transcription strategy.
type TranscribeOptions struct {
	// SkipTranscode sends the upload bytes to the transcription service
	// without extracting audio first. Most services reject raw video;
	// this exists as a configurable strategy, not the default.
	SkipTranscode bool
}

// Transcribe stores the upload, extracts its audio, and sends that to
// the transcription service.
// The scratch files never outlive the call.
func (p *Pipeline) Transcribe(ctx context.Context, media io.Reader, opts TranscribeOptions) (transcript.Result, error) {
	if p.deps.Token == "" {
		return transcript.Result{}, config.ErrTokenMissing
	}

	paths := p.deps.Scratch.Allocate()
	defer p.deps.Scratch.Release(paths)

	size, err := writeFile(paths.Input, media)
	if err != nil {
		return transcript.Result{}, fmt.Errorf("store upload: %w", err)
	}
	fmt.Fprintf(p.logOut, "[upload] stored %d bytes\n", size)

	audioPath := paths.Input
	if !opts.SkipTranscode {
		ffmpegPath, err := p.deps.Resolver.Resolve(p.deps.FFmpegOverride)
		if err != nil {
			return transcript.Result{}, err
		}
		if err := p.deps.Converter.Convert(ctx, ffmpegPath, paths.Input, paths.Audio); err != nil {
			return transcript.Result{}, err
		}
		audioPath = paths.Audio
		fmt.Fprintf(p.logOut, "[ffmpeg] extracted audio\n")
	}

	result, err := p.deps.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return transcript.Result{}, err
	}
	fmt.Fprintf(p.logOut, "[transcribe] done\n")

	return result, nil
}

// Generate produces chapter text from a normalized transcript.
func (p *Pipeline) Generate(ctx context.Context, normalized string) (string, error) {
	if p.deps.Token == "" {
		return "", config.ErrTokenMissing
	}

	text, err := p.deps.Generator.Generate(ctx, normalized)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(p.logOut, "[generate] done\n")

	return text, nil
}

// Chapters runs the full chain for one upload and returns both the
// transcript and the generated chapter text.
func (p *Pipeline) Chapters(ctx context.Context, media io.Reader, opts TranscribeOptions) (transcript.Result, string, error) {
	result, err := p.Transcribe(ctx, media, opts)
	if err != nil {
		return transcript.Result{}, "", err
	}

	text, err := p.Generate(ctx, result.Normalize())
	if err != nil {
		return transcript.Result{}, "", err
	}

	return result, text, nil
}

// TranscoderPath reports where the transcoder would be resolved, for the
// health surface. No subprocess runs.
func (p *Pipeline) TranscoderPath() (string, error) {
	return p.deps.Resolver.Resolve(p.deps.FFmpegOverride)
}

// HasCredential reports whether a provider credential is configured.
func (p *Pipeline) HasCredential() bool {
	return p.deps.Token != ""
}

// writeFile streams r into a new file at path.
func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path) // #nosec G304 -- path is an internal scratch file
	if err != nil {
		return 0, err
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return size, err
}
