package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/pipeline"
	"github.com/alnah/go-chapters/internal/scratch"
	"github.com/alnah/go-chapters/internal/transcript"
)

// fakeScratch hands out paths under a test directory and counts releases.
type fakeScratch struct {
	mu        sync.Mutex
	dir       string
	allocated []scratch.Paths
	released  []scratch.Paths
}

func (f *fakeScratch) Allocate() scratch.Paths {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.allocated)
	p := scratch.Paths{
		Input: filepath.Join(f.dir, "input-"+string(rune('a'+n))),
		Audio: filepath.Join(f.dir, "audio-"+string(rune('a'+n))+".mp3"),
	}
	f.allocated = append(f.allocated, p)
	return p
}

func (f *fakeScratch) Release(p scratch.Paths) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, p)
}

type fakeResolver struct {
	path      string
	err       error
	overrides []string
}

func (f *fakeResolver) Resolve(override string) (string, error) {
	f.overrides = append(f.overrides, override)
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

type fakeConverter struct {
	err   error
	calls []struct{ ffmpegPath, input, output string }
}

func (f *fakeConverter) Convert(ctx context.Context, ffmpegPath, inputPath, outputPath string) error {
	f.calls = append(f.calls, struct{ ffmpegPath, input, output string }{ffmpegPath, inputPath, outputPath})
	return f.err
}

type fakeTranscriber struct {
	result transcript.Result
	err    error
	paths  []string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (transcript.Result, error) {
	f.paths = append(f.paths, audioPath)
	return f.result, f.err
}

type fakeGenerator struct {
	text   string
	err    error
	inputs []string
}

func (f *fakeGenerator) Generate(ctx context.Context, transcriptText string) (string, error) {
	f.inputs = append(f.inputs, transcriptText)
	return f.text, f.err
}

func newDeps(t *testing.T) (pipeline.Deps, *fakeScratch, *fakeResolver, *fakeConverter, *fakeTranscriber, *fakeGenerator) {
	t.Helper()

	sc := &fakeScratch{dir: t.TempDir()}
	res := &fakeResolver{path: "/usr/bin/ffmpeg"}
	conv := &fakeConverter{}
	tr := &fakeTranscriber{result: transcript.Opaque("hello world")}
	gen := &fakeGenerator{text: "00:00 Intro"}

	deps := pipeline.Deps{
		Scratch:     sc,
		Resolver:    res,
		Converter:   conv,
		Transcriber: tr,
		Generator:   gen,
		Token:       "tok",
	}
	return deps, sc, res, conv, tr, gen
}

func TestTranscribe_FullChain(t *testing.T) {
	deps, sc, _, conv, tr, _ := newDeps(t)
	p := pipeline.New(deps)

	result, err := p.Transcribe(context.Background(), strings.NewReader("video bytes"), pipeline.TranscribeOptions{})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if result.Normalize() != "hello world" {
		t.Errorf("Normalize() = %q", result.Normalize())
	}

	if len(sc.allocated) != 1 {
		t.Fatalf("allocations = %d, want 1", len(sc.allocated))
	}
	paths := sc.allocated[0]

	// Upload bytes must land in the input scratch file before transcoding.
	data, err := os.ReadFile(paths.Input)
	if err != nil {
		t.Fatalf("read input scratch: %v", err)
	}
	if string(data) != "video bytes" {
		t.Errorf("input scratch = %q", data)
	}

	if len(conv.calls) != 1 {
		t.Fatalf("convert calls = %d, want 1", len(conv.calls))
	}
	call := conv.calls[0]
	if call.ffmpegPath != "/usr/bin/ffmpeg" || call.input != paths.Input || call.output != paths.Audio {
		t.Errorf("Convert(%q, %q, %q)", call.ffmpegPath, call.input, call.output)
	}

	if len(tr.paths) != 1 || tr.paths[0] != paths.Audio {
		t.Errorf("transcriber received %v, want audio path", tr.paths)
	}
}

func TestTranscribe_ReleasesScratchOnSuccess(t *testing.T) {
	deps, sc, _, _, _, _ := newDeps(t)
	p := pipeline.New(deps)

	if _, err := p.Transcribe(context.Background(), strings.NewReader("x"), pipeline.TranscribeOptions{}); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if len(sc.released) != 1 {
		t.Fatalf("releases = %d, want exactly 1", len(sc.released))
	}
	if sc.released[0] != sc.allocated[0] {
		t.Error("released paths differ from allocated paths")
	}
}

func TestTranscribe_ReleasesScratchOnConvertFailure(t *testing.T) {
	deps, sc, _, conv, tr, _ := newDeps(t)
	conv.err = errors.New("conversion blew up")
	p := pipeline.New(deps)

	_, err := p.Transcribe(context.Background(), strings.NewReader("x"), pipeline.TranscribeOptions{})
	if err == nil {
		t.Fatal("Transcribe() expected error")
	}
	if len(sc.released) != 1 {
		t.Errorf("releases = %d, want 1", len(sc.released))
	}
	if len(tr.paths) != 0 {
		t.Error("transcriber called after failed conversion")
	}
}

func TestTranscribe_ReleasesScratchOnServiceFailure(t *testing.T) {
	deps, sc, _, _, tr, _ := newDeps(t)
	tr.err = errors.New("service down")
	p := pipeline.New(deps)

	_, err := p.Transcribe(context.Background(), strings.NewReader("x"), pipeline.TranscribeOptions{})
	if err == nil {
		t.Fatal("Transcribe() expected error")
	}
	if len(sc.released) != 1 {
		t.Errorf("releases = %d, want 1", len(sc.released))
	}
}

func TestTranscribe_MissingTokenFailsBeforeSideEffects(t *testing.T) {
	deps, sc, res, conv, tr, _ := newDeps(t)
	deps.Token = ""
	p := pipeline.New(deps)

	_, err := p.Transcribe(context.Background(), strings.NewReader("x"), pipeline.TranscribeOptions{})
	if !errors.Is(err, config.ErrTokenMissing) {
		t.Fatalf("Transcribe() error = %v, want ErrTokenMissing", err)
	}
	if len(sc.allocated) != 0 || len(res.overrides) != 0 || len(conv.calls) != 0 || len(tr.paths) != 0 {
		t.Error("side effects happened despite missing credential")
	}
}

func TestTranscribe_SkipTranscode(t *testing.T) {
	deps, sc, _, conv, tr, _ := newDeps(t)
	p := pipeline.New(deps)

	_, err := p.Transcribe(context.Background(), strings.NewReader("already audio"), pipeline.TranscribeOptions{SkipTranscode: true})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if len(conv.calls) != 0 {
		t.Error("converter ran despite SkipTranscode")
	}
	if len(tr.paths) != 1 || tr.paths[0] != sc.allocated[0].Input {
		t.Errorf("transcriber received %v, want raw input path", tr.paths)
	}
}

func TestTranscribe_ResolverFailure(t *testing.T) {
	deps, sc, res, conv, _, _ := newDeps(t)
	res.err = errors.New("no transcoder anywhere")
	p := pipeline.New(deps)

	_, err := p.Transcribe(context.Background(), strings.NewReader("x"), pipeline.TranscribeOptions{})
	if err == nil {
		t.Fatal("Transcribe() expected error")
	}
	if len(conv.calls) != 0 {
		t.Error("converter ran without a resolved binary")
	}
	if len(sc.released) != 1 {
		t.Errorf("releases = %d, want 1", len(sc.released))
	}
}

func TestGenerate_MissingToken(t *testing.T) {
	deps, _, _, _, _, gen := newDeps(t)
	deps.Token = ""
	p := pipeline.New(deps)

	_, err := p.Generate(context.Background(), "[0:00] hi")
	if !errors.Is(err, config.ErrTokenMissing) {
		t.Fatalf("Generate() error = %v, want ErrTokenMissing", err)
	}
	if len(gen.inputs) != 0 {
		t.Error("generator called despite missing credential")
	}
}

func TestGenerate_PassesTranscriptThrough(t *testing.T) {
	deps, _, _, _, _, gen := newDeps(t)
	p := pipeline.New(deps)

	got, err := p.Generate(context.Background(), "[0:00] hi")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "00:00 Intro" {
		t.Errorf("Generate() = %q", got)
	}
	if len(gen.inputs) != 1 || gen.inputs[0] != "[0:00] hi" {
		t.Errorf("generator received %v", gen.inputs)
	}
}

func TestChapters_FeedsNormalizedTranscriptToGenerator(t *testing.T) {
	deps, sc, _, _, tr, gen := newDeps(t)
	end := 3.0
	tr.result = transcript.Structured([]transcript.Segment{
		{Start: 0, End: &end, Text: "hello"},
		{Start: 75, Text: "world"},
	})
	p := pipeline.New(deps)

	result, text, err := p.Chapters(context.Background(), strings.NewReader("x"), pipeline.TranscribeOptions{})
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	if text != "00:00 Intro" {
		t.Errorf("chapters = %q", text)
	}

	want := "[0:00] hello\n[1:15] world"
	if result.Normalize() != want {
		t.Errorf("Normalize() = %q, want %q", result.Normalize(), want)
	}
	if len(gen.inputs) != 1 || gen.inputs[0] != want {
		t.Errorf("generator received %q, want normalized transcript", gen.inputs)
	}
	if len(sc.released) != 1 {
		t.Errorf("releases = %d, want 1", len(sc.released))
	}
}

func TestChapters_GenerationFailureAfterTranscription(t *testing.T) {
	deps, sc, _, _, _, gen := newDeps(t)
	gen.err = errors.New("model unavailable")
	p := pipeline.New(deps)

	_, _, err := p.Chapters(context.Background(), strings.NewReader("x"), pipeline.TranscribeOptions{})
	if err == nil {
		t.Fatal("Chapters() expected error")
	}
	if len(sc.released) != 1 {
		t.Errorf("releases = %d, want 1", len(sc.released))
	}
}

func TestTranscoderPath_UsesConfiguredOverride(t *testing.T) {
	deps, _, res, _, _, _ := newDeps(t)
	deps.FFmpegOverride = "/opt/ffmpeg"
	p := pipeline.New(deps)

	got, err := p.TranscoderPath()
	if err != nil {
		t.Fatalf("TranscoderPath() error = %v", err)
	}
	if got != "/usr/bin/ffmpeg" {
		t.Errorf("TranscoderPath() = %q", got)
	}
	if len(res.overrides) != 1 || res.overrides[0] != "/opt/ffmpeg" {
		t.Errorf("resolver received overrides %v", res.overrides)
	}
}
