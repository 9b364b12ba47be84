package ffmpeg_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/alnah/go-chapters/internal/ffmpeg"
)

func TestConvert_ArgumentOrder(t *testing.T) {
	var gotPath string
	var gotArgs []string

	c := ffmpeg.NewConverter(ffmpeg.WithRun(
		func(ctx context.Context, ffmpegPath string, args []string) (ffmpeg.RunResult, error) {
			gotPath = ffmpegPath
			gotArgs = args
			return ffmpeg.RunResult{}, nil
		}))

	if err := c.Convert(context.Background(), "/usr/bin/ffmpeg", "/tmp/in.mp4", "/tmp/out.mp3"); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if gotPath != "/usr/bin/ffmpeg" {
		t.Errorf("binary = %q", gotPath)
	}
	want := []string{
		"-y", "-i", "/tmp/in.mp4", "-vn",
		"-ac", "1", "-ar", "16000", "-b:a", "48k", "-f", "mp3",
		"/tmp/out.mp3",
	}
	if strings.Join(gotArgs, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", gotArgs, want)
	}
}

func TestConvert_SpawnFailure(t *testing.T) {
	c := ffmpeg.NewConverter(ffmpeg.WithRun(
		func(ctx context.Context, ffmpegPath string, args []string) (ffmpeg.RunResult, error) {
			return ffmpeg.RunResult{}, errors.New("no such file or directory")
		}))

	err := c.Convert(context.Background(), "ffmpeg", "in", "out")
	if !errors.Is(err, ffmpeg.ErrSpawn) {
		t.Fatalf("Convert() error = %v, want ErrSpawn", err)
	}
}

func TestConvert_NonzeroExit(t *testing.T) {
	c := ffmpeg.NewConverter(ffmpeg.WithRun(
		func(ctx context.Context, ffmpegPath string, args []string) (ffmpeg.RunResult, error) {
			return ffmpeg.RunResult{
				ExitCode: 1,
				Stderr:   "in.mp4: Invalid data found when processing input\n",
			}, nil
		}))

	err := c.Convert(context.Background(), "ffmpeg", "in.mp4", "out.mp3")

	var convErr *ffmpeg.ConvertError
	if !errors.As(err, &convErr) {
		t.Fatalf("Convert() error = %v, want *ConvertError", err)
	}
	if convErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", convErr.ExitCode)
	}
	if !strings.Contains(convErr.Detail(), "Invalid data") {
		t.Errorf("Detail() = %q, want captured diagnostics", convErr.Detail())
	}
	if !strings.Contains(convErr.Error(), "Invalid data") {
		t.Errorf("Error() = %q, want last diagnostic line", convErr.Error())
	}
}

func TestConvert_LogsInvocation(t *testing.T) {
	var buf bytes.Buffer
	c := ffmpeg.NewConverter(
		ffmpeg.WithLog(&buf),
		ffmpeg.WithRun(func(ctx context.Context, ffmpegPath string, args []string) (ffmpeg.RunResult, error) {
			return ffmpeg.RunResult{}, nil
		}))

	if err := c.Convert(context.Background(), "ffmpeg", "in", "out"); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !strings.Contains(buf.String(), "[ffmpeg] executing: ffmpeg") {
		t.Errorf("log = %q, want invocation line", buf.String())
	}
}

// TestConvert_RealFakeBinary exercises the production runner with a fake
// transcoder script that fails, verifying exit code and stderr capture.
func TestConvert_RealFakeBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake not available on windows")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "ffmpeg")
	content := "#!/bin/sh\necho 'boom: unsupported codec' >&2\nexit 1\n"
	if err := os.WriteFile(script, []byte(content), 0755); err != nil {
		t.Fatal(err)
	}

	c := ffmpeg.NewConverter()
	err := c.Convert(context.Background(), script, "in.mp4", filepath.Join(dir, "out.mp3"))

	var convErr *ffmpeg.ConvertError
	if !errors.As(err, &convErr) {
		t.Fatalf("Convert() error = %v, want *ConvertError", err)
	}
	if convErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", convErr.ExitCode)
	}
	if !strings.Contains(convErr.Stderr, "unsupported codec") {
		t.Errorf("Stderr = %q, want script diagnostics", convErr.Stderr)
	}
}

func TestConvert_MissingBinaryIsSpawnError(t *testing.T) {
	c := ffmpeg.NewConverter()
	err := c.Convert(context.Background(), "/nonexistent/path/to/ffmpeg", "in", "out")
	if !errors.Is(err, ffmpeg.ErrSpawn) {
		t.Fatalf("Convert() error = %v, want ErrSpawn", err)
	}
}
