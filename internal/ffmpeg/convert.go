package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Fixed conversion parameters: strip video, mono, 16 kHz, 48 kbps MP3.
// 16 kHz mono at 48 kbps keeps four hours of source under ~90 MB, which
// is what the transcription service wants for speech.
const (
	audioChannels   = "1"
	audioSampleRate = "16000"
	audioBitrate    = "48k"
	audioFormat     = "mp3"
)

// convertArgs builds the fixed ffmpeg argument list.
func convertArgs(inputPath, outputPath string) []string {
	return []string{
		"-y", // overwrite output unconditionally
		"-i", inputPath,
		"-vn", // drop the video stream
		"-ac", audioChannels,
		"-ar", audioSampleRate,
		"-b:a", audioBitrate,
		"-f", audioFormat,
		outputPath,
	}
}

// RunResult is what a single transcoder invocation produced.
type RunResult struct {
	ExitCode int
	Stderr   string
}

// RunFn runs the transcoder and reports its outcome. The error is
// non-nil only when the process could not be started at all.
type RunFn func(ctx context.Context, ffmpegPath string, args []string) (RunResult, error)

// Converter invokes ffmpeg as a subprocess. No timeout is enforced here;
// the caller owns any deadline policy via ctx.
type Converter struct {
	run    RunFn
	logOut io.Writer
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithRun sets a custom process runner (for testing).
func WithRun(fn RunFn) ConverterOption {
	return func(c *Converter) { c.run = fn }
}

// WithLog sets a writer for invocation logging.
func WithLog(w io.Writer) ConverterOption {
	return func(c *Converter) { c.logOut = w }
}

// NewConverter creates a Converter with the given options.
func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{
		run:    defaultRun,
		logOut: io.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert extracts compact mono audio from the media at inputPath,
// writing outputPath. A process that cannot start wraps ErrSpawn; a
// nonzero exit returns *ConvertError with the exit code and captured
// diagnostics. Both are terminal for the current request.
func (c *Converter) Convert(ctx context.Context, ffmpegPath, inputPath, outputPath string) error {
	args := convertArgs(inputPath, outputPath)
	fmt.Fprintf(c.logOut, "[ffmpeg] executing: %s %s\n", ffmpegPath, strings.Join(args, " "))

	result, err := c.run(ctx, ffmpegPath, args)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	if result.ExitCode != 0 {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ConvertError{ExitCode: result.ExitCode, Stderr: result.Stderr}
	}
	return nil
}

// defaultRun is the production runner. ffmpeg writes all diagnostics to
// stderr; stdout is unused for file output.
func defaultRun(ctx context.Context, ffmpegPath string, args []string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return RunResult{}, err
	}

	err := cmd.Wait()
	result := RunResult{Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}
	return result, nil
}
