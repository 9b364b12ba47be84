package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates no ffmpeg binary could be resolved.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrSpawn indicates the ffmpeg process could not be started
// (binary missing or not executable). Operator-correctable.
var ErrSpawn = errors.New("ffmpeg failed to start")

// ConvertError indicates ffmpeg ran but exited nonzero. It carries the
// exit code and the captured diagnostic stream for the error response.
type ConvertError struct {
	ExitCode int
	Stderr   string
}

func (e *ConvertError) Error() string {
	diag := strings.TrimSpace(e.Stderr)
	if diag == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, lastLine(diag))
}

// Detail returns the full captured diagnostic output.
func (e *ConvertError) Detail() string {
	return e.Stderr
}

// lastLine returns the final non-empty line of ffmpeg's diagnostics,
// which is where ffmpeg states the actual failure.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return s
}
