// Package transcribe sends extracted audio to a hosted speech-to-text
// service and returns the result as a transcript variant. The default
// provider is Replicate's hosted whisper; OpenAI's transcription API is
// an alternative strategy selected by configuration.
package transcribe

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-chapters/internal/transcript"
)

// Transcriber converts an audio file into a transcript.
type Transcriber interface {
	// Transcribe uploads the audio at audioPath and returns the service's
	// answer. Any transport or service failure is surfaced as an error;
	// it is not retried unless the transcriber was configured to.
	Transcribe(ctx context.Context, audioPath string) (transcript.Result, error)
}

// dataURI encodes a file as a base64 data URI for inline upload.
// MP3 audio gets its proper media type; anything else (the
// direct-to-service strategy may send raw video) is an octet stream.
func dataURI(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is an internal scratch file
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	mediaType := "application/octet-stream"
	if filepath.Ext(path) == ".mp3" {
		mediaType = "audio/mpeg"
	}

	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data)), nil
}
