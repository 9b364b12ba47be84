// Package chapters turns a time-annotated transcript into YouTube-style
// chapter timestamps via a hosted text-generation model. The chapter
// list is an opaque string from this package's point of view: it is
// passed through, never parsed.
package chapters

import (
	"context"
	"fmt"
	"time"
)

// maxOutputTokens bounds the generated chapter list. A chapter list is
// short; 1024 tokens is generous.
const maxOutputTokens = 1024

// Default retry configuration, matching the transcription client: zero
// retries unless configured.
const (
	defaultMaxRetries = 0
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Generator produces chapter text from a normalized transcript.
type Generator interface {
	// Generate sends the transcript to the generation service and returns
	// the raw chapter text. A failed call yields no chapters; there is no
	// partial-output handling.
	Generate(ctx context.Context, transcript string) (string, error)
}

// JoinOutput reconstitutes generation output that may arrive as a single
// string or as an ordered sequence of string fragments. Fragments are
// concatenated in order with no separator. Anything else is rendered
// with %v as a last resort.
func JoinOutput(v any) string {
	switch out := v.(type) {
	case nil:
		return ""
	case string:
		return out
	case []any:
		joined := ""
		for _, fragment := range out {
			if s, ok := fragment.(string); ok {
				joined += s
			} else {
				joined += fmt.Sprintf("%v", fragment)
			}
		}
		return joined
	case []string:
		joined := ""
		for _, fragment := range out {
			joined += fragment
		}
		return joined
	default:
		return fmt.Sprintf("%v", v)
	}
}
