// Package transcript models what the transcription service returned and
// renders it into the time-annotated text block the chapter generator is
// prompted with. The service is loosely typed: it may answer with plain
// text, with timestamped chunks, or with something else entirely, so the
// result is an explicit tagged variant rather than ad hoc shape-sniffing
// at every call site.
package transcript

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Kind discriminates the result variants.
type Kind int

const (
	// KindOpaque is a plain-text transcript with no segment structure.
	KindOpaque Kind = iota

	// KindStructured is an ordered sequence of timestamped segments.
	KindStructured

	// KindFallback is a structured payload with no segment collection;
	// kept raw for diagnostic rendering.
	KindFallback
)

// Segment is a time-bounded span of speech. The collection is ordered by
// Start ascending as delivered by the service; it is not re-sorted here.
type Segment struct {
	// Start is the segment offset in seconds.
	Start float64

	// End is the closing offset in seconds, when the service provided one.
	End *float64

	// Text is the recognized speech.
	Text string

	// Untimed marks a segment whose source chunk carried no usable
	// timestamp; it renders as bare text.
	Untimed bool
}

// Result is what the transcription service answered, as a tagged variant.
// The zero value is an empty opaque transcript.
type Result struct {
	kind     Kind
	text     string
	segments []Segment
	raw      any
}

// Opaque wraps a plain-text transcript.
func Opaque(text string) Result {
	return Result{kind: KindOpaque, text: text}
}

// Structured wraps an ordered segment sequence.
func Structured(segments []Segment) Result {
	return Result{kind: KindStructured, segments: segments}
}

// Fallback wraps a payload that was structured but had no segments.
func Fallback(raw any) Result {
	return Result{kind: KindFallback, raw: raw}
}

// Kind returns the variant tag.
func (r Result) Kind() Kind { return r.kind }

// Segments returns the segment sequence (structured results only).
func (r Result) Segments() []Segment { return r.segments }

// Text returns the plain transcript (opaque results only).
func (r Result) Text() string { return r.text }

// Normalize renders the result as a single text block suitable for
// prompting the chapter generator:
//
//   - structured segments become "[M:SS] text" lines, newline-joined
//   - opaque text passes through unchanged (degraded but non-fatal)
//   - anything else is serialized for manual inspection, never an error
//
// Normalization is pure: the same result always yields the same block.
func (r Result) Normalize() string {
	switch r.kind {
	case KindStructured:
		lines := make([]string, 0, len(r.segments))
		for _, seg := range r.segments {
			if seg.Untimed {
				lines = append(lines, seg.Text)
				continue
			}
			lines = append(lines, fmt.Sprintf("[%s] %s", Timestamp(seg.Start), seg.Text))
		}
		return strings.Join(lines, "\n")

	case KindFallback:
		if data, err := json.MarshalIndent(r.raw, "", "  "); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", r.raw)

	default:
		return r.text
	}
}

// Timestamp renders an offset in seconds as M:SS. Minutes are not
// zero-padded here; the chapter generator is separately instructed to
// zero-pad both fields in its final output.
func Timestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	m := int(seconds / 60)
	s := int(math.Mod(seconds, 60))
	return fmt.Sprintf("%d:%02d", m, s)
}

// MarshalJSON reproduces the service's wire shape so API responses carry
// the transcript as it was received: a bare string, a {"chunks": [...]}
// object, or the raw fallback payload.
func (r Result) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case KindStructured:
		type chunk struct {
			Timestamp [2]*float64 `json:"timestamp"`
			Text      string      `json:"text"`
		}
		chunks := make([]chunk, 0, len(r.segments))
		for _, seg := range r.segments {
			c := chunk{Text: seg.Text}
			if !seg.Untimed {
				start := seg.Start
				c.Timestamp[0] = &start
				c.Timestamp[1] = seg.End
			}
			chunks = append(chunks, c)
		}
		return json.Marshal(map[string]any{"chunks": chunks})

	case KindFallback:
		return json.Marshal(r.raw)

	default:
		return json.Marshal(r.text)
	}
}

// FromOutput classifies a decoded service payload into a Result. It
// never fails: unrecognized shapes become the diagnostic fallback.
func FromOutput(v any) Result {
	switch out := v.(type) {
	case nil:
		return Opaque("")
	case string:
		return Opaque(out)
	case map[string]any:
		if chunks, ok := out["chunks"].([]any); ok {
			return Structured(parseChunks(chunks))
		}
		return Fallback(out)
	default:
		return Fallback(v)
	}
}

// parseChunks converts the service's chunk objects into segments,
// tolerating missing or malformed fields.
func parseChunks(chunks []any) []Segment {
	segments := make([]Segment, 0, len(chunks))
	for _, c := range chunks {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}

		seg := Segment{Untimed: true}
		if text, ok := m["text"].(string); ok {
			seg.Text = text
		}

		if ts, ok := m["timestamp"].([]any); ok && len(ts) > 0 {
			if start, ok := toFloat(ts[0]); ok {
				seg.Start = start
				seg.Untimed = false
			}
			if len(ts) > 1 {
				if end, ok := toFloat(ts[1]); ok {
					seg.End = &end
				}
			}
		}

		segments = append(segments, seg)
	}
	return segments
}

// toFloat extracts a number from a decoded JSON value.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
