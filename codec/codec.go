// Package codec turns raw model text into typed values according to a shape
// descriptor. The generation loop uses it both for the single-shot path and
// inside the retry-with-feedback repair loop, so decode failures must carry
// the offending text for the feedback prompt.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentloom/schema"
)

// DecodeError reports malformed structured output. Text preserves the raw
// model output so the repair loop can feed it back to the model together with
// the failure reason.
type DecodeError struct {
	Text string // Offending raw output
	Err  error  // Underlying cause
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode result: %v", e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder decodes raw completion text against a shape descriptor.
type Decoder interface {
	Decode(text string, shape *schema.Node) (any, error)
}

// JSONDecoder is the default Decoder. Plain string shapes pass the trimmed
// text through unchanged; object and array shapes are located inside the raw
// text (tolerating markdown fences and surrounding prose), unmarshaled and,
// for objects, validated against the shape.
type JSONDecoder struct{}

// NewJSONDecoder constructs the default decoder.
func NewJSONDecoder() *JSONDecoder { return &JSONDecoder{} }

// Decode implements Decoder.
func (d *JSONDecoder) Decode(text string, shape *schema.Node) (any, error) {
	trimmed := strings.TrimSpace(text)

	if shape == nil || shape.Type == "" || shape.Type == schema.TypeString {
		return trimmed, nil
	}

	payload, ok := extractJSON(trimmed, shape.Type == schema.TypeArray)
	if !ok {
		return nil, &DecodeError{Text: text, Err: fmt.Errorf("no JSON value of type %s found", shape.Type)}
	}

	switch shape.Type {
	case schema.TypeObject:
		var value map[string]any
		if err := json.Unmarshal([]byte(payload), &value); err != nil {
			return nil, &DecodeError{Text: text, Err: err}
		}
		if err := schema.Validate(value, shape); err != nil {
			return nil, &DecodeError{Text: text, Err: err}
		}
		return value, nil
	case schema.TypeArray:
		var value []any
		if err := json.Unmarshal([]byte(payload), &value); err != nil {
			return nil, &DecodeError{Text: text, Err: err}
		}
		return value, nil
	default:
		var value any
		if err := json.Unmarshal([]byte(payload), &value); err != nil {
			return nil, &DecodeError{Text: text, Err: err}
		}
		return value, nil
	}
}

// extractJSON locates the outermost JSON object (or array) in text. Markdown
// code fences are stripped first so models that wrap their output in
// ```json blocks still decode.
func extractJSON(text string, wantArray bool) (string, bool) {
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	open, close := "{", "}"
	if wantArray {
		open, close = "[", "]"
	}

	start := strings.Index(text, open)
	end := strings.LastIndex(text, close)
	if start < 0 || end <= start {
		return "", false
	}

	return text[start : end+1], true
}
