package harness

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a response carries no parseable JSON value.
var ErrNoJSON = errors.New("no JSON found in response")

var (
	fencePattern         = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// OutputParser handles extracting structured data from model responses.
type OutputParser struct{}

// NewOutputParser creates a parser.
func NewOutputParser() *OutputParser {
	return &OutputParser{}
}

// ParseJSONOutput extracts a JSON object or array from text that may wrap it in
// markdown fences or surrounding prose.
func (p *OutputParser) ParseJSONOutput(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if json.Valid([]byte(text)) {
		return json.RawMessage(text), nil
	}

	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
		if json.Valid([]byte(text)) {
			return json.RawMessage(text), nil
		}
	}

	candidate := p.span(text)
	if candidate == "" {
		return nil, ErrNoJSON
	}
	if json.Valid([]byte(candidate)) {
		return json.RawMessage(candidate), nil
	}

	cleaned := p.fixJSON(candidate)
	if !json.Valid([]byte(cleaned)) {
		return nil, errors.New("invalid JSON in response")
	}
	return json.RawMessage(cleaned), nil
}

// span returns the text between the first opening brace or bracket and the
// last matching closer.
func (p *OutputParser) span(text string) string {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end <= start {
		return ""
	}
	return text[start : end+1]
}

// fixJSON attempts to fix common JSON formatting issues.
func (p *OutputParser) fixJSON(jsonStr string) string {
	// Remove trailing commas before closing braces/brackets
	return trailingCommaPattern.ReplaceAllString(jsonStr, "$1")
}
