package adaptive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedOutput is returned when generated text holds no JSON array of
// items.
var ErrMalformedOutput = errors.New("adaptive: malformed generated output")

// ExtractArray returns the substring of raw from the first '[' to the last
// ']' after removing markdown code fences. It reports false when there is no
// such span.
func ExtractArray(raw string) (string, bool) {
	b := []byte(raw)
	b = bytes.ReplaceAll(b, []byte("```json"), nil)
	b = bytes.ReplaceAll(b, []byte("```"), nil)
	b = bytes.TrimSpace(b)

	start := bytes.IndexByte(b, '[')
	end := bytes.LastIndexByte(b, ']')
	if start < 0 || end < start {
		return "", false
	}
	return string(b[start : end+1]), true
}

// splitItems extracts the array from raw and splits it into its elements
// without decoding them.
func splitItems(raw string) ([]json.RawMessage, error) {
	arr, ok := ExtractArray(raw)
	if !ok {
		return nil, ErrMalformedOutput
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(arr), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return items, nil
}
