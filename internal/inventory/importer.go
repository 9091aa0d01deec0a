package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidImport is matched by every *ImportError.
var ErrInvalidImport = errors.New("invalid inventory import")

// ImportError explains why an import payload was rejected.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to import file: %s: %v", e.Reason, e.Err)
	}
	return "failed to import file: " + e.Reason
}

func (e *ImportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidImport, e.Err}
	}
	return []error{ErrInvalidImport}
}

// Normalize trims and lowercases a food item name.
func Normalize(item string) string {
	return strings.ToLower(strings.TrimSpace(item))
}

// dedupe normalizes items and keeps the first occurrence of each, dropping
// empty names.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = Normalize(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// ParseImport validates an import payload: it must be a JSON array whose
// elements are all strings. The result is normalized and deduplicated.
func ParseImport(data []byte) ([]string, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &ImportError{Reason: "file is not valid JSON", Err: err}
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, &ImportError{Reason: "JSON is not a valid inventory array"}
	}
	items := make([]string, 0, len(arr))
	for i, el := range arr {
		s, ok := el.(string)
		if !ok {
			return nil, &ImportError{Reason: fmt.Sprintf("JSON is not a valid inventory array: element %d is not a string", i)}
		}
		items = append(items, s)
	}
	return dedupe(items), nil
}
