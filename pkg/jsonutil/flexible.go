// Package jsonutil provides tolerant JSON coercion helpers for payloads
// produced by language models, which do not always respect field types.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleIntSlice converts a json.RawMessage to []int, accepting either a
// JSON array of numbers or an array of numeric strings. LLM index selections
// arrive in both forms.
func FlexibleIntSlice(raw json.RawMessage) ([]int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var ints []int
	if err := json.Unmarshal(raw, &ints); err == nil {
		return ints, nil
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		return nil, fmt.Errorf("not a JSON array: %w", err)
	}

	result := make([]int, 0, len(rawItems))
	for _, item := range rawItems {
		var n int
		if err := json.Unmarshal(item, &n); err == nil {
			result = append(result, n)
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, fmt.Errorf("array element is neither number nor string: %s", string(item))
		}
		if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
			return nil, fmt.Errorf("array element %q is not numeric", s)
		}
		result = append(result, n)
	}

	return result, nil
}

// FlexibleFloatValue converts a json.RawMessage to a float64, accepting
// numbers or numeric strings. Returns 0 for null/empty.
func FlexibleFloatValue(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		var parsed float64
		if _, err := fmt.Sscanf(strVal, "%g", &parsed); err == nil {
			return parsed
		}
	}

	return 0
}
