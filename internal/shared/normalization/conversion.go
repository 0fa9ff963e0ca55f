package normalization

import (
	"strconv"
	"strings"
	"time"
)

// envelopeKeys lists the wrapper keys the REST API uses around collections, in lookup order.
var envelopeKeys = []string{"data", "items", "results", "docs"}

// MapFromPayload unwraps a {"data": {...}} envelope into a plain map.
func MapFromPayload(value any) map[string]any {
	if value == nil {
		return nil
	}
	if typed, ok := value.(map[string]any); ok {
		if data, ok := typed["data"].(map[string]any); ok {
			return data
		}
		return typed
	}
	return nil
}

// ItemsFromPayload extracts the record collection from a bare array or from one of the
// known envelopes, descending at most two levels ({"data": {"items": [...]}}).
func ItemsFromPayload(value any) ([]any, bool) {
	return itemsFromPayload(value, 2)
}

func itemsFromPayload(value any, depth int) ([]any, bool) {
	switch typed := value.(type) {
	case []any:
		return typed, true
	case map[string]any:
		if depth == 0 {
			return nil, false
		}
		for _, key := range envelopeKeys {
			if nested, ok := typed[key]; ok {
				if items, ok := itemsFromPayload(nested, depth-1); ok {
					return items, true
				}
			}
		}
		// Owner endpoints sometimes return their single resource unwrapped.
		for key, nested := range typed {
			if strings.HasSuffix(strings.ToLower(key), "s") {
				if items, ok := nested.([]any); ok {
					return items, true
				}
			}
		}
	}
	return nil, false
}

// AsString trims and returns the string representation of value when possible.
func AsString(value any) string {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// FirstString returns the first non-empty string stored under one of keys.
func FirstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := AsString(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

// AsFloat64 coerces numeric values (including numeric strings) into float64.
func AsFloat64(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case float32:
		return float64(typed)
	case int:
		return float64(typed)
	case int64:
		return float64(typed)
	case string:
		if trimmed := strings.TrimSpace(typed); trimmed != "" {
			if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

// AsBool accepts JSON booleans and their common string spellings.
func AsBool(value any) (bool, bool) {
	switch typed := value.(type) {
	case bool:
		return typed, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		return parsed, err == nil
	}
	return false, false
}

// AsTime parses RFC 3339 timestamps as emitted by the REST API. Zero when absent or malformed.
func AsTime(value any) time.Time {
	s := AsString(value)
	if s == "" {
		return time.Time{}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return parsed
	}
	return time.Time{}
}

// AsRef returns the identifier of a reference field that may be a plain id or a populated
// document ({"_id": "..."}).
func AsRef(value any) string {
	if nested, ok := value.(map[string]any); ok {
		return FirstString(nested, "_id", "id")
	}
	return AsString(value)
}
