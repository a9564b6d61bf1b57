package docstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is fixed-width so UTC timestamps order lexically.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Normalize round-trips data through JSON so every store sees the same value shapes
// (numbers as float64, nested objects as map[string]any).
func Normalize(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("docstore: decode document: %w", err)
	}
	return out, nil
}

func String(data map[string]any, field string) (string, bool) {
	v, ok := data[field].(string)
	return v, ok
}

func Float64(data map[string]any, field string) (float64, bool) {
	switch v := data[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func Int64(data map[string]any, field string) (int64, bool) {
	switch v := data[field].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	}
	if f, ok := Float64(data, field); ok {
		return int64(f), true
	}
	return 0, false
}

func Time(data map[string]any, field string) (time.Time, bool) {
	switch v := data[field].(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{TimeLayout, time.RFC3339Nano} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
