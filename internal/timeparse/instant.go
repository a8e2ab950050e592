package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Accepted string layouts, tried in order.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Epoch values at or above this are taken as milliseconds. The cutoff
// corresponds to 2001-09-09 in milliseconds and year ~33658 in seconds, so
// any plausible reservation timestamp lands on the right side.
const millisCutoff = 1e12

// Instant normalizes the timestamp representations that reach the API
// boundary (native times, RFC3339 or date strings, numeric epoch values in
// seconds or milliseconds) into a single UTC instant. Everything downstream
// of the boundary only ever sees time.Time.
func Instant(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return fromString(t)
	case int64:
		return fromEpoch(float64(t)), nil
	case int:
		return fromEpoch(float64(t)), nil
	case float64: // JSON numbers decode as float64
		return fromEpoch(t), nil
	case nil:
		return time.Time{}, fmt.Errorf("timestamp is missing")
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func fromString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(n), nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func fromEpoch(n float64) time.Time {
	if n >= millisCutoff {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}
