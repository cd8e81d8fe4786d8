// Package timeutil converts external instants into the canonical UTC form used for
// storage and conflict arithmetic.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidTimestamp is returned when an instant cannot be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrInvalidWindow is returned when a window does not satisfy start < end.
	ErrInvalidWindow = errors.New("start must be before end")
)

// sqlLayout is the naive UTC layout the legacy API persisted.
const sqlLayout = "2006-01-02 15:04:05"

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	sqlLayout,
}

// Normalize converts a string or time value into a UTC instant truncated to whole seconds.
// Strings without a zone designator are interpreted as UTC.
func Normalize(v interface{}) (time.Time, error) {
	switch value := v.(type) {
	case time.Time:
		if value.IsZero() {
			return time.Time{}, ErrInvalidTimestamp
		}
		return canonical(value), nil
	case *time.Time:
		if value == nil || value.IsZero() {
			return time.Time{}, ErrInvalidTimestamp
		}
		return canonical(*value), nil
	case string:
		return ParseInstant(value)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidTimestamp, v)
	}
}

// ParseInstant parses an ISO-8601 style string.
func ParseInstant(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return canonical(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// FormatSQL renders t in the legacy naive UTC layout.
func FormatSQL(t time.Time) string {
	return t.UTC().Format(sqlLayout)
}

func canonical(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow normalises both bounds and validates the ordering.
func NewWindow(start, end interface{}) (Window, error) {
	s, err := Normalize(start)
	if err != nil {
		return Window{}, fmt.Errorf("start: %w", err)
	}
	e, err := Normalize(end)
	if err != nil {
		return Window{}, fmt.Errorf("end: %w", err)
	}
	w := Window{Start: s, End: e}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate enforces Start < End.
func (w Window) Validate() error {
	if !w.Start.Before(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Overlaps reports whether the two windows share any instant. Touching windows do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
