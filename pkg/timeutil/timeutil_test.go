package timeutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStringForms(t *testing.T) {
	want := time.Date(2025, 3, 10, 4, 30, 0, 0, time.UTC)

	cases := map[string]string{
		"zulu":        "2025-03-10T04:30:00Z",
		"offset":      "2025-03-10T10:00:00+05:30",
		"fractional":  "2025-03-10T04:30:00.789Z",
		"naive":       "2025-03-10T04:30:00",
		"legacy sql":  "2025-03-10 04:30:00",
		"padded zulu": "  2025-03-10T04:30:00Z ",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize(raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestNormalizeTimeValues(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2025, 3, 10, 10, 0, 0, 500, loc)

	got, err := Normalize(local)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 4, 30, 0, 0, time.UTC), got)

	got, err = Normalize(&local)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, v := range []interface{}{"", "tomorrow", "2025-13-45T00:00:00Z", 42, time.Time{}, (*time.Time)(nil)} {
		_, err := Normalize(v)
		assert.True(t, errors.Is(err, ErrInvalidTimestamp), "value %v", v)
	}
}

func TestWindowOverlapIsHalfOpen(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC) }
	a := Window{Start: at(10, 0), End: at(11, 0)}

	assert.True(t, a.Overlaps(Window{Start: at(10, 30), End: at(11, 30)}))
	assert.True(t, a.Overlaps(Window{Start: at(9, 0), End: at(12, 0)}))
	assert.True(t, a.Overlaps(a))
	assert.False(t, a.Overlaps(Window{Start: at(11, 0), End: at(12, 0)}), "back-to-back after")
	assert.False(t, a.Overlaps(Window{Start: at(9, 0), End: at(10, 0)}), "back-to-back before")
}

func TestNewWindowValidatesOrdering(t *testing.T) {
	_, err := NewWindow("2025-03-10T11:00:00Z", "2025-03-10T10:00:00Z")
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewWindow("2025-03-10T10:00:00Z", "2025-03-10T10:00:00Z")
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewWindow("bad", "2025-03-10T10:00:00Z")
	assert.ErrorIs(t, err, ErrInvalidTimestamp)

	w, err := NewWindow("2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, w.Duration())
}

func TestFormatSQLRendersUTC(t *testing.T) {
	colombo := time.FixedZone("LK", 5*3600+1800)
	ts := time.Date(2025, 3, 10, 10, 0, 0, 0, colombo)
	assert.Equal(t, "2025-03-10 04:30:00", FormatSQL(ts))
}
