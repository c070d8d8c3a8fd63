package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		wantUTC string
		wantDay string
	}{
		{"2025-04-01T09:00:00.000Z", "2025-04-01T09:00:00.000Z", "2025-04-01"},
		{"2025-04-01T23:00:00Z", "2025-04-01T23:00:00.000Z", "2025-04-01"},
		{"2025-04-01T08:00:00+09:00", "2025-03-31T23:00:00.000Z", "2025-04-01"},
		{"2025-04-01", "2025-04-01T00:00:00.000Z", "2025-04-01"},
		{"2025/04/01 10:30:00", "2025-04-01T01:30:00.000Z", "2025-04-01"},
		{"2025-04-01T10:30", "2025-04-01T01:30:00.000Z", "2025-04-01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUTC, FormatISO(got))
			assert.Equal(t, tt.wantDay, got.Format("2006-01-02"))
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "invalid-date", "2025-13-45"} {
		_, err := ParseTimestamp(in)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, "input %q", in)
	}
}

func TestFormatDisplayISO(t *testing.T) {
	ts := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-04-01T21:00:00.000+09:00", FormatDisplayISO(ts))
	assert.Equal(t, "2025-04-01T12:00:00.000Z", FormatISO(ts.In(DisplayZone)))
}
