package tz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-01T10:00:00Z", time.Date(2025, 3, 1, 15, 30, 0, 0, Kolkata)},
		{"2025-03-01T10:00:00+05:30", time.Date(2025, 3, 1, 10, 0, 0, 0, Kolkata)},
		{"2025-03-01T10:00", time.Date(2025, 3, 1, 10, 0, 0, 0, Kolkata)},
		{"2025-03-01 10:00:30", time.Date(2025, 3, 1, 10, 0, 30, 0, Kolkata)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in, Kolkata)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, Kolkata, got.Location())
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "2025-13-01T10:00"} {
		_, err := Parse(in, Kolkata)
		assert.Error(t, err, in)
	}
}

func TestLoad(t *testing.T) {
	loc, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Kolkata, loc)

	_, err = Load("Mars/Olympus")
	assert.Error(t, err)
}
