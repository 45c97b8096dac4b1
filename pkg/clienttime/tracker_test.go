package clienttime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestInitializeValidTimestamp(t *testing.T) {
	tracker := NewTracker()
	tracker.now = fixedClock(time.Date(2025, 11, 24, 14, 0, 0, 0, time.UTC))

	tracker.Initialize("2025-11-24T09:00:00", 120)

	assert.True(t, tracker.Initialized())
	assert.Equal(t, 120, tracker.TimezoneOffsetMinutes())
	assert.Equal(t, "2025-11-24", tracker.DateString())
	assert.Equal(t, "09:00", tracker.TimeString())
}

func TestInitializeFallsBackOnGarbage(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "2025"},
		{"no T separator", "2025-11-24 09:00:00"},
		{"not a timestamp", "hello there Tfoo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker()
			server := time.Date(2025, 11, 24, 14, 0, 0, 0, time.UTC)
			tracker.now = fixedClock(server)

			tracker.Initialize(tt.input, 60)

			assert.False(t, tracker.Initialized())
			assert.Equal(t, 0, tracker.TimezoneOffsetMinutes())
			// Falls back to server time, never fails.
			assert.Equal(t, server, tracker.Now())
		})
	}
}

func TestNowTracksElapsedServerTime(t *testing.T) {
	tracker := NewTracker()
	server := time.Date(2025, 11, 24, 14, 0, 0, 0, time.UTC)
	tracker.now = fixedClock(server)

	tracker.Initialize("2025-11-24T09:00:00", 0)
	first := tracker.Now()

	// Advance the server clock by a known delta; client time must advance
	// by exactly the same delta.
	delta := 42*time.Minute + 7*time.Second
	tracker.now = fixedClock(server.Add(delta))
	second := tracker.Now()

	assert.Equal(t, delta, second.Sub(first))
}

func TestNowRealClockDelta(t *testing.T) {
	tracker := NewTracker()
	tracker.Initialize("2025-11-24T09:00:00", 0)

	first := tracker.Now()
	time.Sleep(30 * time.Millisecond)
	second := tracker.Now()

	elapsed := second.Sub(first)
	require.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	require.Less(t, elapsed, 2*time.Second)
}

func TestNowUninitializedReturnsServerTime(t *testing.T) {
	tracker := NewTracker()
	server := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tracker.now = fixedClock(server)

	assert.Equal(t, server, tracker.Now())
}

func TestParseRelativeDate(t *testing.T) {
	tracker := NewTracker()
	// 2025-11-24 is a Monday.
	tracker.now = fixedClock(time.Date(2025, 11, 24, 14, 0, 0, 0, time.UTC))
	tracker.Initialize("2025-11-24T09:00:00", 0)

	tests := []struct {
		input    string
		expected string
	}{
		{"today", "2025-11-24"},
		{"Today", "2025-11-24"},
		{"tomorrow", "2025-11-25"},
		{"tuesday", "2025-11-25"},
		{"sunday", "2025-11-30"},
		// Today's weekday resolves to next week, not today.
		{"monday", "2025-12-01"},
		{"Friday", "2025-11-28"},
		// Unrecognized input passes through untouched.
		{"2025-12-25", "2025-12-25"},
		{"someday", "someday"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, tracker.ParseRelativeDate(tt.input))
		})
	}
}

func TestFormatted(t *testing.T) {
	tracker := NewTracker()
	tracker.now = fixedClock(time.Date(2025, 11, 24, 14, 30, 0, 0, time.UTC))
	tracker.Initialize("2025-11-24T14:30:00", 0)

	assert.Equal(t, "Monday, November 24, 2025 at 2:30 PM", tracker.Formatted())
}
