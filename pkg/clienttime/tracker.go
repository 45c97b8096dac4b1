package clienttime

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Accepted layouts for the client-reported local time. The client usually
// sends a naive local timestamp without a zone suffix.
var clientTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
}

// Tracker reconciles the remote client's reported local time with this
// process's clock. It records both clocks once at session init and derives
// the current client time from the server-side elapsed duration, so it keeps
// ticking even if the client never reports time again.
type Tracker struct {
	mu sync.RWMutex

	clientAtConnect time.Time
	serverAtConnect time.Time
	tzOffsetMinutes int
	initialized     bool

	// now is swappable for tests.
	now func() time.Time
}

// NewTracker creates an uninitialized tracker. Now() falls back to server
// UTC time until Initialize succeeds.
func NewTracker() *Tracker {
	return &Tracker{now: func() time.Time { return time.Now().UTC() }}
}

// Initialize records the client/server clock baseline from a session_init
// message. An empty or implausible timestamp falls back to the server clock
// and leaves the tracker marked uninitialized so callers can tell
// trustworthy client time from fallback time. Initialize never fails.
func (t *Tracker) Initialize(clientTimeISO string, tzOffsetMinutes int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	if len(clientTimeISO) < 10 || !strings.Contains(clientTimeISO, "T") {
		log.Warn().
			Str("clientTime", clientTimeISO).
			Msg("Implausible client time, using server clock as baseline")
		t.clientAtConnect = now
		t.serverAtConnect = now
		t.tzOffsetMinutes = 0
		t.initialized = false
		return
	}

	parsed, err := parseClientTime(clientTimeISO)
	if err != nil {
		log.Error().Err(err).
			Str("clientTime", clientTimeISO).
			Msg("Failed to parse client time, using server clock as baseline")
		t.clientAtConnect = now
		t.serverAtConnect = now
		t.tzOffsetMinutes = 0
		t.initialized = false
		return
	}

	t.clientAtConnect = parsed
	t.serverAtConnect = now
	t.tzOffsetMinutes = tzOffsetMinutes
	t.initialized = true

	log.Info().
		Time("client", parsed).
		Time("server", now).
		Int("tzOffsetMinutes", tzOffsetMinutes).
		Msg("Client time tracker initialized")
}

func parseClientTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range clientTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Now returns the current client local time. It always returns a value:
// server UTC time when the tracker was never initialized.
func (t *Tracker) Now() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.initialized {
		return t.now()
	}

	elapsed := t.now().Sub(t.serverAtConnect)
	return t.clientAtConnect.Add(elapsed)
}

// DateString returns the current client date as YYYY-MM-DD.
func (t *Tracker) DateString() string {
	return t.Now().Format("2006-01-02")
}

// TimeString returns the current client time as HH:MM.
func (t *Tracker) TimeString() string {
	return t.Now().Format("15:04")
}

// ISOString returns the current client datetime in ISO 8601 form.
func (t *Tracker) ISOString() string {
	return t.Now().Format("2006-01-02T15:04:05")
}

// Formatted returns a human-readable datetime such as
// "Monday, November 24, 2025 at 2:30 PM".
func (t *Tracker) Formatted() string {
	return t.Now().Format("Monday, January 2, 2006 at 3:04 PM")
}

// TimezoneOffsetMinutes returns the client's UTC offset in minutes.
func (t *Tracker) TimezoneOffsetMinutes() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tzOffsetMinutes
}

// Initialized reports whether the tracker holds a trustworthy client
// baseline rather than server fallback time.
func (t *Tracker) Initialized() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.initialized
}
