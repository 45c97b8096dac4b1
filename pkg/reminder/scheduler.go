package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/clienttime"
)

const (
	// DefaultInterval is the scheduler tick cadence.
	DefaultInterval = 30 * time.Second

	// AnnounceCooldown is how long after an announcement the same item
	// stays silent, even while still due.
	AnnounceCooldown = 5 * time.Minute
)

// Announcer emits an unsolicited reminder announcement through the active
// session's output.
type Announcer interface {
	Announce(text string) error
}

// DueSource is the reminder persistence the scheduler reads and updates.
type DueSource interface {
	DueCandidates(userID string, now time.Time) ([]Reminder, error)
	MarkReminded(id string, at time.Time) error
	Reschedule(id string, next time.Time) error
}

// TransitionGuard suppresses announcements during a handoff window.
type TransitionGuard interface {
	Transitioning() bool
}

// Scheduler polls for due reminders on client time and announces them. One
// instance runs per session, started once a user identity is known.
type Scheduler struct {
	userID   string
	tracker  *clienttime.Tracker
	store    DueSource
	announce Announcer
	guard    TransitionGuard
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// SchedulerConfig holds scheduler dependencies.
type SchedulerConfig struct {
	UserID    string
	Tracker   *clienttime.Tracker
	Store     DueSource
	Announcer Announcer
	Guard     TransitionGuard
	Interval  time.Duration
}

// NewScheduler creates a due-item scheduler.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("time tracker is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Announcer == nil {
		return nil, fmt.Errorf("announcer is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	return &Scheduler{
		userID:   cfg.UserID,
		tracker:  cfg.Tracker,
		store:    cfg.Store,
		announce: cfg.Announcer,
		guard:    cfg.Guard,
		interval: cfg.Interval,
	}, nil
}

// Start spawns the periodic loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Warn().Msg("Reminder scheduler already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.loop(ctx)

	log.Info().
		Str("userId", s.userID).
		Dur("interval", s.interval).
		Msg("Reminder scheduler started")
}

// Stop cancels the loop and waits for its clean exit. No background work
// survives session teardown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	log.Info().Msg("Reminder scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A failed tick never kills the loop; the next tick
			// proceeds on schedule.
			if err := s.Tick(); err != nil {
				log.Error().Err(err).Msg("Reminder tick failed")
			}
		}
	}
}

// Tick runs a single scheduler pass. Exported so tests and manual triggers
// can drive the scheduler without waiting out the interval.
func (s *Scheduler) Tick() error {
	now := s.tracker.Now()
	if !s.tracker.Initialized() {
		log.Warn().Msg("Client time not initialized, checking reminders on server time")
	}

	candidates, err := s.store.DueCandidates(s.userID, now)
	if err != nil {
		return fmt.Errorf("failed to fetch due candidates: %w", err)
	}

	for _, item := range candidates {
		if !Eligible(item, now) {
			continue
		}

		// Check-then-act on the transition flag: a concurrent handoff
		// may still slip in, which at worst delays one announcement
		// to the next tick.
		if s.guard != nil && s.guard.Transitioning() {
			log.Debug().Str("id", item.ID).Msg("Handoff in progress, deferring announcement")
			continue
		}

		text := FormatAnnouncement(item, now)
		if err := s.announce.Announce(text); err != nil {
			log.Error().Err(err).Str("id", item.ID).Msg("Failed to announce reminder")
			continue
		}

		if err := s.store.MarkReminded(item.ID, now); err != nil {
			log.Error().Err(err).Str("id", item.ID).Msg("Failed to persist announcement timestamp")
		}

		// Once a recurring item's scheduled time has passed, roll it
		// to its next occurrence.
		if item.Recurring() && !now.Before(item.ScheduledTime) {
			next, ok, err := NextOccurrence(item, now)
			if err != nil {
				log.Error().Err(err).Str("id", item.ID).Msg("Failed to compute next occurrence")
			} else if ok {
				if err := s.store.Reschedule(item.ID, next); err != nil {
					log.Error().Err(err).Str("id", item.ID).Msg("Failed to reschedule")
				}
			}
		}
	}

	return nil
}

// Eligible applies the due predicate: the lead window has opened and the
// item hasn't been announced within the cooldown.
func Eligible(r Reminder, now time.Time) bool {
	lead := time.Duration(r.RemindBeforeMinutes) * time.Minute
	if now.Before(r.ScheduledTime.Add(-lead)) {
		return false
	}
	if r.LastRemindedAt != nil && now.Sub(*r.LastRemindedAt) < AnnounceCooldown {
		return false
	}
	return true
}

// FormatAnnouncement phrases the reminder: a lead-time warning while the
// scheduled time is still more than a few minutes out, otherwise an
// it's-time announcement.
func FormatAnnouncement(r Reminder, now time.Time) string {
	minutesUntil := int(r.ScheduledTime.Sub(now).Minutes())

	if r.RemindBeforeMinutes > 0 && minutesUntil > 5 {
		timeDisplay := r.ScheduledTime.Format("3:04 PM")
		return fmt.Sprintf("Reminder: %s in %s (at %s)", r.Title, describeMinutes(minutesUntil), timeDisplay)
	}
	return fmt.Sprintf("Reminder: It's time to %s", r.Title)
}

func describeMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}

	hours := minutes / 60
	rest := minutes % 60
	unit := "hours"
	if hours == 1 {
		unit = "hour"
	}
	if rest > 0 {
		return fmt.Sprintf("%d %s and %d minutes", hours, unit, rest)
	}
	return fmt.Sprintf("%d %s", hours, unit)
}
