package reminder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Recurrence describes how a reminder repeats.
type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
	RecurrenceCustom Recurrence = "custom"
)

// Reminder is a stored due item.
type Reminder struct {
	ID                  string
	UserID              string
	Title               string
	ScheduledTime       time.Time
	RemindBeforeMinutes int
	Recurrence          Recurrence
	CustomDays          []string
	LastRemindedAt      *time.Time
	Completed           bool
	CreatedAt           time.Time
}

// Recurring reports whether the reminder repeats.
func (r Reminder) Recurring() bool {
	return r.Recurrence != "" && r.Recurrence != RecurrenceNone
}

// Store persists reminders in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the reminder database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps scheduler reads cheap while turns write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("Reminder store opened")
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			scheduled_time_ms INTEGER NOT NULL,
			remind_before_minutes INTEGER NOT NULL DEFAULT 0,
			recurrence TEXT NOT NULL DEFAULT 'none',
			custom_days TEXT NOT NULL DEFAULT '',
			last_reminded_at_ms INTEGER,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at_ms INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders(user_id);
		CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(user_id, completed, scheduled_time_ms);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a reminder and returns it with its generated ID.
func (s *Store) Add(r Reminder) (Reminder, error) {
	if r.UserID == "" {
		return Reminder{}, fmt.Errorf("user id is required")
	}
	if r.Title == "" {
		return Reminder{}, fmt.Errorf("title is required")
	}
	if r.ScheduledTime.IsZero() {
		return Reminder{}, fmt.Errorf("scheduled time is required")
	}
	if r.Recurrence == "" {
		r.Recurrence = RecurrenceNone
	}

	r.ID = uuid.New().String()
	r.CreatedAt = time.Now()

	_, err := s.db.Exec(
		`INSERT INTO reminders
			(id, user_id, title, scheduled_time_ms, remind_before_minutes, recurrence, custom_days, completed, created_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		r.ID, r.UserID, r.Title, r.ScheduledTime.UnixMilli(), r.RemindBeforeMinutes,
		string(r.Recurrence), strings.Join(r.CustomDays, ","), r.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return Reminder{}, fmt.Errorf("failed to insert reminder: %w", err)
	}

	log.Info().Str("id", r.ID).Str("title", r.Title).Msg("Reminder added")
	return r, nil
}

// Get fetches one reminder by ID.
func (s *Store) Get(id string) (Reminder, error) {
	row := s.db.QueryRow(selectColumns+" WHERE id = ?", id)
	return scanReminder(row)
}

// List returns a user's reminders, pending first, ordered by scheduled time.
func (s *Store) List(userID string) ([]Reminder, error) {
	rows, err := s.db.Query(selectColumns+
		" WHERE user_id = ? ORDER BY completed ASC, scheduled_time_ms ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

// DueCandidates returns a user's pending reminders scheduled within the
// lookback window around now. The window is deliberately wide (24h both
// ways) so varying lead times and a skewed client clock don't hide items;
// the scheduler applies the precise eligibility predicate.
func (s *Store) DueCandidates(userID string, now time.Time) ([]Reminder, error) {
	const window = 24 * time.Hour

	rows, err := s.db.Query(selectColumns+
		` WHERE user_id = ? AND completed = 0
		  AND scheduled_time_ms BETWEEN ? AND ?
		  ORDER BY scheduled_time_ms ASC`,
		userID, now.Add(-window).UnixMilli(), now.Add(window).UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query due candidates: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

// MarkReminded persists the last-announced timestamp.
func (s *Store) MarkReminded(id string, at time.Time) error {
	_, err := s.db.Exec(
		"UPDATE reminders SET last_reminded_at_ms = ? WHERE id = ?",
		at.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to mark reminded: %w", err)
	}
	return nil
}

// Reschedule moves a recurring reminder to its next occurrence and clears
// the announcement timestamp so the next occurrence announces afresh.
func (s *Store) Reschedule(id string, next time.Time) error {
	_, err := s.db.Exec(
		"UPDATE reminders SET scheduled_time_ms = ?, last_reminded_at_ms = NULL WHERE id = ?",
		next.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to reschedule: %w", err)
	}
	log.Info().Str("id", id).Time("next", next).Msg("Reminder rescheduled")
	return nil
}

// Complete marks a reminder done.
func (s *Store) Complete(id string) error {
	res, err := s.db.Exec("UPDATE reminders SET completed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to complete reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reminder not found: %s", id)
	}
	return nil
}

// Delete removes a reminder.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reminder not found: %s", id)
	}
	return nil
}

const selectColumns = `SELECT id, user_id, title, scheduled_time_ms, remind_before_minutes,
	recurrence, custom_days, last_reminded_at_ms, completed, created_at_ms FROM reminders`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReminder(row rowScanner) (Reminder, error) {
	var r Reminder
	var scheduledMs, createdMs int64
	var lastMs sql.NullInt64
	var recurrence, customDays string
	var completed int

	err := row.Scan(&r.ID, &r.UserID, &r.Title, &scheduledMs, &r.RemindBeforeMinutes,
		&recurrence, &customDays, &lastMs, &completed, &createdMs)
	if err == sql.ErrNoRows {
		return Reminder{}, fmt.Errorf("reminder not found")
	}
	if err != nil {
		return Reminder{}, fmt.Errorf("failed to scan reminder: %w", err)
	}

	r.ScheduledTime = time.UnixMilli(scheduledMs).UTC()
	r.CreatedAt = time.UnixMilli(createdMs).UTC()
	r.Recurrence = Recurrence(recurrence)
	r.Completed = completed != 0
	if customDays != "" {
		r.CustomDays = strings.Split(customDays, ",")
	}
	if lastMs.Valid {
		t := time.UnixMilli(lastMs.Int64).UTC()
		r.LastRemindedAt = &t
	}
	return r, nil
}

func collectReminders(rows *sql.Rows) ([]Reminder, error) {
	var out []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
