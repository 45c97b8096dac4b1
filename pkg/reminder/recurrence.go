package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var cronDayAbbrev = map[string]string{
	"sunday":    "SUN",
	"monday":    "MON",
	"tuesday":   "TUE",
	"wednesday": "WED",
	"thursday":  "THU",
	"friday":    "FRI",
	"saturday":  "SAT",
}

// NextOccurrence computes when a recurring reminder fires next, strictly
// after the given time. Returns false for one-shot reminders.
func NextOccurrence(r Reminder, after time.Time) (time.Time, bool, error) {
	expr, ok, err := cronExpr(r)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid recurrence expression %q: %w", expr, err)
	}

	return sched.Next(after), true, nil
}

// cronExpr derives a cron expression from the reminder's scheduled
// time-of-day and recurrence kind.
func cronExpr(r Reminder) (string, bool, error) {
	minute := r.ScheduledTime.Minute()
	hour := r.ScheduledTime.Hour()

	switch r.Recurrence {
	case "", RecurrenceNone:
		return "", false, nil
	case RecurrenceDaily:
		return fmt.Sprintf("%d %d * * *", minute, hour), true, nil
	case RecurrenceWeekly:
		return fmt.Sprintf("%d %d * * %d", minute, hour, int(r.ScheduledTime.Weekday())), true, nil
	case RecurrenceCustom:
		if len(r.CustomDays) == 0 {
			return "", false, fmt.Errorf("custom recurrence requires at least one day")
		}
		days := make([]string, 0, len(r.CustomDays))
		for _, day := range r.CustomDays {
			abbrev, ok := cronDayAbbrev[strings.ToLower(strings.TrimSpace(day))]
			if !ok {
				return "", false, fmt.Errorf("unknown weekday %q", day)
			}
			days = append(days, abbrev)
		}
		return fmt.Sprintf("%d %d * * %s", minute, hour, strings.Join(days, ",")), true, nil
	default:
		return "", false, fmt.Errorf("unknown recurrence kind %q", r.Recurrence)
	}
}
