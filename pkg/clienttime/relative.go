package clienttime

import (
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseRelativeDate resolves "today", "tomorrow" or a weekday name to a
// YYYY-MM-DD date relative to the current client time. A weekday name always
// resolves to the NEXT occurrence: if today is Monday, "monday" means next
// Monday, never today, so it can't be confused with "today". Unrecognized
// input is returned unchanged since it may already be a date.
func (t *Tracker) ParseRelativeDate(relative string) string {
	current := t.Now()
	word := strings.ToLower(strings.TrimSpace(relative))

	switch word {
	case "today":
		return current.Format("2006-01-02")
	case "tomorrow":
		return current.AddDate(0, 0, 1).Format("2006-01-02")
	}

	if target, ok := weekdays[word]; ok {
		daysAhead := int(target) - int(current.Weekday())
		if daysAhead <= 0 {
			daysAhead += 7
		}
		return current.AddDate(0, 0, daysAhead).Format("2006-01-02")
	}

	return relative
}
