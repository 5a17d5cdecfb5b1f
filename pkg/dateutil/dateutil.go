package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical day format used in storage and output
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// StartOfDayIn returns the start of the day in loc for the given instant
func StartOfDayIn(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return StartOfDay(date)
	}
	return StartOfDay(date.In(loc))
}

// EpochDay returns the number of calendar days between 1970-01-01 and the
// wall-clock date of t. Time of day and zone offset are ignored.
func EpochDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// DaysBetween returns whole calendar days from "from" to "to".
// Negative when "to" is before "from". DST transitions do not affect it.
func DaysBetween(from, to time.Time) int {
	return int(EpochDay(to) - EpochDay(from))
}

// AddDays returns date moved by n calendar days
func AddDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}

// WeekdayName returns the lowercase English weekday name ("saturday")
func WeekdayName(date time.Time) string {
	return strings.ToLower(date.Weekday().String())
}

// ParseWeekday parses a weekday name case-insensitively.
// Three-letter abbreviations ("sat") are accepted.
func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return wd, true
		}
	}
	return 0, false
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// ParseDate parses date string in various formats
func ParseDate(dateStr string) (time.Time, error) {
	return ParseDateIn(dateStr, time.UTC)
}

// ParseDateIn parses date string in various formats, interpreting values
// without an explicit offset in loc
func ParseDateIn(dateStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	formats := []string{
		DateLayout,
		"02-01-2006",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339Nano,
		"2006-01-02T15:04:05-0700",
	}

	dateStr = strings.TrimSpace(dateStr)
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, dateStr, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", dateStr)
}

// FormatDate formats date as YYYY-MM-DD
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// Today returns today's date (start of day) in loc
func Today(loc *time.Location) time.Time {
	return StartOfDayIn(time.Now(), loc)
}
