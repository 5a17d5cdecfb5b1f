package calendar

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/username/bgv-admin/pkg/dateutil"
)

// MaxTatDays bounds the number of working days a single walk may cover
const MaxTatDays = 10000

// ProgressStatus classifies an application against its TAT
type ProgressStatus string

const (
	StatusEarly  ProgressStatus = "early"
	StatusOnTime ProgressStatus = "on_time"
	StatusExceed ProgressStatus = "exceed"
)

// Progress is the standing of an application relative to its TAT.
// Remaining is set for early, ExceededBy for exceed.
type Progress struct {
	Status     ProgressStatus
	Used       int
	Remaining  int
	ExceededBy int
}

// MarshalJSON emits a per-status shape:
// early {status, used, remaining}, on_time {status, used}, exceed {status, exceededBy}
func (p Progress) MarshalJSON() ([]byte, error) {
	switch p.Status {
	case StatusEarly:
		return json.Marshal(struct {
			Status    ProgressStatus `json:"status"`
			Used      int            `json:"used"`
			Remaining int            `json:"remaining"`
		}{p.Status, p.Used, p.Remaining})
	case StatusOnTime:
		return json.Marshal(struct {
			Status ProgressStatus `json:"status"`
			Used   int            `json:"used"`
		}{p.Status, p.Used})
	default:
		return json.Marshal(struct {
			Status     ProgressStatus `json:"status"`
			ExceededBy int            `json:"exceededBy"`
		}{p.Status, p.ExceededBy})
	}
}

// Result bundles the three TAT answers for one application
type Result struct {
	DueDate            time.Time
	ActualCalendarDays int
	Progress           Progress
}

// ParseTatDays coerces a loosely typed TAT value to a non-negative day count.
//
// Strings take their leading integer ("12 days" -> 12). Anything
// non-numeric, negative, NaN or missing yields 0. Values above MaxTatDays
// are clamped.
func ParseTatDays(v any) int {
	var n int64

	switch val := v.(type) {
	case nil:
		return 0
	case string:
		n = leadingInt(val)
	case []byte:
		n = leadingInt(string(val))
	case float32:
		n = floatDays(float64(val))
	case float64:
		n = floatDays(val)
	default:
		parsed, err := cast.ToInt64E(v)
		if err != nil {
			return 0
		}
		n = parsed
	}

	switch {
	case n < 0:
		return 0
	case n > MaxTatDays:
		return MaxTatDays
	}
	return int(n)
}

func floatDays(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > MaxTatDays {
		return MaxTatDays
	}
	return int64(f)
}

// leadingInt parses an optionally signed run of decimal digits at the start
// of s, ignoring surrounding whitespace. Returns 0 when there is none.
func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}
	for digitsStart < end-1 && s[digitsStart] == '0' {
		digitsStart++
	}
	// Long digit runs overflow; anything that large is clamped anyway.
	if end-digitsStart > 9 {
		if s[0] == '-' {
			return -1
		}
		return MaxTatDays
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// walk advances one calendar day at a time from start, counting working
// days until tatDays of them have been seen. It returns the day on which
// the count was reached and the number of days advanced.
func (c *WorkingDayCalendar) walk(start time.Time, tatDays int) (time.Time, int) {
	day := dateutil.StartOfDay(start)
	advanced := 0
	for remaining := tatDays; remaining > 0; {
		day = dateutil.AddDays(day, 1)
		advanced++
		if c.IsWorkingDay(day) {
			remaining--
		}
	}
	return day, advanced
}

// DueDate returns the calendar day on which the tatDays-th working day
// after start falls. With a TAT of zero it is the first working day
// strictly after start. Negative TATs count as zero.
func (c *WorkingDayCalendar) DueDate(start time.Time, tatDays int) time.Time {
	if tatDays <= 0 {
		day := dateutil.AddDays(dateutil.StartOfDay(start), 1)
		for !c.IsWorkingDay(day) {
			day = dateutil.AddDays(day, 1)
		}
		return day
	}

	due, _ := c.walk(start, min(tatDays, MaxTatDays))
	return due
}

// ActualCalendarDays returns the calendar days elapsed from start
// (exclusive) to the tatDays-th working day (inclusive). Zero when the
// TAT is zero or negative.
func (c *WorkingDayCalendar) ActualCalendarDays(start time.Time, tatDays int) int {
	if tatDays <= 0 {
		return 0
	}
	_, days := c.walk(start, min(tatDays, MaxTatDays))
	return days
}

// EvaluateProgress classifies the TAT standing as of today
func (c *WorkingDayCalendar) EvaluateProgress(start time.Time, tatDays int, today time.Time) Progress {
	needed := c.ActualCalendarDays(start, tatDays)
	passed := dateutil.DaysBetween(start, today)

	switch {
	case passed < needed:
		return Progress{Status: StatusEarly, Used: passed, Remaining: needed - passed}
	case passed == needed:
		return Progress{Status: StatusOnTime, Used: passed}
	default:
		return Progress{Status: StatusExceed, ExceededBy: passed - needed}
	}
}

// Evaluate computes due date, actual calendar days and progress together
func (c *WorkingDayCalendar) Evaluate(start time.Time, tatDays int, today time.Time) Result {
	return Result{
		DueDate:            c.DueDate(start, tatDays),
		ActualCalendarDays: c.ActualCalendarDays(start, tatDays),
		Progress:           c.EvaluateProgress(start, tatDays, today),
	}
}
