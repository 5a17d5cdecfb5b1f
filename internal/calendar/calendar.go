package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/username/bgv-admin/pkg/dateutil"
)

// WorkingDayCalendar decides whether a calendar day is a working day.
//
// A day is a working day iff its weekday is not a configured weekend and
// its date is not a configured holiday. The calendar is immutable after
// construction and safe for concurrent use.
type WorkingDayCalendar struct {
	weekends [7]bool
	holidays map[int64]struct{} // key: dateutil.EpochDay
}

// New creates a calendar from weekday names and holiday dates.
//
// Weekday names are matched case-insensitively; unknown names are ignored.
// A weekend set covering all seven days is treated as empty, since no
// working day could ever be reached. Holidays are compared by calendar
// day only.
func New(weekends []string, holidays []time.Time) *WorkingDayCalendar {
	c := &WorkingDayCalendar{
		holidays: make(map[int64]struct{}, len(holidays)),
	}

	count := 0
	for _, name := range weekends {
		wd, ok := dateutil.ParseWeekday(name)
		if !ok || c.weekends[wd] {
			continue
		}
		c.weekends[wd] = true
		count++
	}
	if count == len(c.weekends) {
		c.weekends = [7]bool{}
	}

	for _, h := range holidays {
		if h.IsZero() {
			continue
		}
		c.holidays[dateutil.EpochDay(h)] = struct{}{}
	}

	return c
}

// IsWorkingDay reports whether date is a working day
func (c *WorkingDayCalendar) IsWorkingDay(date time.Time) bool {
	if c.weekends[date.Weekday()] {
		return false
	}
	_, holiday := c.holidays[dateutil.EpochDay(date)]
	return !holiday
}

// IsWeekend reports whether date falls on a configured weekend day
func (c *WorkingDayCalendar) IsWeekend(date time.Time) bool {
	return c.weekends[date.Weekday()]
}

// IsHoliday reports whether date is a configured holiday
func (c *WorkingDayCalendar) IsHoliday(date time.Time) bool {
	_, ok := c.holidays[dateutil.EpochDay(date)]
	return ok
}

// Weekends returns the effective weekend day names, Sunday first
func (c *WorkingDayCalendar) Weekends() []string {
	names := []string{}
	for wd, off := range c.weekends {
		if off {
			names = append(names, strings.ToLower(time.Weekday(wd).String()))
		}
	}
	return names
}

// Holidays returns the holiday dates in ascending order (UTC midnight)
func (c *WorkingDayCalendar) Holidays() []time.Time {
	days := make([]int64, 0, len(c.holidays))
	for d := range c.holidays {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	out := make([]time.Time, len(days))
	for i, d := range days {
		out[i] = time.Unix(d*24*60*60, 0).UTC()
	}
	return out
}
