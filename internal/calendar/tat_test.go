package calendar

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func weekdayCalendar(holidays ...time.Time) *WorkingDayCalendar {
	return New([]string{"saturday", "sunday"}, holidays)
}

func TestParseTatDays(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
	}{
		{"nil", nil, 0},
		{"int", 5, 5},
		{"int64", int64(3), 3},
		{"uint", uint(4), 4},
		{"negative int", -3, 0},
		{"float truncated", 4.8, 4},
		{"NaN", math.NaN(), 0},
		{"Inf", math.Inf(1), 0},
		{"numeric string", "12", 12},
		{"padded string", "  7 ", 7},
		{"leading integer", "12abc", 12},
		{"decimal string", "5.9", 5},
		{"negative string", "-3", 0},
		{"non-numeric string", "abc", 0},
		{"empty string", "", 0},
		{"bytes", []byte("9"), 9},
		{"zero padded", "0000000005", 5},
		{"zero padded with suffix", "000000000007 days", 7},
		{"zero padded negative", "-00000000003", 0},
		{"huge string", "99999999999", MaxTatDays},
		{"huge negative string", "-99999999999", 0},
		{"huge float", 1e12, MaxTatDays},
		{"unsupported type", struct{}{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTatDays(tt.input); got != tt.want {
				t.Errorf("ParseTatDays(%#v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestDueDate(t *testing.T) {
	tests := []struct {
		name     string
		cal      *WorkingDayCalendar
		start    time.Time
		tatDays  int
		wantDue  time.Time
		wantDays int
	}{
		{
			name:     "Five working days from Monday skip the weekend",
			cal:      weekdayCalendar(),
			start:    date(2025, 1, 13),
			tatDays:  5,
			wantDue:  date(2025, 1, 20),
			wantDays: 7,
		},
		{
			name:     "Zero TAT on Monday is Tuesday",
			cal:      weekdayCalendar(),
			start:    date(2025, 1, 13),
			tatDays:  0,
			wantDue:  date(2025, 1, 14),
			wantDays: 0,
		},
		{
			name:     "Zero TAT on Friday jumps the weekend",
			cal:      weekdayCalendar(),
			start:    date(2025, 1, 17),
			tatDays:  0,
			wantDue:  date(2025, 1, 20),
			wantDays: 0,
		},
		{
			name:     "Zero TAT skips a holiday Monday",
			cal:      weekdayCalendar(date(2025, 1, 20)),
			start:    date(2025, 1, 17),
			tatDays:  0,
			wantDue:  date(2025, 1, 21),
			wantDays: 0,
		},
		{
			name:     "Start on Saturday",
			cal:      weekdayCalendar(),
			start:    date(2025, 1, 18),
			tatDays:  1,
			wantDue:  date(2025, 1, 20),
			wantDays: 2,
		},
		{
			name:     "Start day itself never counts",
			cal:      New(nil, nil),
			start:    date(2025, 1, 13),
			tatDays:  1,
			wantDue:  date(2025, 1, 14),
			wantDays: 1,
		},
		{
			name:     "Time of day on start is ignored",
			cal:      New(nil, nil),
			start:    time.Date(2025, 1, 13, 23, 59, 0, 0, time.UTC),
			tatDays:  2,
			wantDue:  date(2025, 1, 15),
			wantDays: 2,
		},
		{
			name:     "Holidays and weekends combined",
			cal:      weekdayCalendar(date(2025, 1, 14), date(2025, 1, 21)),
			start:    date(2025, 1, 13),
			tatDays:  5,
			wantDue:  date(2025, 1, 22),
			wantDays: 9,
		},
		{
			name:     "Across month and year end",
			cal:      weekdayCalendar(date(2025, 1, 1)),
			start:    date(2024, 12, 30),
			tatDays:  3,
			wantDue:  date(2025, 1, 3),
			wantDays: 4,
		},
		{
			name:     "Negative TAT behaves like zero",
			cal:      weekdayCalendar(),
			start:    date(2025, 1, 17),
			tatDays:  -3,
			wantDue:  date(2025, 1, 20),
			wantDays: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := tt.cal.DueDate(tt.start, tt.tatDays)
			if !due.Equal(tt.wantDue) {
				t.Errorf("DueDate() = %v, want %v",
					due.Format("2006-01-02 Mon"), tt.wantDue.Format("2006-01-02 Mon"))
			}

			days := tt.cal.ActualCalendarDays(tt.start, tt.tatDays)
			if days != tt.wantDays {
				t.Errorf("ActualCalendarDays() = %d, want %d", days, tt.wantDays)
			}
		})
	}
}

func TestDueDate_HolidayOnTargetDayPushesOneDay(t *testing.T) {
	start := date(2025, 1, 13)
	plain := New(nil, nil).DueDate(start, 3)
	if !plain.Equal(date(2025, 1, 16)) {
		t.Fatalf("DueDate() without holiday = %v, want 2025-01-16", plain)
	}

	withHoliday := New(nil, []time.Time{plain}).DueDate(start, 3)
	if !withHoliday.Equal(plain.AddDate(0, 0, 1)) {
		t.Errorf("DueDate() with holiday = %v, want %v", withHoliday, plain.AddDate(0, 0, 1))
	}
}

func TestDueDate_AgreesWithActualCalendarDays(t *testing.T) {
	cal := New([]string{"friday", "saturday"}, []time.Time{
		date(2025, 3, 31), date(2025, 4, 1), date(2025, 4, 18), date(2025, 5, 1),
	})

	for offset := 0; offset < 21; offset++ {
		start := date(2025, 3, 24).AddDate(0, 0, offset)
		prevDue := time.Time{}
		prevDays := -1

		for tat := 1; tat <= 40; tat++ {
			due := cal.DueDate(start, tat)
			days := cal.ActualCalendarDays(start, tat)

			if !start.AddDate(0, 0, days).Equal(due) {
				t.Fatalf("start %s tat %d: start+%d days != due %s",
					start.Format("2006-01-02"), tat, days, due.Format("2006-01-02"))
			}
			if !cal.IsWorkingDay(due) {
				t.Fatalf("start %s tat %d: due %s is not a working day",
					start.Format("2006-01-02"), tat, due.Format("2006-01-02"))
			}
			if due.Before(prevDue) || days < prevDays {
				t.Fatalf("start %s tat %d: result decreased (due %s, days %d)",
					start.Format("2006-01-02"), tat, due.Format("2006-01-02"), days)
			}
			prevDue, prevDays = due, days
		}
	}
}

func TestDueDate_ZeroTatIsNotAfterOneDayTat(t *testing.T) {
	cal := weekdayCalendar(date(2025, 1, 20))

	for offset := 0; offset < 14; offset++ {
		start := date(2025, 1, 13).AddDate(0, 0, offset)
		zero := cal.DueDate(start, 0)
		one := cal.DueDate(start, 1)

		if !zero.After(start) {
			t.Errorf("start %s: zero-TAT due %s not after start", start.Format("2006-01-02"), zero.Format("2006-01-02"))
		}
		if one.Before(zero) {
			t.Errorf("start %s: DueDate(1) %s before DueDate(0) %s",
				start.Format("2006-01-02"), one.Format("2006-01-02"), zero.Format("2006-01-02"))
		}
	}
}

func TestEvaluateProgress(t *testing.T) {
	// Monday + 8 working days over one weekend = 10 calendar days
	cal := weekdayCalendar()
	start := date(2025, 1, 13)
	if needed := cal.ActualCalendarDays(start, 8); needed != 10 {
		t.Fatalf("ActualCalendarDays() = %d, want 10", needed)
	}

	tests := []struct {
		name  string
		today time.Time
		want  Progress
	}{
		{"One day left", start.AddDate(0, 0, 9), Progress{Status: StatusEarly, Used: 9, Remaining: 1}},
		{"Exactly due", start.AddDate(0, 0, 10), Progress{Status: StatusOnTime, Used: 10}},
		{"One day over", start.AddDate(0, 0, 11), Progress{Status: StatusExceed, ExceededBy: 1}},
		{"Same day", start, Progress{Status: StatusEarly, Used: 0, Remaining: 10}},
		{"Today carries a time", time.Date(2025, 1, 23, 22, 0, 0, 0, time.UTC), Progress{Status: StatusOnTime, Used: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.EvaluateProgress(start, 8, tt.today); got != tt.want {
				t.Errorf("EvaluateProgress() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEvaluateProgress_ZeroTat(t *testing.T) {
	cal := weekdayCalendar()
	start := date(2025, 1, 13)

	if got := cal.EvaluateProgress(start, 0, start); got.Status != StatusOnTime {
		t.Errorf("EvaluateProgress(same day) = %+v, want on_time", got)
	}
	got := cal.EvaluateProgress(start, 0, start.AddDate(0, 0, 3))
	if got.Status != StatusExceed || got.ExceededBy != 3 {
		t.Errorf("EvaluateProgress(+3) = %+v, want exceed by 3", got)
	}
}

func TestMalformedTatBehavesLikeZero(t *testing.T) {
	cal := weekdayCalendar(date(2025, 1, 20))
	start := date(2025, 1, 17)
	today := date(2025, 1, 22)
	want := cal.Evaluate(start, 0, today)

	for _, raw := range []any{"abc", -3, "-3", nil} {
		got := cal.Evaluate(start, ParseTatDays(raw), today)
		if !got.DueDate.Equal(want.DueDate) || got.ActualCalendarDays != want.ActualCalendarDays || got.Progress != want.Progress {
			t.Errorf("Evaluate(tat=%#v) = %+v, want %+v", raw, got, want)
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	cal := weekdayCalendar(date(2025, 1, 15))
	start := date(2025, 1, 13)
	today := date(2025, 1, 30)

	first := cal.Evaluate(start, 7, today)
	second := cal.Evaluate(start, 7, today)

	if !first.DueDate.Equal(second.DueDate) || first.ActualCalendarDays != second.ActualCalendarDays || first.Progress != second.Progress {
		t.Errorf("Evaluate() not idempotent: %+v vs %+v", first, second)
	}
}

func TestProgress_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input Progress
		want  string
	}{
		{"early", Progress{Status: StatusEarly, Used: 9, Remaining: 1}, `{"status":"early","used":9,"remaining":1}`},
		{"on time", Progress{Status: StatusOnTime, Used: 10}, `{"status":"on_time","used":10}`},
		{"exceed", Progress{Status: StatusExceed, ExceededBy: 2}, `{"status":"exceed","exceededBy":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.input)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("json.Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}
