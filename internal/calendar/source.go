package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/username/bgv-admin/pkg/dateutil"
)

// Holiday is an organisation-wide non-working date
type Holiday struct {
	ID    int64     `json:"holiday_id" yaml:"-"`
	Title string    `json:"holiday_title" yaml:"title"`
	Date  time.Time `json:"holiday_date" yaml:"-"`
}

// Source provides the configuration a WorkingDayCalendar is built from
type Source interface {
	// Holidays returns all configured holidays
	Holidays(ctx context.Context) ([]Holiday, error)

	// Weekends returns the weekday names that are never working days
	Weekends(ctx context.Context) ([]string, error)
}

// Snapshotter is implemented by sources that must serve holidays and
// weekends from the same backend
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]Holiday, []string, error)
}

// Load builds a fresh calendar from src. Holiday dates are taken by their
// stored wall-clock day; no zone conversion is applied to them.
func Load(ctx context.Context, src Source) (*WorkingDayCalendar, error) {
	var holidays []Holiday
	var weekends []string
	var err error

	if ss, ok := src.(Snapshotter); ok {
		holidays, weekends, err = ss.Snapshot(ctx)
	} else {
		holidays, weekends, err = readSource(ctx, src)
	}
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(holidays))
	for _, h := range holidays {
		if h.Date.IsZero() {
			continue
		}
		dates = append(dates, dateutil.StartOfDay(h.Date))
	}

	return New(weekends, dates), nil
}

func readSource(ctx context.Context, src Source) ([]Holiday, []string, error) {
	holidays, err := src.Holidays(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load holidays: %w", err)
	}

	weekends, err := src.Weekends(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load weekends: %w", err)
	}

	return holidays, weekends, nil
}
