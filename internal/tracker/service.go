package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/iter"
	"github.com/username/bgv-admin/internal/calendar"
	"github.com/username/bgv-admin/internal/store"
	"github.com/username/bgv-admin/pkg/dateutil"
	"go.uber.org/zap"
)

// ApplicationLister reads branch applications from storage
type ApplicationLister interface {
	ListBranchApplications(ctx context.Context, branchID int64, filter store.ApplicationFilter) ([]*store.Application, error)
}

// Service builds the client master tracker listing
type Service struct {
	source calendar.Source
	apps   ApplicationLister
	loc    *time.Location
	logger *zap.Logger
}

// NewService creates a tracker service. Application timestamps are read
// as wall-clock days in loc.
func NewService(source calendar.Source, apps ApplicationLister, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		source: source,
		apps:   apps,
		loc:    loc,
		logger: logger,
	}
}

// ListBranchApplications returns the listing of a branch with due dates
// and TAT standing as of today. Row order follows the query.
func (s *Service) ListBranchApplications(ctx context.Context, branchID int64, filter store.ApplicationFilter, today time.Time) ([]ApplicationView, error) {
	if filter.Status != "" && !store.IsKnownStatusFilter(filter.Status) {
		s.logger.Warn("Unknown status filter ignored", zap.String("status", filter.Status))
	}

	// Calendar is rebuilt per request so configuration edits apply immediately
	cal, err := calendar.Load(ctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}

	apps, err := s.apps.ListBranchApplications(ctx, branchID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	today = dateutil.StartOfDayIn(today, s.loc)
	views := iter.Map(apps, func(app **store.Application) ApplicationView {
		return s.view(cal, *app, today)
	})

	s.logger.Debug("Tracker listing built",
		zap.Int64("branch_id", branchID),
		zap.String("status", filter.Status),
		zap.String("month", filter.Month),
		zap.Int("count", len(views)))

	return views, nil
}

// Summary counts open applications of a branch as early, on time or exceeded
func (s *Service) Summary(ctx context.Context, branchID int64, today time.Time) (*Summary, error) {
	cal, err := calendar.Load(ctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}

	apps, err := s.apps.ListBranchApplications(ctx, branchID, store.ApplicationFilter{Status: "pending_application_count"})
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	today = dateutil.StartOfDayIn(today, s.loc)
	summary := &Summary{BranchID: branchID}
	for _, app := range apps {
		progress := cal.EvaluateProgress(app.CreatedAt.In(s.loc), calendar.ParseTatDays(app.TatDays), today)
		switch progress.Status {
		case calendar.StatusEarly:
			summary.Early++
		case calendar.StatusOnTime:
			summary.OnTime++
		default:
			summary.Exceed++
		}
	}

	return summary, nil
}

func (s *Service) view(cal *calendar.WorkingDayCalendar, app *store.Application, today time.Time) ApplicationView {
	start := app.CreatedAt.In(s.loc)
	tat := calendar.ParseTatDays(app.TatDays)

	v := ApplicationView{
		ID:                app.ID,
		ApplicationID:     app.ApplicationID,
		Name:              app.Name,
		CustomerID:        app.CustomerID,
		CustomerName:      app.CustomerName,
		BranchID:          app.BranchID,
		BranchName:        app.BranchName,
		Status:            app.Status,
		OverallStatus:     app.OverallStatus,
		IsVerify:          app.IsVerify,
		IsHighlight:       app.IsHighlight,
		IsReportCompleted: app.IsReportCompleted,
		ReportCompletedAt: app.ReportCompletedAt,
		CreatedAt:         app.CreatedAt.UTC(),
		NewDeadlineDate:   dateutil.FormatDate(cal.DueDate(start, tat)),
		TatDays:           cal.ActualCalendarDays(start, tat),
	}

	if app.IsReportCompleted && app.ReportCompletedAt != nil {
		progress := cal.EvaluateProgress(start, tat, today)
		v.ReportCompletedStatus = &progress
	}

	return v
}
