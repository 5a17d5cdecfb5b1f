package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/bgv-admin/internal/calendar"
	"github.com/username/bgv-admin/internal/store"
	"go.uber.org/zap"
)

type fakeSource struct {
	holidays []calendar.Holiday
	weekends []string
	err      error
}

func (f *fakeSource) Holidays(ctx context.Context) ([]calendar.Holiday, error) {
	return f.holidays, f.err
}

func (f *fakeSource) Weekends(ctx context.Context) ([]string, error) {
	return f.weekends, f.err
}

type fakeLister struct {
	apps       []*store.Application
	err        error
	lastFilter store.ApplicationFilter
}

func (f *fakeLister) ListBranchApplications(ctx context.Context, branchID int64, filter store.ApplicationFilter) ([]*store.Application, error) {
	f.lastFilter = filter
	return f.apps, f.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekendSource() *fakeSource {
	return &fakeSource{weekends: []string{"saturday", "sunday"}}
}

func TestService_ListBranchApplications(t *testing.T) {
	completedAt := day(2025, 3, 12)
	lister := &fakeLister{apps: []*store.Application{
		// Monday, 5 working days -> next Monday
		{ID: 3, ApplicationID: "A-3", TatDays: "5", CreatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
		// Friday, 1 working day -> Monday
		{ID: 2, ApplicationID: "A-2", TatDays: "1", CreatedAt: time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC),
			IsReportCompleted: true, ReportCompletedAt: &completedAt},
		// malformed TAT behaves like zero
		{ID: 1, ApplicationID: "A-1", TatDays: "n/a", CreatedAt: time.Date(2025, 3, 7, 8, 0, 0, 0, time.UTC)},
	}}

	svc := NewService(weekendSource(), lister, time.UTC, zap.NewNop())
	filter := store.ApplicationFilter{Status: "pending_application_count", Month: "2025-03"}

	views, err := svc.ListBranchApplications(context.Background(), 7, filter, day(2025, 3, 14))
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, filter, lister.lastFilter)

	// order preserved
	assert.Equal(t, []string{"A-3", "A-2", "A-1"}, []string{views[0].ApplicationID, views[1].ApplicationID, views[2].ApplicationID})

	assert.Equal(t, "2025-03-17", views[0].NewDeadlineDate)
	assert.Equal(t, 7, views[0].TatDays)
	assert.Nil(t, views[0].ReportCompletedStatus)

	assert.Equal(t, "2025-03-10", views[1].NewDeadlineDate)
	assert.Equal(t, 3, views[1].TatDays)
	require.NotNil(t, views[1].ReportCompletedStatus)
	assert.Equal(t, calendar.StatusExceed, views[1].ReportCompletedStatus.Status)
	assert.Equal(t, 4, views[1].ReportCompletedStatus.ExceededBy)

	assert.Equal(t, "2025-03-10", views[2].NewDeadlineDate)
	assert.Equal(t, 0, views[2].TatDays)
}

func TestService_ListBranchApplications_JSON(t *testing.T) {
	completedAt := day(2025, 3, 11)
	lister := &fakeLister{apps: []*store.Application{
		{ID: 1, ApplicationID: "A-1", TatDays: "5", CreatedAt: day(2025, 3, 10),
			IsReportCompleted: true, ReportCompletedAt: &completedAt},
	}}
	svc := NewService(weekendSource(), lister, time.UTC, zap.NewNop())

	views, err := svc.ListBranchApplications(context.Background(), 1, store.ApplicationFilter{}, day(2025, 3, 12))
	require.NoError(t, err)

	data, err := json.Marshal(views[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2025-03-17", decoded["new_deadline_date"])
	assert.EqualValues(t, 7, decoded["tat_days"])
	assert.Equal(t, map[string]any{"status": "early", "used": float64(2), "remaining": float64(5)}, decoded["report_completed_status"])
}

func TestService_UsesConfiguredLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// Friday 20:00 UTC is Saturday in IST
	lister := &fakeLister{apps: []*store.Application{
		{ID: 1, ApplicationID: "A-1", TatDays: "1", CreatedAt: time.Date(2025, 3, 7, 20, 0, 0, 0, time.UTC)},
	}}

	svc := NewService(weekendSource(), lister, ist, zap.NewNop())
	views, err := svc.ListBranchApplications(context.Background(), 1, store.ApplicationFilter{}, time.Date(2025, 3, 10, 12, 0, 0, 0, ist))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "2025-03-10", views[0].NewDeadlineDate)
	assert.Equal(t, 2, views[0].TatDays)
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()

	svc := NewService(&fakeSource{err: errors.New("db down")}, &fakeLister{}, time.UTC, zap.NewNop())
	_, err := svc.ListBranchApplications(ctx, 1, store.ApplicationFilter{}, day(2025, 3, 10))
	assert.Error(t, err)

	svc = NewService(weekendSource(), &fakeLister{err: errors.New("query failed")}, time.UTC, zap.NewNop())
	_, err = svc.ListBranchApplications(ctx, 1, store.ApplicationFilter{}, day(2025, 3, 10))
	assert.Error(t, err)
	_, err = svc.Summary(ctx, 1, day(2025, 3, 10))
	assert.Error(t, err)
}

func TestService_Summary(t *testing.T) {
	lister := &fakeLister{apps: []*store.Application{
		{ID: 1, TatDays: "5", CreatedAt: day(2025, 3, 10)},  // due 17th, early
		{ID: 2, TatDays: "2", CreatedAt: day(2025, 3, 10)},  // 12th, on time
		{ID: 3, TatDays: "1", CreatedAt: day(2025, 3, 3)},   // 4th, exceed
		{ID: 4, TatDays: "0", CreatedAt: day(2025, 3, 12)},  // created today, on time
		{ID: 5, TatDays: "bad", CreatedAt: day(2025, 3, 1)}, // exceed
	}}
	svc := NewService(weekendSource(), lister, time.UTC, zap.NewNop())

	summary, err := svc.Summary(context.Background(), 9, day(2025, 3, 12))
	require.NoError(t, err)
	assert.Equal(t, "pending_application_count", lister.lastFilter.Status)
	assert.Equal(t, &Summary{BranchID: 9, Early: 1, OnTime: 2, Exceed: 2}, summary)
	assert.Equal(t, 5, summary.Total())
}

func TestService_WithStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "bgv.db"), Location: time.UTC})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetWeekends(ctx, []string{"sunday"}))
	_, err = s.AddHoliday(ctx, "Holi", day(2025, 3, 14))
	require.NoError(t, err)

	customer := &store.Customer{ClientUniqueID: "CL-1", Name: "Acme", TatDays: "3"}
	require.NoError(t, s.CreateCustomer(ctx, customer))
	branch := &store.Branch{CustomerID: customer.ID, Name: "HQ"}
	require.NoError(t, s.CreateBranch(ctx, branch))
	_, err = s.CreateApplication(ctx, store.NewApplication{
		ApplicationID: "A-1",
		CustomerID:    customer.ID,
		BranchID:      branch.ID,
		Status:        "wip",
		OverallStatus: store.OverallWIP,
		CreatedAt:     time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	svc := NewService(s, s, time.UTC, zap.NewNop())
	views, err := svc.ListBranchApplications(ctx, branch.ID, store.ApplicationFilter{}, day(2025, 3, 12))
	require.NoError(t, err)
	require.Len(t, views, 1)
	// Thu 13, Fri 14 holiday, Sat 15, Sun 16 weekend, Mon 17
	assert.Equal(t, "2025-03-17", views[0].NewDeadlineDate)
	assert.Equal(t, 5, views[0].TatDays)
}
