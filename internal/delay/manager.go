package delay

import (
	"context"
	"fmt"
	"time"

	"github.com/username/bgv-admin/internal/calendar"
	"github.com/username/bgv-admin/internal/store"
	"github.com/username/bgv-admin/pkg/dateutil"
	"go.uber.org/zap"
)

// slotLayout keys runs by local date and hour
const slotLayout = "2006-01-02T15"

const defaultSubject = "TAT delay report"

// OpenApplicationLister reads applications still being worked on
type OpenApplicationLister interface {
	ListOpenApplications(ctx context.Context) ([]*store.Application, error)
}

// Config holds the delay manager settings
type Config struct {
	Location *time.Location
	Subject  string
	To       []Recipient
	CC       []Recipient
}

// Manager builds the TAT delay report and hands it to the notifier
type Manager struct {
	source   calendar.Source
	apps     OpenApplicationLister
	notifier Notifier
	state    *SlotStateManager
	cfg      Config
	logger   *zap.Logger
}

// NewManager creates a new delay manager
func NewManager(
	source calendar.Source,
	apps OpenApplicationLister,
	notifier Notifier,
	state *SlotStateManager,
	cfg Config,
	logger *zap.Logger,
) *Manager {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Subject == "" {
		cfg.Subject = defaultSubject
	}
	if state == nil {
		state = NewSlotStateManager("", logger)
	}
	return &Manager{
		source:   source,
		apps:     apps,
		notifier: notifier,
		state:    state,
		cfg:      cfg,
		logger:   logger,
	}
}

// BuildReport evaluates every open application against a freshly loaded
// calendar and keeps those past their TAT as of today
func (m *Manager) BuildReport(ctx context.Context, today time.Time) (*Report, error) {
	cal, err := calendar.Load(ctx, m.source)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}

	apps, err := m.apps.ListOpenApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open applications: %w", err)
	}

	today = dateutil.StartOfDayIn(today, m.cfg.Location)
	report := &Report{
		Date:        dateutil.FormatDate(today),
		GeneratedAt: time.Now().UTC(),
		Customers:   []CustomerReport{},
	}

	// Groups keep first-seen order
	customerIdx := map[int64]int{}
	branchIdx := map[int64]int{}

	for _, app := range apps {
		start := app.CreatedAt.In(m.cfg.Location)
		tat := calendar.ParseTatDays(app.TatDays)

		progress := cal.EvaluateProgress(start, tat, today)
		if progress.Status != calendar.StatusExceed {
			continue
		}

		ci, ok := customerIdx[app.CustomerID]
		if !ok {
			emails := app.CustomerEmails
			if emails == nil {
				emails = []string{}
			}
			report.Customers = append(report.Customers, CustomerReport{
				CustomerID:     app.CustomerID,
				ClientUniqueID: app.CustomerUniqueID,
				CustomerName:   app.CustomerName,
				CustomerEmails: emails,
				Branches:       []BranchReport{},
			})
			ci = len(report.Customers) - 1
			customerIdx[app.CustomerID] = ci
		}
		customer := &report.Customers[ci]

		bi, ok := branchIdx[app.BranchID]
		if !ok {
			customer.Branches = append(customer.Branches, BranchReport{
				BranchID:     app.BranchID,
				BranchName:   app.BranchName,
				Applications: []DelayedApplication{},
			})
			bi = len(customer.Branches) - 1
			branchIdx[app.BranchID] = bi
		}
		branch := &customer.Branches[bi]

		branch.Applications = append(branch.Applications, DelayedApplication{
			ApplicationID:        app.ApplicationID,
			ApplicationName:      app.Name,
			ApplicationCreatedAt: dateutil.FormatDate(start),
			DueDate:              dateutil.FormatDate(cal.DueDate(start, tat)),
			DaysOutOfTat:         progress.ExceededBy,
		})
	}

	m.logger.Debug("Delay report built",
		zap.String("date", report.Date),
		zap.Int("open_applications", len(apps)),
		zap.Int("delayed_applications", report.ApplicationCount()))

	return report, nil
}

// Run builds the report for the slot containing now and delivers it once.
// A slot already delivered, or an empty report, is skipped.
func (m *Manager) Run(ctx context.Context, now time.Time) (*RunResult, error) {
	slot := now.In(m.cfg.Location).Format(slotLayout)
	result := &RunResult{Slot: slot}

	if d, done := m.state.IsDelivered(slot); done {
		m.logger.Info("Slot already notified, skipping",
			zap.String("slot", slot),
			zap.String("delivery_id", d.DeliveryID))
		result.Skipped = true
		result.Reason = "already notified"
		result.DeliveryID = d.DeliveryID
		return result, nil
	}

	report, err := m.BuildReport(ctx, now)
	if err != nil {
		return nil, err
	}

	result.Customers = len(report.Customers)
	result.Applications = report.ApplicationCount()

	if report.IsEmpty() {
		m.logger.Info("No applications out of TAT", zap.String("slot", slot))
		result.Skipped = true
		result.Reason = "no applications out of TAT"
		return result, nil
	}

	id, err := m.notifier.Notify(ctx, m.Message(report))
	if err != nil {
		return nil, fmt.Errorf("failed to send delay notification: %w", err)
	}
	result.DeliveryID = id

	if err := m.state.MarkDelivered(slot, Delivery{DeliveryID: id, Applications: result.Applications}); err != nil {
		// Delivered but not recorded; the next run of this slot may repeat it
		m.logger.Error("Failed to record notification slot", zap.String("slot", slot), zap.Error(err))
	}

	m.logger.Info("TAT delay notification sent",
		zap.String("slot", slot),
		zap.String("delivery_id", id),
		zap.Int("customers", result.Customers),
		zap.Int("applications", result.Applications))

	return result, nil
}

// Message addresses report to the configured recipients
func (m *Manager) Message(report *Report) *Message {
	return &Message{
		Subject: fmt.Sprintf("%s %s", m.cfg.Subject, report.Date),
		To:      append([]Recipient{}, m.cfg.To...),
		CC:      append([]Recipient{}, m.cfg.CC...),
		Report:  report,
	}
}
