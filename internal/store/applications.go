package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Customer is a BGV client organisation
type Customer struct {
	ID             int64    `json:"id"`
	ClientUniqueID string   `json:"client_unique_id"`
	Name           string   `json:"name"`
	Emails         []string `json:"emails"`
	TatDays        string   `json:"tat_days"` // stored as entered; parse with calendar.ParseTatDays
}

// Branch belongs to a customer and owns applications
type Branch struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// NewApplication describes an application to insert
type NewApplication struct {
	ApplicationID string
	CustomerID    int64
	BranchID      int64
	Name          string
	Status        string
	OverallStatus string
	IsHighlight   bool
	CreatedAt     time.Time
}

// Application is a client application joined with its customer, branch
// and tracker row
type Application struct {
	ID                int64
	ApplicationID     string
	Name              string
	CustomerID        int64
	CustomerName      string
	CustomerUniqueID  string
	CustomerEmails    []string
	BranchID          int64
	BranchName        string
	Status            string
	OverallStatus     string
	IsVerify          string
	TatDays           string
	IsHighlight       bool
	IsReportCompleted bool
	ReportCompletedAt *time.Time
	CreatedAt         time.Time
}

// ApplicationFilter narrows a branch listing
type ApplicationFilter struct {
	// Status is one of the dashboard counters, e.g. "pending_application_count"
	Status string
	// Month is a "YYYY-MM" creation month in the store's location
	Month string
}

// statusConditions maps dashboard counters to SQL predicates
var statusConditions = map[string]string{
	"application_count":                  `AND ca.status NOT IN ('stopcheck','hold')`,
	"pending_application_count":          `AND COALESCE(cmt.overall_status, '') <> 'completed' AND ca.status NOT IN ('stopcheck','hold')`,
	"qc_pending_count":                   `AND cmt.overall_status = 'completed' AND cmt.is_verify = 'no'`,
	"completed_application_count":        `AND cmt.overall_status = 'completed' AND cmt.is_verify = 'yes'`,
	"wip_application_count":              `AND cmt.overall_status = 'wip'`,
	"insuff_application_count":           `AND cmt.overall_status = 'insuff'`,
	"stopcheck_application_count":        `AND cmt.overall_status = 'stopcheck'`,
	"not_doable_application_count":       `AND cmt.overall_status = 'not_doable'`,
	"candidate_denied_application_count": `AND cmt.overall_status = 'candidate_denied'`,
}

// IsKnownStatusFilter reports whether name is a supported filter status
func IsKnownStatusFilter(name string) bool {
	_, ok := statusConditions[name]
	return ok
}

const applicationColumns = `
	ca.id, ca.application_id, ca.name,
	c.id, c.name, c.client_unique_id, c.emails,
	b.id, b.name,
	ca.status, COALESCE(cmt.overall_status, ''), COALESCE(cmt.is_verify, 'no'),
	COALESCE(c.tat_days, ''), ca.is_highlight, ca.is_report_completed, ca.report_completed_at,
	ca.created_at`

const applicationJoins = `
	FROM client_applications ca
	JOIN customers c ON c.id = ca.customer_id
	JOIN branches b ON b.id = ca.branch_id
	LEFT JOIN cmt_applications cmt ON cmt.client_application_id = ca.id`

// CreateCustomer creates a new customer
func (s *Store) CreateCustomer(ctx context.Context, customer *Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ClientUniqueID == "" {
		return fmt.Errorf("client unique ID is required")
	}

	emails := customer.Emails
	if emails == nil {
		emails = []string{}
	}
	emailsJSON, _ := json.Marshal(emails)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (client_unique_id, name, emails, tat_days) VALUES (?, ?, ?, ?)
	`, customer.ClientUniqueID, customer.Name, string(emailsJSON), customer.TatDays)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	customer.ID, _ = result.LastInsertId()
	return nil
}

// SetCustomerTat updates the TAT of a customer
func (s *Store) SetCustomerTat(ctx context.Context, customerID int64, tatDays string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `UPDATE customers SET tat_days = ? WHERE id = ?`, tatDays, customerID)
	if err != nil {
		return fmt.Errorf("failed to update customer tat: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
	}
	return nil
}

// CreateBranch creates a new branch
func (s *Store) CreateBranch(ctx context.Context, branch *Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO branches (customer_id, name, email) VALUES (?, ?, ?)
	`, branch.CustomerID, branch.Name, branch.Email)
	if err != nil {
		return fmt.Errorf("failed to create branch: %w", err)
	}

	branch.ID, _ = result.LastInsertId()
	return nil
}

// CreateApplication inserts an application and its tracker row
func (s *Store) CreateApplication(ctx context.Context, app NewApplication) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ApplicationID == "" {
		return 0, fmt.Errorf("application ID is required")
	}
	createdAt := app.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO client_applications (application_id, customer_id, branch_id, name, status, is_highlight, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, app.ApplicationID, app.CustomerID, app.BranchID, app.Name, app.Status, app.IsHighlight,
		createdAt.UTC().Truncate(time.Second))
	if err != nil {
		return 0, fmt.Errorf("failed to create application: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read application id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cmt_applications (client_application_id, overall_status) VALUES (?, ?)
	`, id, app.OverallStatus); err != nil {
		return 0, fmt.Errorf("failed to create tracker row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit application: %w", err)
	}

	return id, nil
}

// SetOverallStatus updates the tracker status of an application
func (s *Store) SetOverallStatus(ctx context.Context, id int64, overallStatus, isVerify string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if isVerify == "" {
		isVerify = "no"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cmt_applications (client_application_id, overall_status, is_verify) VALUES (?, ?, ?)
		ON CONFLICT(client_application_id) DO UPDATE SET overall_status = excluded.overall_status, is_verify = excluded.is_verify
	`, id, overallStatus, isVerify)
	if err != nil {
		return fmt.Errorf("failed to set overall status: %w", err)
	}

	return nil
}

// MarkReportCompleted flags the report of an application as completed
func (s *Store) MarkReportCompleted(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE client_applications SET is_report_completed = 1, report_completed_at = ? WHERE id = ?
	`, at.UTC().Truncate(time.Second), id)
	if err != nil {
		return fmt.Errorf("failed to mark report completed: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetDataQC sets whether the application data has passed QC. Only QC'd
// applications show up in listings.
func (s *Store) SetDataQC(ctx context.Context, id int64, qc bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `UPDATE client_applications SET is_data_qc = ? WHERE id = ?`, qc, id)
	if err != nil {
		return fmt.Errorf("failed to set data qc: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetApplication returns one application by row ID
func (s *Store) GetApplication(ctx context.Context, id int64) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+applicationJoins+` WHERE ca.id = ?`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// ListBranchApplications lists the QC'd, non-deleted applications of a
// branch, newest first
func (s *Store) ListBranchApplications(ctx context.Context, branchID int64, filter ApplicationFilter) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + applicationColumns + applicationJoins + `
		WHERE ca.branch_id = ?
		AND ca.is_data_qc = 1
		AND ca.is_deleted != 1
		AND c.is_deleted != 1
		` + statusConditions[filter.Status]
	args := []any{branchID}

	if filter.Month != "" {
		from, to, err := s.monthRange(filter.Month)
		if err != nil {
			return nil, err
		}
		query += ` AND ca.created_at >= ? AND ca.created_at < ?`
		args = append(args, from, to)
	}

	query += ` ORDER BY ca.created_at DESC, ca.is_highlight DESC, ca.id DESC`

	return s.queryApplications(ctx, query, args...)
}

// ListOpenApplications lists QC'd applications still being worked on
// across all customers: tracker status not completed and application status
// not stopcheck or hold. Ordered by customer, branch and creation time.
func (s *Store) ListOpenApplications(ctx context.Context) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + applicationColumns + applicationJoins + `
		WHERE ca.is_data_qc = 1
		AND ca.is_deleted != 1
		AND c.is_deleted != 1
		` + statusConditions["pending_application_count"] + `
		ORDER BY c.id, b.id, ca.created_at, ca.id`

	return s.queryApplications(ctx, query)
}

func (s *Store) queryApplications(ctx context.Context, query string, args ...any) ([]*Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []*Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*Application, error) {
	var app Application
	var emailsJSON sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&app.ID, &app.ApplicationID, &app.Name,
		&app.CustomerID, &app.CustomerName, &app.CustomerUniqueID, &emailsJSON,
		&app.BranchID, &app.BranchName,
		&app.Status, &app.OverallStatus, &app.IsVerify,
		&app.TatDays, &app.IsHighlight, &app.IsReportCompleted, &completedAt,
		&app.CreatedAt)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		app.ReportCompletedAt = &t
	}
	if emailsJSON.Valid {
		// Malformed lists are treated as empty
		if json.Unmarshal([]byte(emailsJSON.String), &app.CustomerEmails) != nil {
			app.CustomerEmails = nil
		}
	}

	return &app, nil
}

// monthRange converts "YYYY-MM" into a half-open UTC interval
func (s *Store) monthRange(month string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01", month, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month filter %q: %w", month, err)
	}
	return start.UTC(), start.AddDate(0, 1, 0).UTC(), nil
}
