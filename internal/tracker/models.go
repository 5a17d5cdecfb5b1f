package tracker

import (
	"time"

	"github.com/username/bgv-admin/internal/calendar"
)

// ApplicationView is one row of the client master tracker listing
type ApplicationView struct {
	ID                int64      `json:"id"`
	ApplicationID     string     `json:"application_id"`
	Name              string     `json:"name"`
	CustomerID        int64      `json:"customer_id"`
	CustomerName      string     `json:"customer_name"`
	BranchID          int64      `json:"branch_id"`
	BranchName        string     `json:"branch_name"`
	Status            string     `json:"status"`
	OverallStatus     string     `json:"overall_status"`
	IsVerify          string     `json:"is_verify"`
	IsHighlight       bool       `json:"is_highlight"`
	IsReportCompleted bool       `json:"is_report_completed"`
	ReportCompletedAt *time.Time `json:"report_completed_at"`
	CreatedAt         time.Time  `json:"created_at"`

	// NewDeadlineDate is the working-day due date, "YYYY-MM-DD"
	NewDeadlineDate string `json:"new_deadline_date"`
	// TatDays is the TAT expressed in calendar days
	TatDays int `json:"tat_days"`
	// ReportCompletedStatus is only set once the report is completed
	ReportCompletedStatus *calendar.Progress `json:"report_completed_status"`
}

// Summary counts the open applications of a branch by TAT standing
type Summary struct {
	BranchID int64 `json:"branch_id"`
	Early    int   `json:"early"`
	OnTime   int   `json:"on_time"`
	Exceed   int   `json:"exceed"`
}

// Total returns the number of open applications counted
func (s Summary) Total() int {
	return s.Early + s.OnTime + s.Exceed
}
