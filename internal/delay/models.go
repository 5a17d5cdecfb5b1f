package delay

import "time"

// Recipient is a named mailbox
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Report lists applications past their TAT, grouped customer -> branch
type Report struct {
	Date        string           `json:"date"`
	GeneratedAt time.Time        `json:"generated_at"`
	Customers   []CustomerReport `json:"customers"`
}

// CustomerReport groups delayed applications of one customer
type CustomerReport struct {
	CustomerID     int64          `json:"customer_id"`
	ClientUniqueID string         `json:"client_unique_id"`
	CustomerName   string         `json:"customer_name"`
	CustomerEmails []string       `json:"customer_emails"`
	Branches       []BranchReport `json:"branches"`
}

// BranchReport groups delayed applications of one branch
type BranchReport struct {
	BranchID     int64                `json:"branch_id"`
	BranchName   string               `json:"branch_name"`
	Applications []DelayedApplication `json:"applications"`
}

// DelayedApplication is an application that exceeded its TAT
type DelayedApplication struct {
	ApplicationID        string `json:"application_id"`
	ApplicationName      string `json:"application_name"`
	ApplicationCreatedAt string `json:"application_created_at"`
	DueDate              string `json:"due_date"`
	DaysOutOfTat         int    `json:"days_out_of_tat"`
}

// ApplicationCount returns the number of delayed applications in the report
func (r *Report) ApplicationCount() int {
	n := 0
	for _, c := range r.Customers {
		for _, b := range c.Branches {
			n += len(b.Applications)
		}
	}
	return n
}

// IsEmpty reports whether no application is out of TAT
func (r *Report) IsEmpty() bool {
	return r.ApplicationCount() == 0
}

// RunResult describes one notification run
type RunResult struct {
	Slot         string `json:"slot"`
	Skipped      bool   `json:"skipped"`
	Reason       string `json:"reason,omitempty"`
	Customers    int    `json:"customers"`
	Applications int    `json:"applications"`
	DeliveryID   string `json:"delivery_id,omitempty"`
}
