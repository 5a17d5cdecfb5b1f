package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/username/bgv-admin/internal/calendar"
	"github.com/username/bgv-admin/pkg/dateutil"
)

// ErrNotFound is returned when a referenced row does not exist
var ErrNotFound = errors.New("not found")

// Overall statuses tracked on cmt_applications
const (
	OverallCompleted       = "completed"
	OverallWIP             = "wip"
	OverallInsuff          = "insuff"
	OverallStopCheck       = "stopcheck"
	OverallNotDoable       = "not_doable"
	OverallCandidateDenied = "candidate_denied"
)

// Config holds configuration for SQLite store
type Config struct {
	Path string
	// Location is the zone month filters are evaluated in
	Location *time.Location
}

// Store persists the calendar configuration and the application rows the
// tracker and delay report read
type Store struct {
	db  *sql.DB
	loc *time.Location
	mu  sync.RWMutex
}

var _ calendar.Source = (*Store)(nil)

// Open creates a new SQLite-based store
func Open(cfg Config) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	s := &Store{db: db, loc: loc}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates the necessary tables
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS holidays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL DEFAULT '',
		date DATE NOT NULL UNIQUE
	);

	-- Single active row holds the weekend configuration as a JSON array
	CREATE TABLE IF NOT EXISTS company_info (
		id INTEGER PRIMARY KEY,
		weekends TEXT NOT NULL DEFAULT '[]',
		status INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_unique_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		emails TEXT NOT NULL DEFAULT '[]',
		tat_days TEXT,
		is_deleted INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS branches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS client_applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		application_id TEXT NOT NULL UNIQUE,
		customer_id INTEGER NOT NULL,
		branch_id INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		is_highlight INTEGER NOT NULL DEFAULT 0,
		is_data_qc INTEGER NOT NULL DEFAULT 1,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		is_report_completed INTEGER NOT NULL DEFAULT 0,
		report_completed_at DATETIME,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE,
		FOREIGN KEY (branch_id) REFERENCES branches(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS cmt_applications (
		client_application_id INTEGER PRIMARY KEY,
		overall_status TEXT NOT NULL DEFAULT '',
		is_verify TEXT NOT NULL DEFAULT 'no',
		FOREIGN KEY (client_application_id) REFERENCES client_applications(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_applications_branch ON client_applications(branch_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_applications_customer ON client_applications(customer_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Holidays returns all configured holidays ordered by date
func (s *Store) Holidays(ctx context.Context) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, date FROM holidays ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	holidays := []calendar.Holiday{}
	for rows.Next() {
		var h calendar.Holiday
		if err := rows.Scan(&h.ID, &h.Title, &h.Date); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}

// AddHoliday stores a holiday; an existing holiday on the same date is retitled
func (s *Store) AddHoliday(ctx context.Context, title string, date time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := dateutil.FormatDate(date)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (title, date) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET title = excluded.title
	`, title, day)
	if err != nil {
		return 0, fmt.Errorf("failed to add holiday: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM holidays WHERE date = ?`, day).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read holiday id: %w", err)
	}

	return id, nil
}

// DeleteHoliday removes a holiday by ID
func (s *Store) DeleteHoliday(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("holiday %d: %w", id, ErrNotFound)
	}

	return nil
}

// Weekends returns the weekend names of the active company_info row.
// No active row means no weekends.
func (s *Store) Weekends(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT weekends FROM company_info WHERE status = 1 ORDER BY id LIMIT 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get weekends: %w", err)
	}

	weekends := []string{}
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return weekends, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &weekends); err != nil {
		return nil, fmt.Errorf("failed to parse weekends: %w", err)
	}

	for i, name := range weekends {
		weekends[i] = strings.ToLower(strings.TrimSpace(name))
	}

	return weekends, nil
}

// SetWeekends replaces the weekend configuration
func (s *Store) SetWeekends(ctx context.Context, weekends []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := make([]string, 0, len(weekends))
	for _, name := range weekends {
		wd, ok := dateutil.ParseWeekday(name)
		if !ok {
			return fmt.Errorf("unknown weekday %q", name)
		}
		normalized = append(normalized, strings.ToLower(wd.String()))
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("failed to marshal weekends: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO company_info (id, weekends, status) VALUES (1, ?, 1)
		ON CONFLICT(id) DO UPDATE SET weekends = excluded.weekends, status = 1
	`, string(data))
	if err != nil {
		return fmt.Errorf("failed to set weekends: %w", err)
	}

	return nil
}
