package calendar

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/username/bgv-admin/pkg/dateutil"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fileCalendar is the on-disk layout of a FileSource:
//
//	weekends: [saturday, sunday]
//	holidays:
//	  - date: 2025-01-26
//	    title: Republic Day
type fileCalendar struct {
	Weekends []string      `yaml:"weekends"`
	Holidays []fileHoliday `yaml:"holidays"`
}

type fileHoliday struct {
	Date  string `yaml:"date"`
	Title string `yaml:"title"`
}

// FileSource implements Source using a local YAML file
type FileSource struct {
	filePath string
	logger   *zap.Logger

	mu       sync.RWMutex
	loaded   bool
	weekends []string
	holidays []Holiday
}

// NewFileSource creates a new FileSource instance
func NewFileSource(filePath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		logger:   logger,
	}
}

// Load loads calendar data from file
func (fs *FileSource) Load() error {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}

	var raw fileCalendar
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse calendar file: %w", err)
	}

	holidays := make([]Holiday, 0, len(raw.Holidays))
	for i, h := range raw.Holidays {
		date, err := time.Parse(dateutil.DateLayout, h.Date)
		if err != nil {
			fs.logger.Warn("Failed to parse date", zap.String("date", h.Date), zap.Error(err))
			continue
		}
		holidays = append(holidays, Holiday{
			ID:    int64(i + 1),
			Title: h.Title,
			Date:  date,
		})
	}

	fs.mu.Lock()
	fs.weekends = raw.Weekends
	fs.holidays = holidays
	fs.loaded = true
	fs.mu.Unlock()

	fs.logger.Info("Calendar file loaded",
		zap.String("file", fs.filePath),
		zap.Int("holidays", len(holidays)),
		zap.Strings("weekends", raw.Weekends))

	return nil
}

// Holidays returns the holidays read from the file
func (fs *FileSource) Holidays(ctx context.Context) ([]Holiday, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if !fs.loaded {
		return nil, fmt.Errorf("calendar file not loaded: %s", fs.filePath)
	}
	out := make([]Holiday, len(fs.holidays))
	copy(out, fs.holidays)
	return out, nil
}

// Weekends returns the weekend names read from the file
func (fs *FileSource) Weekends(ctx context.Context) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if !fs.loaded {
		return nil, fmt.Errorf("calendar file not loaded: %s", fs.filePath)
	}
	out := make([]string, len(fs.weekends))
	copy(out, fs.weekends)
	return out, nil
}
