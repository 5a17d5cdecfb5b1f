package calendar

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CompositeSource implements Source with fallback strategy
// Primary: database configuration
// Fallback: FileSource (local file)
//
// Holidays and Weekends fall back independently; Load goes through
// Snapshot and falls back as a unit.
type CompositeSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(primary, fallback Source, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Holidays returns holidays from the primary source, or the fallback when it fails
func (cs *CompositeSource) Holidays(ctx context.Context) ([]Holiday, error) {
	holidays, err := cs.primary.Holidays(ctx)
	if err == nil {
		return holidays, nil
	}

	cs.logger.Warn("Primary holiday source failed, falling back to file",
		zap.Error(err))

	return cs.fallback.Holidays(ctx)
}

// Weekends returns weekends from the primary source, or the fallback when it fails
func (cs *CompositeSource) Weekends(ctx context.Context) ([]string, error) {
	weekends, err := cs.primary.Weekends(ctx)
	if err == nil {
		return weekends, nil
	}

	cs.logger.Warn("Primary weekend source failed, falling back to file",
		zap.Error(err))

	return cs.fallback.Weekends(ctx)
}

// Snapshot reads holidays and weekends from the primary source. If either
// read fails both are taken from the fallback, so a calendar never mixes
// the two sources.
func (cs *CompositeSource) Snapshot(ctx context.Context) ([]Holiday, []string, error) {
	holidays, weekends, err := readSource(ctx, cs.primary)
	if err == nil {
		return holidays, weekends, nil
	}

	cs.logger.Warn("Primary calendar source failed, falling back to file",
		zap.Error(err))

	return readSource(ctx, cs.fallback)
}

// LoadFallback loads the fallback source (if FileSource)
func (cs *CompositeSource) LoadFallback() error {
	if fs, ok := cs.fallback.(*FileSource); ok {
		if err := fs.Load(); err != nil {
			return fmt.Errorf("failed to load fallback calendar: %w", err)
		}
		cs.logger.Info("Fallback calendar loaded successfully")
	}
	return nil
}
