package sync

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrRunNotFound is returned when a run id is not in the history.
var ErrRunNotFound = errors.New("sync run not found")

// Recorder persists the history of sync passes.
type Recorder interface {
	// Record stores a finished pass with its flight logs.
	Record(ctx context.Context, run *SyncRun) error
	// Recent returns the latest passes, newest first, without flight logs.
	Recent(ctx context.Context, limit int) ([]SyncRun, error)
	// Flights returns the flight logs of one pass in the order they were
	// written, or ErrRunNotFound.
	Flights(ctx context.Context, runID uint) ([]SyncFlightLog, error)
}

// GormRecorder keeps the history in the database.
type GormRecorder struct {
	db *gorm.DB
}

// NewGormRecorder creates a recorder on db.
func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

// Migrate creates or updates the history tables.
func (r *GormRecorder) Migrate() error {
	if err := r.db.AutoMigrate(&SyncRun{}, &SyncFlightLog{}); err != nil {
		return fmt.Errorf("failed to migrate run history: %w", err)
	}
	return nil
}

// Record inserts the run and its flight logs in one transaction.
func (r *GormRecorder) Record(ctx context.Context, run *SyncRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (r *GormRecorder) Recent(ctx context.Context, limit int) ([]SyncRun, error) {
	var runs []SyncRun
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

// Flights returns the flight logs of runID.
func (r *GormRecorder) Flights(ctx context.Context, runID uint) ([]SyncFlightLog, error) {
	db := r.db.WithContext(ctx)

	var n int64
	if err := db.Model(&SyncRun{}).Where("id = ?", runID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("failed to look up sync run: %w", err)
	}
	if n == 0 {
		return nil, ErrRunNotFound
	}

	var logs []SyncFlightLog
	if err := db.Where("sync_run_id = ?", runID).Order("id ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list flight logs: %w", err)
	}
	return logs, nil
}

// NopRecorder drops every run. It is used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, run *SyncRun) error { return nil }

func (NopRecorder) Recent(ctx context.Context, limit int) ([]SyncRun, error) { return nil, nil }

func (NopRecorder) Flights(ctx context.Context, runID uint) ([]SyncFlightLog, error) {
	return nil, ErrRunNotFound
}
