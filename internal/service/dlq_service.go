package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/logger"
)

const (
	dlqDefaultPageSize = 20
	dlqMaxPageSize     = 100
)

// DLQReport pairs the queue statistics with the derived health verdict.
type DLQReport struct {
	Stats  *domain.DLQStats       `json:"stats"`
	Health domain.DLQHealthStatus `json:"health"`
}

// DLQService is the operator facade over the dead letter queue: bounded
// listing, inspection, requeueing and cleanup. Every mutation is logged;
// these are manual interventions on mail that already failed its retries.
type DLQService struct {
	deadLetters domain.DeadLetterRepository
	sendQueue   domain.SendQueueRepository
	logger      logger.Logger
}

func NewDLQService(deadLetters domain.DeadLetterRepository, sendQueue domain.SendQueueRepository, log logger.Logger) *DLQService {
	return &DLQService{
		deadLetters: deadLetters,
		sendQueue:   sendQueue,
		logger:      log,
	}
}

// List returns a page of entries, newest first, with the total count. The
// page size is clamped to keep responses bounded.
func (s *DLQService) List(ctx context.Context, limit, offset int) ([]*domain.DeadLetterEntry, int64, error) {
	if limit <= 0 {
		limit = dlqDefaultPageSize
	}
	if limit > dlqMaxPageSize {
		limit = dlqMaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.deadLetters.List(ctx, limit, offset)
}

// Get retrieves one entry for inspection.
func (s *DLQService) Get(ctx context.Context, id string) (*domain.DeadLetterEntry, error) {
	return s.deadLetters.GetByID(ctx, id)
}

// Retry moves the entry back into the send queue with a fresh attempt
// budget.
func (s *DLQService) Retry(ctx context.Context, id string) error {
	if err := s.deadLetters.Requeue(ctx, id); err != nil {
		return fmt.Errorf("failed to requeue dead letter: %w", err)
	}
	s.logger.WithFields(map[string]interface{}{
		"entry_id": id,
	}).Info("Dead letter requeued")
	return nil
}

// Remove deletes the entry permanently.
func (s *DLQService) Remove(ctx context.Context, id string) error {
	if err := s.deadLetters.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete dead letter: %w", err)
	}
	s.logger.WithFields(map[string]interface{}{
		"entry_id": id,
	}).Info("Dead letter removed")
	return nil
}

// RetryAll requeues every entry and reports how many moved.
func (s *DLQService) RetryAll(ctx context.Context) (int64, error) {
	moved, err := s.deadLetters.RequeueAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue dead letters: %w", err)
	}
	s.logger.WithFields(map[string]interface{}{
		"moved": moved,
	}).Info("Dead letters requeued in bulk")
	return moved, nil
}

// Clean removes entries that failed more than the retention period ago.
func (s *DLQService) Clean(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 1 {
		return 0, fmt.Errorf("retention must be at least one day, got %d", olderThanDays)
	}
	removed, err := s.deadLetters.DeleteOlderThan(ctx, time.Duration(olderThanDays)*24*time.Hour)
	if err != nil {
		return 0, fmt.Errorf("failed to clean dead letters: %w", err)
	}
	s.logger.WithFields(map[string]interface{}{
		"older_than_days": olderThanDays,
		"removed":         removed,
	}).Info("Dead letters cleaned")
	return removed, nil
}

// Stats summarizes the queue and derives the health verdict.
func (s *DLQService) Stats(ctx context.Context) (*DLQReport, error) {
	stats, err := s.deadLetters.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letter stats: %w", err)
	}
	return &DLQReport{
		Stats:  stats,
		Health: stats.Health(),
	}, nil
}

// QueueStats exposes the live send queue counters alongside the dead letter
// view.
func (s *DLQService) QueueStats(ctx context.Context) (*domain.SendQueueStats, error) {
	stats, err := s.sendQueue.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read send queue stats: %w", err)
	}
	return stats, nil
}
