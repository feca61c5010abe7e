// Package tracker records the lifecycle of asynchronous pipeline runs:
// data imports, model training/testing and training-data generation.
// Callers never get pipeline results synchronously; they poll the
// records written here.
package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"botstudio/internal/models"
	"botstudio/internal/repository"
)

// Domain errors surfaced before any state transition happens.
var (
	ErrAlreadyInProgress = models.NewAppError("Event already in progress! Check logs.")
	ErrDailyLimit        = models.NewAppError("Daily limit exceeded.")
)

// ImportTracker drives the import state machine. At most one
// non-terminal record may exist per bot; the check-then-act window
// between reading the latest record and inserting a new one is accepted
// (worst case two imports proceed, single-row updates stay atomic).
type ImportTracker struct {
	logs   repository.ImportLogRepository
	logger *zap.Logger

	// Now is swappable for tests.
	Now func() time.Time
}

func NewImportTracker(logs repository.ImportLogRepository, logger *zap.Logger) *ImportTracker {
	return &ImportTracker{logs: logs, logger: logger, Now: time.Now}
}

// IsInProgress reports whether the latest import record for the bot is
// still non-terminal.
func (t *ImportTracker) IsInProgress(ctx context.Context, bot string) (bool, error) {
	latest, err := t.logs.Latest(ctx, bot)
	if err != nil {
		return false, err
	}
	return latest != nil && !latest.EventStatus.Terminal(), nil
}

// CheckLimits rejects a new attempt while one is in flight or once the
// daily ceiling is reached. Runs before any state transition.
func (t *ImportTracker) CheckLimits(ctx context.Context, bot string, limitPerDay int) error {
	inProgress, err := t.IsInProgress(ctx, bot)
	if err != nil {
		return err
	}
	if inProgress {
		return ErrAlreadyInProgress
	}
	if limitPerDay > 0 {
		count, err := t.logs.CountSince(ctx, bot, t.startOfDay())
		if err != nil {
			return err
		}
		if count >= limitPerDay {
			return ErrDailyLimit
		}
	}
	return nil
}

// SetStatus transitions the bot's in-flight record to status, creating a
// new record when nothing is in flight. mutate, when non-nil, edits the
// record before it is written. The last-update timestamp is always
// stamped; the end timestamp only on a terminal transition.
func (t *ImportTracker) SetStatus(ctx context.Context, bot, user string, status models.EventStatus, mutate func(*models.ImportLog)) (*models.ImportLog, error) {
	latest, err := t.logs.Latest(ctx, bot)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.EventStatus.Terminal() {
		record := &models.ImportLog{Bot: bot, User: user, EventStatus: status}
		if mutate != nil {
			mutate(record)
		}
		if status.Terminal() {
			now := t.Now()
			record.EndTimestamp = &now
		}
		if err := t.logs.Create(ctx, record); err != nil {
			return nil, err
		}
		return record, nil
	}

	latest.EventStatus = status
	if mutate != nil {
		mutate(latest)
	}
	if status.Terminal() && latest.EndTimestamp == nil {
		now := t.Now()
		latest.EndTimestamp = &now
	}
	if err := t.logs.Update(ctx, latest); err != nil {
		return nil, err
	}
	return latest, nil
}

// Fail finalizes the in-flight record with the exception message. The
// error is recorded, never propagated to the API caller.
func (t *ImportTracker) Fail(ctx context.Context, bot, user string, exception string) {
	_, err := t.SetStatus(ctx, bot, user, models.EventFail, func(log *models.ImportLog) {
		log.Status = models.StatusFailure
		log.Exception = exception
	})
	if err != nil {
		t.logger.Error("Failed to record import failure",
			zap.String("bot", bot), zap.String("exception", exception), zap.Error(err))
	}
}

// FetchLatest returns the newest record for the bot, nil when none.
func (t *ImportTracker) FetchLatest(ctx context.Context, bot string) (*models.ImportLog, error) {
	return t.logs.Latest(ctx, bot)
}

// ListLogs returns the bot's import history, newest first.
func (t *ImportTracker) ListLogs(ctx context.Context, bot string, limit, offset int) ([]models.ImportLog, error) {
	return t.logs.List(ctx, bot, limit, offset)
}

func (t *ImportTracker) startOfDay() time.Time {
	now := t.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
