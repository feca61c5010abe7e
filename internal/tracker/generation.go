package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"botstudio/internal/models"
	"botstudio/internal/repository"
)

// GenerationTracker drives the document-to-training-data state machine.
// The out-of-process generator reports transitions back through the
// status-update endpoint, which lands here.
type GenerationTracker struct {
	logs   repository.GenerationLogRepository
	logger *zap.Logger

	Now func() time.Time
}

func NewGenerationTracker(logs repository.GenerationLogRepository, logger *zap.Logger) *GenerationTracker {
	return &GenerationTracker{logs: logs, logger: logger, Now: time.Now}
}

func (t *GenerationTracker) IsInProgress(ctx context.Context, bot string) (bool, error) {
	latest, err := t.logs.Latest(ctx, bot)
	if err != nil {
		return false, err
	}
	return latest != nil && !latest.Status.Terminal(), nil
}

func (t *GenerationTracker) CheckLimits(ctx context.Context, bot string, limitPerDay int) error {
	inProgress, err := t.IsInProgress(ctx, bot)
	if err != nil {
		return err
	}
	if inProgress {
		return ErrAlreadyInProgress
	}
	if limitPerDay > 0 {
		now := t.Now().UTC()
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		count, err := t.logs.CountSince(ctx, bot, start)
		if err != nil {
			return err
		}
		if count >= limitPerDay {
			return ErrDailyLimit
		}
	}
	return nil
}

// SetStatus transitions the bot's in-flight generation record; response
// and exception are recorded as supplied by the worker.
func (t *GenerationTracker) SetStatus(ctx context.Context, bot, user string, status models.GenerationStatus,
	response []models.GeneratedIntent, exception string) (*models.GenerationLog, error) {
	latest, err := t.logs.Latest(ctx, bot)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.Status.Terminal() {
		record := &models.GenerationLog{Bot: bot, User: user, Status: status, Response: response, Exception: exception}
		if status.Terminal() {
			now := t.Now()
			record.EndTimestamp = &now
		}
		if err := t.logs.Create(ctx, record); err != nil {
			return nil, err
		}
		return record, nil
	}
	latest.Status = status
	if response != nil {
		latest.Response = response
	}
	latest.Exception = exception
	if status.Terminal() && latest.EndTimestamp == nil {
		now := t.Now()
		latest.EndTimestamp = &now
	}
	if err := t.logs.Update(ctx, latest); err != nil {
		return nil, err
	}
	return latest, nil
}

// FetchLatest returns the newest generation record for the bot, nil
// when none. The worker uses it to retrieve the document it must parse.
func (t *GenerationTracker) FetchLatest(ctx context.Context, bot string) (*models.GenerationLog, error) {
	return t.logs.Latest(ctx, bot)
}
