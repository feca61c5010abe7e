package tracker

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"botstudio/internal/models"
	"botstudio/internal/repository"
)

// ModelTracker drives the training and testing state machines, one
// activity lane per bot, on top of the shared event log store.
type ModelTracker struct {
	logs     repository.EventLogRepository
	activity string
	logger   *zap.Logger

	Now func() time.Time
}

func NewModelTracker(logs repository.EventLogRepository, activity string, logger *zap.Logger) *ModelTracker {
	return &ModelTracker{logs: logs, activity: activity, logger: logger, Now: time.Now}
}

func (t *ModelTracker) IsInProgress(ctx context.Context, bot string) (bool, error) {
	latest, err := t.logs.Latest(ctx, bot, t.activity)
	if err != nil {
		return false, err
	}
	return latest != nil && !latest.EventStatus.Terminal(), nil
}

func (t *ModelTracker) CheckLimits(ctx context.Context, bot string, limitPerDay int) error {
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
		count, err := t.logs.CountSince(ctx, bot, t.activity, start)
		if err != nil {
			return err
		}
		if count >= limitPerDay {
			return ErrDailyLimit
		}
	}
	return nil
}

func (t *ModelTracker) SetStatus(ctx context.Context, bot, user string, status models.EventStatus, exception string) (*repository.EventLog, error) {
	latest, err := t.logs.Latest(ctx, bot, t.activity)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.EventStatus.Terminal() {
		record := &repository.EventLog{Bot: bot, User: user, Activity: t.activity, EventStatus: status, Exception: exception}
		if status.Terminal() {
			record.EndTimestamp = sql.NullTime{Time: t.Now(), Valid: true}
		}
		if err := t.logs.Create(ctx, record); err != nil {
			return nil, err
		}
		return record, nil
	}
	latest.EventStatus = status
	latest.Exception = exception
	if status.Terminal() && !latest.EndTimestamp.Valid {
		latest.EndTimestamp = sql.NullTime{Time: t.Now(), Valid: true}
	}
	if err := t.logs.Update(ctx, latest); err != nil {
		return nil, err
	}
	return latest, nil
}

func (t *ModelTracker) Fail(ctx context.Context, bot, user, exception string) {
	if _, err := t.SetStatus(ctx, bot, user, models.EventFail, exception); err != nil {
		t.logger.Error("Failed to record event failure",
			zap.String("bot", bot), zap.String("activity", t.activity), zap.Error(err))
	}
}
