package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"botstudio/internal/models"
)

// Activities tracked in event_logs: model training and model testing
// share the lifecycle but are mutually independent per bot.
const (
	ActivityTraining = "training"
	ActivityTesting  = "testing"
)

// EventLog is one training or testing attempt for a bot.
type EventLog struct {
	ID             string             `db:"id" json:"-"`
	Bot            string             `db:"bot" json:"-"`
	User           string             `db:"created_by" json:"user"`
	Activity       string             `db:"activity" json:"activity"`
	EventStatus    models.EventStatus `db:"event_status" json:"event_status"`
	Exception      string             `db:"exception" json:"exception"`
	StartTimestamp time.Time          `db:"start_timestamp" json:"start_timestamp"`
	EndTimestamp   sql.NullTime       `db:"end_timestamp" json:"-"`
	LastUpdate     time.Time          `db:"last_update_timestamp" json:"last_update_timestamp"`
}

type EventLogRepository interface {
	Create(ctx context.Context, log *EventLog) error
	Update(ctx context.Context, log *EventLog) error
	Latest(ctx context.Context, bot, activity string) (*EventLog, error)
	List(ctx context.Context, bot, activity string, limit, offset int) ([]EventLog, error)
	CountSince(ctx context.Context, bot, activity string, since time.Time) (int, error)
}

type eventLogRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewEventLogRepository(db *sqlx.DB, logger *zap.Logger) EventLogRepository {
	return &eventLogRepository{db: db, logger: logger}
}

func (r *eventLogRepository) Create(ctx context.Context, log *EventLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	query := `INSERT INTO event_logs (id, bot, created_by, activity, event_status, exception, start_timestamp, last_update_timestamp)
	          VALUES ($1, $2, $3, $4, $5, $6, now(), now()) RETURNING start_timestamp, last_update_timestamp`
	return r.db.QueryRowxContext(ctx, query, log.ID, log.Bot, log.User, log.Activity, log.EventStatus, log.Exception).
		Scan(&log.StartTimestamp, &log.LastUpdate)
}

func (r *eventLogRepository) Update(ctx context.Context, log *EventLog) error {
	query := `UPDATE event_logs SET event_status = $2, exception = $3, end_timestamp = $4, last_update_timestamp = now()
	          WHERE id = $1 RETURNING last_update_timestamp`
	return r.db.QueryRowxContext(ctx, query, log.ID, log.EventStatus, log.Exception, log.EndTimestamp).Scan(&log.LastUpdate)
}

func (r *eventLogRepository) Latest(ctx context.Context, bot, activity string) (*EventLog, error) {
	var log EventLog
	query := `SELECT id, bot, created_by, activity, event_status, exception, start_timestamp, end_timestamp, last_update_timestamp
	          FROM event_logs WHERE bot = $1 AND activity = $2 ORDER BY start_timestamp DESC LIMIT 1`
	err := r.db.GetContext(ctx, &log, query, bot, activity)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *eventLogRepository) List(ctx context.Context, bot, activity string, limit, offset int) ([]EventLog, error) {
	var logs []EventLog
	query := `SELECT id, bot, created_by, activity, event_status, exception, start_timestamp, end_timestamp, last_update_timestamp
	          FROM event_logs WHERE bot = $1 AND activity = $2 ORDER BY start_timestamp DESC LIMIT $3 OFFSET $4`
	if err := r.db.SelectContext(ctx, &logs, query, bot, activity, limit, offset); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *eventLogRepository) CountSince(ctx context.Context, bot, activity string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM event_logs WHERE bot = $1 AND activity = $2 AND start_timestamp >= $3`
	if err := r.db.GetContext(ctx, &count, query, bot, activity, since); err != nil {
		return 0, err
	}
	return count, nil
}
