package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"botstudio/internal/models"
)

// ImportLogRepository persists the import state machine. Records are
// append-only per bot: a new attempt always inserts, terminal records
// are never touched again.
type ImportLogRepository interface {
	Create(ctx context.Context, log *models.ImportLog) error
	Update(ctx context.Context, log *models.ImportLog) error
	Latest(ctx context.Context, bot string) (*models.ImportLog, error)
	List(ctx context.Context, bot string, limit, offset int) ([]models.ImportLog, error)
	CountSince(ctx context.Context, bot string, since time.Time) (int, error)
}

type importLogRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewImportLogRepository(db *sqlx.DB, logger *zap.Logger) ImportLogRepository {
	return &importLogRepository{db: db, logger: logger}
}

type importLogRow struct {
	ID             string         `db:"id"`
	Bot            string         `db:"bot"`
	User           string         `db:"created_by"`
	EventStatus    string         `db:"event_status"`
	Status         string         `db:"status"`
	IsDataUploaded bool           `db:"is_data_uploaded"`
	FilesReceived  pq.StringArray `db:"files_received"`
	Exception      string         `db:"exception"`
	Summary        []byte         `db:"summary"`
	StartTimestamp time.Time      `db:"start_timestamp"`
	EndTimestamp   sql.NullTime   `db:"end_timestamp"`
	LastUpdate     time.Time      `db:"last_update_timestamp"`
}

func (row *importLogRow) toModel() (*models.ImportLog, error) {
	log := &models.ImportLog{
		ID:             row.ID,
		Bot:            row.Bot,
		User:           row.User,
		EventStatus:    models.EventStatus(row.EventStatus),
		Status:         row.Status,
		IsDataUploaded: row.IsDataUploaded,
		FilesReceived:  row.FilesReceived,
		Exception:      row.Exception,
		StartTimestamp: row.StartTimestamp,
		LastUpdate:     row.LastUpdate,
	}
	if row.EndTimestamp.Valid {
		end := row.EndTimestamp.Time
		log.EndTimestamp = &end
	}
	if len(row.Summary) > 0 {
		if err := json.Unmarshal(row.Summary, &log.Summary); err != nil {
			return nil, err
		}
	}
	return log, nil
}

func (r *importLogRepository) Create(ctx context.Context, log *models.ImportLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	summary, err := json.Marshal(log.Summary)
	if err != nil {
		return err
	}
	query := `INSERT INTO import_logs
	          (id, bot, created_by, event_status, status, is_data_uploaded, files_received, exception, summary, start_timestamp, last_update_timestamp)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	          RETURNING start_timestamp, last_update_timestamp`
	return r.db.QueryRowxContext(ctx, query, log.ID, log.Bot, log.User, log.EventStatus, log.Status,
		log.IsDataUploaded, pq.Array(log.FilesReceived), log.Exception, summary).
		Scan(&log.StartTimestamp, &log.LastUpdate)
}

func (r *importLogRepository) Update(ctx context.Context, log *models.ImportLog) error {
	summary, err := json.Marshal(log.Summary)
	if err != nil {
		return err
	}
	query := `UPDATE import_logs SET event_status = $2, status = $3, is_data_uploaded = $4,
	          files_received = $5, exception = $6, summary = $7, end_timestamp = $8,
	          last_update_timestamp = now()
	          WHERE id = $1 RETURNING last_update_timestamp`
	var end sql.NullTime
	if log.EndTimestamp != nil {
		end = sql.NullTime{Time: *log.EndTimestamp, Valid: true}
	}
	return r.db.QueryRowxContext(ctx, query, log.ID, log.EventStatus, log.Status, log.IsDataUploaded,
		pq.Array(log.FilesReceived), log.Exception, summary, end).Scan(&log.LastUpdate)
}

func (r *importLogRepository) Latest(ctx context.Context, bot string) (*models.ImportLog, error) {
	var row importLogRow
	query := `SELECT id, bot, created_by, event_status, status, is_data_uploaded, files_received,
	          exception, summary, start_timestamp, end_timestamp, last_update_timestamp
	          FROM import_logs WHERE bot = $1 ORDER BY start_timestamp DESC LIMIT 1`
	err := r.db.GetContext(ctx, &row, query, bot)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *importLogRepository) List(ctx context.Context, bot string, limit, offset int) ([]models.ImportLog, error) {
	var rows []importLogRow
	query := `SELECT id, bot, created_by, event_status, status, is_data_uploaded, files_received,
	          exception, summary, start_timestamp, end_timestamp, last_update_timestamp
	          FROM import_logs WHERE bot = $1 ORDER BY start_timestamp DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, bot, limit, offset); err != nil {
		return nil, err
	}
	logs := make([]models.ImportLog, 0, len(rows))
	for i := range rows {
		log, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, nil
}

func (r *importLogRepository) CountSince(ctx context.Context, bot string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM import_logs WHERE bot = $1 AND start_timestamp >= $2`
	if err := r.db.GetContext(ctx, &count, query, bot, since); err != nil {
		return 0, err
	}
	return count, nil
}
