package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"botstudio/internal/models"
)

// GenerationLogRepository persists document-to-training-data runs,
// structurally parallel to the import log store.
type GenerationLogRepository interface {
	Create(ctx context.Context, log *models.GenerationLog) error
	Update(ctx context.Context, log *models.GenerationLog) error
	Latest(ctx context.Context, bot string) (*models.GenerationLog, error)
	List(ctx context.Context, bot string, limit, offset int) ([]models.GenerationLog, error)
	CountSince(ctx context.Context, bot string, since time.Time) (int, error)
}

type generationLogRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewGenerationLogRepository(db *sqlx.DB, logger *zap.Logger) GenerationLogRepository {
	return &generationLogRepository{db: db, logger: logger}
}

type generationLogRow struct {
	ID             string       `db:"id"`
	Bot            string       `db:"bot"`
	User           string       `db:"created_by"`
	DocumentPath   string       `db:"document_path"`
	Status         string       `db:"status"`
	Exception      string       `db:"exception"`
	Response       []byte       `db:"response"`
	StartTimestamp time.Time    `db:"start_timestamp"`
	EndTimestamp   sql.NullTime `db:"end_timestamp"`
	LastUpdate     time.Time    `db:"last_update_timestamp"`
}

func (row *generationLogRow) toModel() (*models.GenerationLog, error) {
	log := &models.GenerationLog{
		ID:             row.ID,
		Bot:            row.Bot,
		User:           row.User,
		DocumentPath:   row.DocumentPath,
		Status:         models.GenerationStatus(row.Status),
		Exception:      row.Exception,
		StartTimestamp: row.StartTimestamp,
		LastUpdate:     row.LastUpdate,
	}
	if row.EndTimestamp.Valid {
		end := row.EndTimestamp.Time
		log.EndTimestamp = &end
	}
	if len(row.Response) > 0 {
		if err := json.Unmarshal(row.Response, &log.Response); err != nil {
			return nil, err
		}
	}
	return log, nil
}

func (r *generationLogRepository) Create(ctx context.Context, log *models.GenerationLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	response, err := json.Marshal(log.Response)
	if err != nil {
		return err
	}
	query := `INSERT INTO generation_logs (id, bot, created_by, document_path, status, exception, response, start_timestamp, last_update_timestamp)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now()) RETURNING start_timestamp, last_update_timestamp`
	return r.db.QueryRowxContext(ctx, query, log.ID, log.Bot, log.User, log.DocumentPath, log.Status,
		log.Exception, response).Scan(&log.StartTimestamp, &log.LastUpdate)
}

func (r *generationLogRepository) Update(ctx context.Context, log *models.GenerationLog) error {
	response, err := json.Marshal(log.Response)
	if err != nil {
		return err
	}
	var end sql.NullTime
	if log.EndTimestamp != nil {
		end = sql.NullTime{Time: *log.EndTimestamp, Valid: true}
	}
	query := `UPDATE generation_logs SET status = $2, exception = $3, response = $4, end_timestamp = $5, last_update_timestamp = now()
	          WHERE id = $1 RETURNING last_update_timestamp`
	return r.db.QueryRowxContext(ctx, query, log.ID, log.Status, log.Exception, response, end).Scan(&log.LastUpdate)
}

func (r *generationLogRepository) Latest(ctx context.Context, bot string) (*models.GenerationLog, error) {
	var row generationLogRow
	query := `SELECT id, bot, created_by, document_path, status, exception, response, start_timestamp, end_timestamp, last_update_timestamp
	          FROM generation_logs WHERE bot = $1 ORDER BY start_timestamp DESC LIMIT 1`
	err := r.db.GetContext(ctx, &row, query, bot)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *generationLogRepository) List(ctx context.Context, bot string, limit, offset int) ([]models.GenerationLog, error) {
	var rows []generationLogRow
	query := `SELECT id, bot, created_by, document_path, status, exception, response, start_timestamp, end_timestamp, last_update_timestamp
	          FROM generation_logs WHERE bot = $1 ORDER BY start_timestamp DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, bot, limit, offset); err != nil {
		return nil, err
	}
	logs := make([]models.GenerationLog, 0, len(rows))
	for i := range rows {
		log, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, nil
}

func (r *generationLogRepository) CountSince(ctx context.Context, bot string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM generation_logs WHERE bot = $1 AND start_timestamp >= $2`
	if err := r.db.GetContext(ctx, &count, query, bot, since); err != nil {
		return 0, err
	}
	return count, nil
}
