package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"botstudio/internal/models"
)

type ResponseRepository interface {
	Add(ctx context.Context, response *models.Response) error
	Exists(ctx context.Context, bot, name string) (bool, error)
	List(ctx context.Context, bot string) ([]models.Response, error)
	Names(ctx context.Context, bot string) ([]string, error)
	Delete(ctx context.Context, bot, name string) error
	DeleteAll(ctx context.Context, bot string) error
}

type responseRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewResponseRepository(db *sqlx.DB, logger *zap.Logger) ResponseRepository {
	return &responseRepository{db: db, logger: logger}
}

func (r *responseRepository) Add(ctx context.Context, response *models.Response) error {
	response.Name = models.Normalize(response.Name)
	query := `INSERT INTO responses (bot, name, text, custom, created_by) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	return r.db.QueryRowxContext(ctx, query, response.Bot, response.Name, response.Text, response.Custom, response.User).StructScan(response)
}

func (r *responseRepository) Exists(ctx context.Context, bot, name string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM responses WHERE bot = $1 AND name = $2`
	if err := r.db.GetContext(ctx, &count, query, bot, models.Normalize(name)); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *responseRepository) List(ctx context.Context, bot string) ([]models.Response, error) {
	var responses []models.Response
	query := `SELECT id, bot, name, text, custom, created_by, created_at FROM responses WHERE bot = $1 ORDER BY name, id`
	if err := r.db.SelectContext(ctx, &responses, query, bot); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepository) Names(ctx context.Context, bot string) ([]string, error) {
	var names []string
	query := `SELECT DISTINCT name FROM responses WHERE bot = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &names, query, bot); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *responseRepository) Delete(ctx context.Context, bot, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM responses WHERE bot = $1 AND name = $2`, bot, models.Normalize(name))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NewAppError("Utterance does not exist")
	}
	return nil
}

func (r *responseRepository) DeleteAll(ctx context.Context, bot string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM responses WHERE bot = $1`, bot)
	return err
}
