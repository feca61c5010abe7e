package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"botstudio/internal/models"
)

type IntentRepository interface {
	Add(ctx context.Context, intent *models.Intent) error
	Exists(ctx context.Context, bot, name string) (bool, error)
	List(ctx context.Context, bot string) ([]models.Intent, error)
	Names(ctx context.Context, bot string) ([]string, error)
	Delete(ctx context.Context, bot, name string) error
	DeleteAll(ctx context.Context, bot string) error

	AddExample(ctx context.Context, example *models.TrainingExample) error
	ExampleExists(ctx context.Context, bot, intent, text string) (bool, error)
	ListExamples(ctx context.Context, bot, intent string) ([]models.TrainingExample, error)
	CountExamples(ctx context.Context, bot string) (int, error)
	DeleteAllExamples(ctx context.Context, bot string) error
}

type intentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewIntentRepository(db *sqlx.DB, logger *zap.Logger) IntentRepository {
	return &intentRepository{db: db, logger: logger}
}

func (r *intentRepository) Add(ctx context.Context, intent *models.Intent) error {
	intent.Name = models.Normalize(intent.Name)
	query := `INSERT INTO intents (bot, name, created_by) VALUES ($1, $2, $3) RETURNING id, created_at`
	return r.db.QueryRowxContext(ctx, query, intent.Bot, intent.Name, intent.User).StructScan(intent)
}

func (r *intentRepository) Exists(ctx context.Context, bot, name string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM intents WHERE bot = $1 AND name = $2`
	if err := r.db.GetContext(ctx, &count, query, bot, models.Normalize(name)); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *intentRepository) List(ctx context.Context, bot string) ([]models.Intent, error) {
	var intents []models.Intent
	query := `SELECT id, bot, name, created_by, created_at FROM intents WHERE bot = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &intents, query, bot); err != nil {
		return nil, err
	}
	return intents, nil
}

func (r *intentRepository) Names(ctx context.Context, bot string) ([]string, error) {
	var names []string
	query := `SELECT name FROM intents WHERE bot = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &names, query, bot); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *intentRepository) Delete(ctx context.Context, bot, name string) error {
	name = models.Normalize(name)
	result, err := r.db.ExecContext(ctx, `DELETE FROM intents WHERE bot = $1 AND name = $2`, bot, name)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NewAppError("Intent does not exist")
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM training_examples WHERE bot = $1 AND intent = $2`, bot, name)
	return err
}

func (r *intentRepository) DeleteAll(ctx context.Context, bot string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM intents WHERE bot = $1`, bot)
	return err
}

func (r *intentRepository) AddExample(ctx context.Context, example *models.TrainingExample) error {
	example.Intent = models.Normalize(example.Intent)
	query := `INSERT INTO training_examples (bot, intent, text, created_by) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return r.db.QueryRowxContext(ctx, query, example.Bot, example.Intent, example.Text, example.User).StructScan(example)
}

func (r *intentRepository) ExampleExists(ctx context.Context, bot, intent, text string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM training_examples WHERE bot = $1 AND intent = $2 AND text = $3`
	if err := r.db.GetContext(ctx, &count, query, bot, models.Normalize(intent), text); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *intentRepository) ListExamples(ctx context.Context, bot, intent string) ([]models.TrainingExample, error) {
	var examples []models.TrainingExample
	query := `SELECT id, bot, intent, text, created_by, created_at FROM training_examples WHERE bot = $1 AND intent = $2 ORDER BY id`
	if err := r.db.SelectContext(ctx, &examples, query, bot, models.Normalize(intent)); err != nil {
		return nil, err
	}
	return examples, nil
}

func (r *intentRepository) CountExamples(ctx context.Context, bot string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM training_examples WHERE bot = $1`, bot); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *intentRepository) DeleteAllExamples(ctx context.Context, bot string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM training_examples WHERE bot = $1`, bot)
	return err
}

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
