package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"botstudio/internal/crypto"
	"botstudio/internal/models"
)

type HTTPActionRepository interface {
	Add(ctx context.Context, action *models.HTTPAction) error
	Get(ctx context.Context, bot, name string) (*models.HTTPAction, error)
	Exists(ctx context.Context, bot, name string) (bool, error)
	List(ctx context.Context, bot string) ([]models.HTTPAction, error)
	Names(ctx context.Context, bot string) ([]string, error)
	Delete(ctx context.Context, bot, name string) error
	DeleteAll(ctx context.Context, bot string) error
}

type httpActionRepository struct {
	db     *sqlx.DB
	cipher *crypto.Cipher
	logger *zap.Logger
}

// NewHTTPActionRepository stores HTTP actions; sensitive param/header
// values are encrypted with cipher before they touch the database.
func NewHTTPActionRepository(db *sqlx.DB, cipher *crypto.Cipher, logger *zap.Logger) HTTPActionRepository {
	return &httpActionRepository{db: db, cipher: cipher, logger: logger}
}

func (r *httpActionRepository) Add(ctx context.Context, action *models.HTTPAction) error {
	action.ActionName = models.Normalize(action.ActionName)
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO http_actions (bot, action_name, http_url, request_method, response_value, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	if err := tx.QueryRowxContext(ctx, query, action.Bot, action.ActionName, action.HTTPURL,
		action.RequestMethod, action.ResponseValue, action.User).StructScan(action); err != nil {
		return err
	}
	for _, group := range [][]models.HTTPActionParam{action.Params, action.Headers} {
		for i := range group {
			param := &group[i]
			param.ActionID = action.ID
			value := param.Value
			if param.Sensitive && r.cipher != nil {
				value, err = r.cipher.EncryptSecret(value)
				if err != nil {
					return err
				}
			}
			paramQuery := `INSERT INTO http_action_params (action_id, key, parameter_type, value, is_header, sensitive)
			               VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
			if err := tx.QueryRowxContext(ctx, paramQuery, param.ActionID, param.Key, param.Type,
				value, param.IsHeader, param.Sensitive).Scan(&param.ID); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (r *httpActionRepository) Get(ctx context.Context, bot, name string) (*models.HTTPAction, error) {
	var action models.HTTPAction
	query := `SELECT id, bot, action_name, http_url, request_method, response_value, created_by, created_at
	          FROM http_actions WHERE bot = $1 AND action_name = $2`
	err := r.db.GetContext(ctx, &action, query, bot, models.Normalize(name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadParams(ctx, &action); err != nil {
		return nil, err
	}
	return &action, nil
}

func (r *httpActionRepository) loadParams(ctx context.Context, action *models.HTTPAction) error {
	var params []models.HTTPActionParam
	query := `SELECT id, action_id, key, parameter_type, value, is_header, sensitive FROM http_action_params WHERE action_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &params, query, action.ID); err != nil {
		return err
	}
	for _, param := range params {
		if param.Sensitive && r.cipher != nil {
			value, err := r.cipher.DecryptSecret(param.Value)
			if err != nil {
				r.logger.Error("Failed to decrypt http action param",
					zap.String("action", action.ActionName), zap.String("key", param.Key), zap.Error(err))
				return err
			}
			param.Value = value
		}
		if param.IsHeader {
			action.Headers = append(action.Headers, param)
		} else {
			action.Params = append(action.Params, param)
		}
	}
	return nil
}

func (r *httpActionRepository) Exists(ctx context.Context, bot, name string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM http_actions WHERE bot = $1 AND action_name = $2`
	if err := r.db.GetContext(ctx, &count, query, bot, models.Normalize(name)); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *httpActionRepository) List(ctx context.Context, bot string) ([]models.HTTPAction, error) {
	var actions []models.HTTPAction
	query := `SELECT id, bot, action_name, http_url, request_method, response_value, created_by, created_at
	          FROM http_actions WHERE bot = $1 ORDER BY action_name`
	if err := r.db.SelectContext(ctx, &actions, query, bot); err != nil {
		return nil, err
	}
	for i := range actions {
		if err := r.loadParams(ctx, &actions[i]); err != nil {
			return nil, err
		}
	}
	return actions, nil
}

func (r *httpActionRepository) Names(ctx context.Context, bot string) ([]string, error) {
	var names []string
	query := `SELECT action_name FROM http_actions WHERE bot = $1 ORDER BY action_name`
	if err := r.db.SelectContext(ctx, &names, query, bot); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *httpActionRepository) Delete(ctx context.Context, bot, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM http_actions WHERE bot = $1 AND action_name = $2`,
		bot, models.Normalize(name))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NewAppError("No HTTP action found for bot")
	}
	return nil
}

func (r *httpActionRepository) DeleteAll(ctx context.Context, bot string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM http_actions WHERE bot = $1`, bot)
	return err
}
