package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"botstudio/internal/models"
)

type FlowRepository interface {
	Add(ctx context.Context, flow *models.Flow) error
	Get(ctx context.Context, bot, name string, flowType models.FlowType) (*models.Flow, error)
	Exists(ctx context.Context, bot, name string, flowType models.FlowType) (bool, error)
	List(ctx context.Context, bot string, flowType models.FlowType) ([]models.Flow, error)
	Delete(ctx context.Context, bot, name string, flowType models.FlowType) error
	DeleteAll(ctx context.Context, bot string, flowType models.FlowType) error
	// ReferencesBotStep reports whether any persisted flow of the bot holds
	// a BOT step with the given name. Used to protect utterances from
	// deletion while a story still speaks them.
	ReferencesBotStep(ctx context.Context, bot, name string) (bool, error)
}

type flowRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewFlowRepository(db *sqlx.DB, logger *zap.Logger) FlowRepository {
	return &flowRepository{db: db, logger: logger}
}

func (r *flowRepository) Add(ctx context.Context, flow *models.Flow) error {
	flow.Name = models.Normalize(flow.Name)
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO flows (bot, name, type, template_type, created_by) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	if err := tx.QueryRowxContext(ctx, query, flow.Bot, flow.Name, flow.Type, flow.TemplateType, flow.User).StructScan(flow); err != nil {
		return err
	}
	for i := range flow.Steps {
		step := &flow.Steps[i]
		step.FlowID = flow.ID
		step.Position = i
		step.Name = models.Normalize(step.Name)
		stepQuery := `INSERT INTO flow_steps (flow_id, position, name, type) VALUES ($1, $2, $3, $4) RETURNING id`
		if err := tx.QueryRowxContext(ctx, stepQuery, step.FlowID, step.Position, step.Name, step.Type).Scan(&step.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *flowRepository) Get(ctx context.Context, bot, name string, flowType models.FlowType) (*models.Flow, error) {
	var flow models.Flow
	query := `SELECT id, bot, name, type, template_type, created_by, created_at FROM flows WHERE bot = $1 AND name = $2 AND type = $3`
	err := r.db.GetContext(ctx, &flow, query, bot, models.Normalize(name), flowType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadSteps(ctx, &flow); err != nil {
		return nil, err
	}
	return &flow, nil
}

func (r *flowRepository) loadSteps(ctx context.Context, flow *models.Flow) error {
	query := `SELECT id, flow_id, position, name, type FROM flow_steps WHERE flow_id = $1 ORDER BY position`
	return r.db.SelectContext(ctx, &flow.Steps, query, flow.ID)
}

func (r *flowRepository) Exists(ctx context.Context, bot, name string, flowType models.FlowType) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM flows WHERE bot = $1 AND name = $2 AND type = $3`
	if err := r.db.GetContext(ctx, &count, query, bot, models.Normalize(name), flowType); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *flowRepository) List(ctx context.Context, bot string, flowType models.FlowType) ([]models.Flow, error) {
	var flows []models.Flow
	query := `SELECT id, bot, name, type, template_type, created_by, created_at FROM flows WHERE bot = $1 AND type = $2 ORDER BY name`
	if err := r.db.SelectContext(ctx, &flows, query, bot, flowType); err != nil {
		return nil, err
	}
	for i := range flows {
		if err := r.loadSteps(ctx, &flows[i]); err != nil {
			return nil, err
		}
	}
	return flows, nil
}

func (r *flowRepository) Delete(ctx context.Context, bot, name string, flowType models.FlowType) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM flows WHERE bot = $1 AND name = $2 AND type = $3`,
		bot, models.Normalize(name), flowType)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NewAppError("Flow does not exist")
	}
	return nil
}

func (r *flowRepository) DeleteAll(ctx context.Context, bot string, flowType models.FlowType) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM flows WHERE bot = $1 AND type = $2`, bot, flowType)
	return err
}

func (r *flowRepository) ReferencesBotStep(ctx context.Context, bot, name string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM flow_steps s JOIN flows f ON s.flow_id = f.id WHERE f.bot = $1 AND s.type = $2 AND s.name = $3`
	if err := r.db.GetContext(ctx, &count, query, bot, models.StepBot, models.Normalize(name)); err != nil {
		return false, err
	}
	return count > 0, nil
}
