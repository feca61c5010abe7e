package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"botstudio/internal/models"
)

// DomainRepository persists the declarative parts of a bot's domain
// (slots, entities, forms) and assembles the aggregate view the import
// validator cross-checks against.
type DomainRepository interface {
	AddSlot(ctx context.Context, slot *models.Slot) error
	SlotNames(ctx context.Context, bot string) ([]string, error)
	DeleteAllSlots(ctx context.Context, bot string) error

	AddEntity(ctx context.Context, entity *models.Entity) error
	EntityNames(ctx context.Context, bot string) ([]string, error)
	DeleteAllEntities(ctx context.Context, bot string) error

	AddForm(ctx context.Context, form *models.Form) error
	FormNames(ctx context.Context, bot string) ([]string, error)
	DeleteAllForms(ctx context.Context, bot string) error

	SaveConfig(ctx context.Context, bot, user string, raw []byte) error
	GetConfig(ctx context.Context, bot string) ([]byte, error)

	GetDomain(ctx context.Context, bot string) (*models.Domain, error)
}

type domainRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewDomainRepository(db *sqlx.DB, logger *zap.Logger) DomainRepository {
	return &domainRepository{db: db, logger: logger}
}

func (r *domainRepository) AddSlot(ctx context.Context, slot *models.Slot) error {
	slot.Name = models.Normalize(slot.Name)
	query := `INSERT INTO slots (bot, name, type, initial_value, created_by) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.db.QueryRowxContext(ctx, query, slot.Bot, slot.Name, slot.Type, slot.InitialValue, slot.User).Scan(&slot.ID)
}

func (r *domainRepository) SlotNames(ctx context.Context, bot string) ([]string, error) {
	return r.names(ctx, `SELECT name FROM slots WHERE bot = $1 ORDER BY name`, bot)
}

func (r *domainRepository) DeleteAllSlots(ctx context.Context, bot string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE bot = $1`, bot)
	return err
}

func (r *domainRepository) AddEntity(ctx context.Context, entity *models.Entity) error {
	entity.Name = models.Normalize(entity.Name)
	query := `INSERT INTO entities (bot, name, created_by) VALUES ($1, $2, $3) RETURNING id`
	return r.db.QueryRowxContext(ctx, query, entity.Bot, entity.Name, entity.User).Scan(&entity.ID)
}

func (r *domainRepository) EntityNames(ctx context.Context, bot string) ([]string, error) {
	return r.names(ctx, `SELECT name FROM entities WHERE bot = $1 ORDER BY name`, bot)
}

func (r *domainRepository) DeleteAllEntities(ctx context.Context, bot string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE bot = $1`, bot)
	return err
}

func (r *domainRepository) AddForm(ctx context.Context, form *models.Form) error {
	form.Name = models.Normalize(form.Name)
	query := `INSERT INTO forms (bot, name, required_slots, created_by) VALUES ($1, $2, $3, $4) RETURNING id`
	return r.db.QueryRowxContext(ctx, query, form.Bot, form.Name, pq.Array(form.RequiredSlots), form.User).Scan(&form.ID)
}

func (r *domainRepository) FormNames(ctx context.Context, bot string) ([]string, error) {
	return r.names(ctx, `SELECT name FROM forms WHERE bot = $1 ORDER BY name`, bot)
}

func (r *domainRepository) DeleteAllForms(ctx context.Context, bot string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM forms WHERE bot = $1`, bot)
	return err
}

func (r *domainRepository) SaveConfig(ctx context.Context, bot, user string, raw []byte) error {
	query := `INSERT INTO bot_configs (bot, config, created_by) VALUES ($1, $2, $3)
	          ON CONFLICT (bot) DO UPDATE SET config = $2, created_by = $3, updated_at = now()`
	_, err := r.db.ExecContext(ctx, query, bot, raw, user)
	return err
}

func (r *domainRepository) GetConfig(ctx context.Context, bot string) ([]byte, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT config FROM bot_configs WHERE bot = $1`, bot)
	if IsNotFound(err) {
		return nil, nil
	}
	return raw, err
}

func (r *domainRepository) names(ctx context.Context, query, bot string) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, bot); err != nil {
		return nil, err
	}
	return names, nil
}

// GetDomain joins every declared name of the bot into one aggregate:
// intents, entities, slots, forms, actions (HTTP actions included) and
// utterance names.
func (r *domainRepository) GetDomain(ctx context.Context, bot string) (*models.Domain, error) {
	domain := &models.Domain{}
	queries := []struct {
		dest  *[]string
		query string
	}{
		{&domain.Intents, `SELECT name FROM intents WHERE bot = $1 ORDER BY name`},
		{&domain.Entities, `SELECT name FROM entities WHERE bot = $1 ORDER BY name`},
		{&domain.Slots, `SELECT name FROM slots WHERE bot = $1 ORDER BY name`},
		{&domain.Forms, `SELECT name FROM forms WHERE bot = $1 ORDER BY name`},
		{&domain.Actions, `SELECT action_name FROM http_actions WHERE bot = $1 ORDER BY action_name`},
		{&domain.Utterances, `SELECT DISTINCT name FROM responses WHERE bot = $1 ORDER BY name`},
	}
	for _, q := range queries {
		if err := r.db.SelectContext(ctx, q.dest, q.query, bot); err != nil {
			return nil, err
		}
	}
	return domain, nil
}
