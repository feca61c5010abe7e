package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"botstudio/internal/models"
)

type AuthRepository interface {
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	CountUsers() (int, error)

	CreateBot(ctx context.Context, bot *models.Bot) error
	GetBot(ctx context.Context, id string) (*models.Bot, error)
	ListBots(ctx context.Context, account string) ([]models.Bot, error)
}

type authRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewAuthRepository(db *sqlx.DB, log *logrus.Logger) AuthRepository {
	return &authRepository{db: db, log: log}
}

func (r *authRepository) CreateUser(user *models.User) error {
	query := `INSERT INTO users (username, password_hash, role, account) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return r.db.QueryRowx(query, user.Username, user.PasswordHash, user.Role, user.Account).StructScan(user)
}

func (r *authRepository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, password_hash, role, account, created_at FROM users WHERE username = $1`
	err := r.db.Get(&user, query, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *authRepository) CountUsers() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM users`
	err := r.db.Get(&count, query)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *authRepository) CreateBot(ctx context.Context, bot *models.Bot) error {
	if bot.ID == "" {
		bot.ID = uuid.NewString()
	}
	query := `INSERT INTO bots (id, name, account, created_by) VALUES ($1, $2, $3, $4) RETURNING created_at`
	return r.db.QueryRowxContext(ctx, query, bot.ID, bot.Name, bot.Account, bot.User).Scan(&bot.CreatedAt)
}

func (r *authRepository) GetBot(ctx context.Context, id string) (*models.Bot, error) {
	var bot models.Bot
	query := `SELECT id, name, account, created_by, created_at FROM bots WHERE id = $1`
	err := r.db.GetContext(ctx, &bot, query, id)
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

func (r *authRepository) ListBots(ctx context.Context, account string) ([]models.Bot, error) {
	var bots []models.Bot
	query := `SELECT id, name, account, created_by, created_at FROM bots WHERE account = $1 ORDER BY created_at`
	err := r.db.SelectContext(ctx, &bots, query, account)
	if err != nil {
		return nil, err
	}
	return bots, nil
}
