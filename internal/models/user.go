package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID           int64     `db:"id" json:"-"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Account      string    `db:"account" json:"account"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

// Bot is the tenant: every authoring artifact belongs to exactly one bot.
type Bot struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Account   string    `db:"account" json:"account"`
	User      string    `db:"created_by" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// Claims defines the structure of the JWT claims.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Account  string `json:"account"`
	jwt.RegisteredClaims
}
