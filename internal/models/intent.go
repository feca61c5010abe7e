package models

import "time"

// Intent is identified by (bot, name). Names are stored lowercased.
type Intent struct {
	ID        int64     `db:"id" json:"-"`
	Bot       string    `db:"bot" json:"-"`
	Name      string    `db:"name" json:"name"`
	User      string    `db:"created_by" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// TrainingExample is one example sentence attached to an intent.
type TrainingExample struct {
	ID        int64     `db:"id" json:"-"`
	Bot       string    `db:"bot" json:"-"`
	Intent    string    `db:"intent" json:"intent"`
	Text      string    `db:"text" json:"text"`
	User      string    `db:"created_by" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// TrainingExampleResult is the per-item outcome of a batch example add.
// Exactly one of ID and Message is set.
type TrainingExampleResult struct {
	ID      *int64  `json:"_id"`
	Text    string  `json:"text"`
	Message *string `json:"message"`
}
