package models

import "time"

// Response is a named bot utterance, conventionally prefixed "utter_".
// Identified by (bot, name), stored lowercased.
type Response struct {
	ID        int64     `db:"id" json:"-"`
	Bot       string    `db:"bot" json:"-"`
	Name      string    `db:"name" json:"name"`
	Text      string    `db:"text" json:"text"`
	Custom    string    `db:"custom" json:"custom,omitempty"`
	User      string    `db:"created_by" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}
