package models

import "time"

// Generation statuses mirror the import lifecycle without the task-spawned
// stage; the document-to-training-data worker reports them back over HTTP.
type GenerationStatus string

const (
	GenInitiated  GenerationStatus = "Initiated"
	GenInProgress GenerationStatus = "InProgress"
	GenCompleted  GenerationStatus = "Completed"
	GenFail       GenerationStatus = "Fail"
)

// Terminal reports whether s allows no further transition.
func (s GenerationStatus) Terminal() bool {
	return s == GenCompleted || s == GenFail
}

// GeneratedIntent is one intent proposal produced from a parsed document.
type GeneratedIntent struct {
	Intent           string   `json:"intent"`
	TrainingExamples []string `json:"training_examples"`
	Response         string   `json:"response"`
}

// GenerationLog tracks one document-to-training-data run, structurally
// parallel to ImportLog.
type GenerationLog struct {
	ID             string            `db:"id" json:"-"`
	Bot            string            `db:"bot" json:"-"`
	User           string            `db:"created_by" json:"user"`
	DocumentPath   string            `db:"document_path" json:"document_path"`
	Status         GenerationStatus  `db:"status" json:"status"`
	Exception      string            `db:"exception" json:"exception"`
	Response       []GeneratedIntent `db:"-" json:"response"`
	StartTimestamp time.Time         `db:"start_timestamp" json:"start_timestamp"`
	EndTimestamp   *time.Time        `db:"end_timestamp" json:"end_timestamp,omitempty"`
	LastUpdate     time.Time         `db:"last_update_timestamp" json:"last_update_timestamp"`
}
