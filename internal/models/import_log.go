package models

import "time"

// EventStatus is the lifecycle state of one tracked pipeline run.
// Completed and Fail are terminal.
type EventStatus string

const (
	EventInitiated   EventStatus = "Initiated"
	EventValidating  EventStatus = "Validating"
	EventTaskSpawned EventStatus = "Task Spawned"
	EventInProgress  EventStatus = "In Progress"
	EventCompleted   EventStatus = "Completed"
	EventFail        EventStatus = "Fail"
)

// Terminal reports whether s allows no further transition.
func (s EventStatus) Terminal() bool {
	return s == EventCompleted || s == EventFail
}

// Overall import outcome, set on finalization.
const (
	StatusSuccess = "Success"
	StatusFailure = "Failure"
)

// CategoryResult is the per-category slice of an import summary: how many
// entities the category contributed, and what went wrong with it. Empty
// Data means the category validated clean.
type CategoryResult struct {
	Count int      `json:"count"`
	Data  []string `json:"data"`
}

// DomainResult reports per-kind counts for the domain category.
type DomainResult struct {
	IntentsCount    int      `json:"intents_count"`
	ActionsCount    int      `json:"actions_count"`
	SlotsCount      int      `json:"slots_count"`
	UtterancesCount int      `json:"utterances_count"`
	FormsCount      int      `json:"forms_count"`
	EntitiesCount   int      `json:"entities_count"`
	Data            []string `json:"data"`
}

// ImportSummary is the accumulator the validation stages fill in, one
// strongly typed field per category. It is merged into the persisted log
// record once the pipeline terminates.
type ImportSummary struct {
	Intents          CategoryResult `json:"intents"`
	Utterances       CategoryResult `json:"utterances"`
	Stories          CategoryResult `json:"stories"`
	Rules            CategoryResult `json:"rules"`
	TrainingExamples CategoryResult `json:"training_examples"`
	Domain           DomainResult   `json:"domain"`
	Config           CategoryResult `json:"config"`
	HTTPActions      CategoryResult `json:"http_actions"`
}

// Status derives the overall import outcome: Success only if every
// category validated clean.
func (s *ImportSummary) Status() string {
	for _, data := range [][]string{
		s.Intents.Data, s.Utterances.Data, s.Stories.Data, s.Rules.Data,
		s.TrainingExamples.Data, s.Domain.Data, s.Config.Data, s.HTTPActions.Data,
	} {
		if len(data) > 0 {
			return StatusFailure
		}
	}
	return StatusSuccess
}

// ImportLog is one persisted import attempt. Records are append-only per
// bot; a finalized record is never mutated again.
type ImportLog struct {
	ID             string        `db:"id" json:"-"`
	Bot            string        `db:"bot" json:"-"`
	User           string        `db:"created_by" json:"user"`
	EventStatus    EventStatus   `db:"event_status" json:"event_status"`
	Status         string        `db:"status" json:"status"`
	IsDataUploaded bool          `db:"is_data_uploaded" json:"is_data_uploaded"`
	FilesReceived  []string      `db:"-" json:"files_received"`
	Exception      string        `db:"exception" json:"exception"`
	Summary        ImportSummary `db:"-" json:"summary"`
	StartTimestamp time.Time     `db:"start_timestamp" json:"start_timestamp"`
	EndTimestamp   *time.Time    `db:"end_timestamp" json:"end_timestamp,omitempty"`
	LastUpdate     time.Time     `db:"last_update_timestamp" json:"last_update_timestamp"`
}
