package models

import "time"

// StepType is the role a single step plays inside a flow.
type StepType string

const (
	StepIntent        StepType = "INTENT"
	StepBot           StepType = "BOT"
	StepHTTPAction    StepType = "HTTP_ACTION"
	StepAction        StepType = "ACTION"
	StepSlotSetAction StepType = "SLOT_SET_ACTION"
)

// FlowType distinguishes stories from rules.
type FlowType string

const (
	FlowStory FlowType = "STORY"
	FlowRule  FlowType = "RULE"
)

// Template types derived from the shape of a flow. Informational only,
// nothing validates against them.
const (
	TemplateQNA    = "Q&A"
	TemplateCustom = "CUSTOM"
)

// Step is one element of a flow. A step is owned by exactly one flow.
type Step struct {
	ID       int64    `db:"id" json:"-"`
	FlowID   int64    `db:"flow_id" json:"-"`
	Position int      `db:"position" json:"-"`
	Name     string   `db:"name" json:"name"`
	Type     StepType `db:"type" json:"type"`
}

// Flow is an ordered sequence of conversational steps, identified by
// (bot, name, type).
type Flow struct {
	ID           int64     `db:"id" json:"-"`
	Bot          string    `db:"bot" json:"-"`
	Name         string    `db:"name" json:"name"`
	Type         FlowType  `db:"type" json:"type"`
	TemplateType string    `db:"template_type" json:"template_type"`
	User         string    `db:"created_by" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
	Steps        []Step    `db:"-" json:"steps"`
}
