package models

import "time"

// ParameterType tells the runtime where an HTTP action param/header value
// comes from.
type ParameterType string

const (
	ParamValue       ParameterType = "value"
	ParamSlot        ParameterType = "slot"
	ParamSenderID    ParameterType = "sender_id"
	ParamUserMessage ParameterType = "user_message"
)

// HTTPActionParam is one param or header of an HTTP action. Value is
// required unless the parameter type is sender_id or user_message.
type HTTPActionParam struct {
	ID       int64         `db:"id" json:"-"`
	ActionID int64         `db:"action_id" json:"-"`
	Key      string        `db:"key" json:"key"`
	Type     ParameterType `db:"parameter_type" json:"parameter_type"`
	Value    string        `db:"value" json:"value"`
	IsHeader bool          `db:"is_header" json:"-"`
	// Sensitive values are encrypted at rest.
	Sensitive bool `db:"sensitive" json:"sensitive,omitempty"`
}

// HTTPAction calls out to an external endpoint as a flow step.
// Identified by (bot, action_name), stored lowercased.
type HTTPAction struct {
	ID            int64             `db:"id" json:"-"`
	Bot           string            `db:"bot" json:"-"`
	ActionName    string            `db:"action_name" json:"action_name"`
	HTTPURL       string            `db:"http_url" json:"http_url"`
	RequestMethod string            `db:"request_method" json:"request_method"`
	ResponseValue string            `db:"response_value" json:"response"`
	User          string            `db:"created_by" json:"-"`
	CreatedAt     time.Time         `db:"created_at" json:"-"`
	Params        []HTTPActionParam `db:"-" json:"params_list"`
	Headers       []HTTPActionParam `db:"-" json:"headers"`
}

// RequestMethods lists the HTTP verbs an action may use.
var RequestMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
	"PATCH":  true,
}
