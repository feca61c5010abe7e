package models

import "strings"

// AppError is a domain error that surfaces to the API caller with a
// structured error code, as opposed to an unexpected internal failure.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError returns a domain error with code 422.
func NewAppError(message string) *AppError {
	return &AppError{Code: 422, Message: message}
}

// Normalize is the single case-normalization boundary for all text keys:
// intent names, utterance names, flow names, slot names, action names.
// Only the normalized form is ever stored.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
