package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when a country pool cannot form a four-option question.
	ErrInsufficientData = errors.New("not enough countries to build a question")
	// ErrCountriesUnavailable indicates neither the country source nor the fallback produced data.
	ErrCountriesUnavailable = errors.New("countries unavailable")
	// ErrUnknownMode is returned for a game mode that is not configured.
	ErrUnknownMode = errors.New("unknown game mode")
	// ErrGameNotFound is returned when a game session does not exist or expired.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameFinished is returned when answering a game with no questions left.
	ErrGameFinished = errors.New("game already finished")
	// ErrGameNotFinished is returned when saving the score of a game still in progress.
	ErrGameNotFinished = errors.New("game not finished")
	// ErrQuestionOutOfOrder indicates an answer for a question other than the current one.
	ErrQuestionOutOfOrder = errors.New("question is not the current question")
	// ErrScoreAlreadySaved is returned when a game's score was already persisted.
	ErrScoreAlreadySaved = errors.New("score already saved")
	// ErrMailerNotConfigured is returned when error reports cannot be delivered.
	ErrMailerNotConfigured = errors.New("email service not configured")
)

// ValidationError describes malformed client input.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
