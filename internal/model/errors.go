package model

import "errors"

// Failure taxonomy shared by the storage, watcher and game services.
// Callers match with errors.Is; the wrapped message carries the detail.
var (
	ErrNotFound           = errors.New("not found")
	ErrStorage            = errors.New("storage failure")
	ErrIllegalParticipant = errors.New("user is not a participant of this game")
	ErrValidation         = errors.New("validation failed")
)
