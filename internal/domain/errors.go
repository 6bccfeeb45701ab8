package domain

import "errors"

var (
	// ErrSessionNotFound means the session id does not resolve to a
	// stored session. Surfaced to the caller, never retried.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionCompleted means a mutation was attempted on a sealed
	// session. Surfaced to the caller, state is left untouched.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrEmptyTranscript means the transcriber returned no text. The
	// caller should ask the user to re-record rather than submit an
	// empty answer.
	ErrEmptyTranscript = errors.New("transcription produced no text")
)
