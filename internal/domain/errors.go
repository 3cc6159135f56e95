package domain

import "errors"

var (
	// ErrInvalidLink is returned when a pasted link carries no recognizable video id.
	ErrInvalidLink = errors.New("invalid youtube link")
	// ErrNoActiveStream is returned when ending a live class that was never started.
	ErrNoActiveStream = errors.New("no active live stream")
	// ErrEmptySelection is returned when a bulk action runs with nothing selected.
	ErrEmptySelection = errors.New("no results selected")
	// ErrPartialDelete indicates at least one delete in a batch failed.
	ErrPartialDelete = errors.New("some selected results could not be deleted")
	// ErrPersistence wraps any backend failure, including call timeouts.
	ErrPersistence = errors.New("persistence error")
	// ErrResultNotLoaded is returned when selecting an id outside the loaded snapshot.
	ErrResultNotLoaded = errors.New("result not loaded")
	// ErrSessionNotFound is returned when an admin session has not been initialized.
	ErrSessionNotFound = errors.New("admin session not found")
	// ErrInvalidOption indicates a correct-option label outside A-D.
	ErrInvalidOption = errors.New("correct option must be one of A, B, C, D")
	// ErrNoQuestions is returned when an upload batch is empty.
	ErrNoQuestions = errors.New("no questions to upload")
	// ErrInvalidTimer indicates a negative timer component.
	ErrInvalidTimer = errors.New("timer values must not be negative")
)
