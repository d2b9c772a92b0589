package scheduler

import "errors"

// Ошибки планировщика.
var (
	// ErrAlreadyStarted — Start вызван повторно.
	ErrAlreadyStarted = errors.New("scheduler already started")

	// ErrNilRegistry — планировщик создаётся без реестра воркеров.
	ErrNilRegistry = errors.New("worker registry is nil")
)
