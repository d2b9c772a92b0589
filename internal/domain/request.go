package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkerSpec — описание одного воркера в запросе.
type WorkerSpec struct {
	// Type — идентификатор типа воркера в реестре ("print", "http", ...).
	Type string `json:"type"`

	// Background — запускать Run в отдельной горутине.
	// В JSON передаётся как "async".
	Background bool `json:"async,omitempty"`

	// Template — строковые аргументы являются шаблонами text/template.
	// Без флага аргументы передаются воркеру как есть.
	Template bool `json:"template,omitempty"`

	// Args — аргументы воркера. Никогда не nil после разбора.
	Args map[string]any `json:"args,omitempty"`
}

// Request — разобранный запрос на запуск.
type Request struct {
	// ID — идентификатор запроса, попадает во все логи.
	ID uuid.UUID `json:"id"`

	// Workers — воркеры в порядке объявления. Не пустой.
	Workers []WorkerSpec `json:"workers"`

	// Schedule — политика запуска.
	Schedule ScheduleSpec `json:"schedule"`

	// ReceivedAt — время получения запроса.
	ReceivedAt time.Time `json:"received_at"`
}
