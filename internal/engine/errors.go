package engine

import (
	"errors"
	"fmt"
)

// Ошибки разбора запроса.
var (
	// ErrInvalidJSON — тело запроса не является JSON-объектом.
	ErrInvalidJSON = errors.New("invalid json")

	// ErrMissingField — отсутствует обязательное поле.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidType — поле имеет неверный тип.
	ErrInvalidType = errors.New("invalid field type")

	// ErrEmptyWorkers — список воркеров пуст.
	ErrEmptyWorkers = errors.New("workers list is empty")

	// ErrUnknownMode — неизвестный режим schedule.mode.
	ErrUnknownMode = errors.New("unknown schedule mode")

	// ErrInvalidDelay — задержка отрицательная, не число или не помещается в time.Duration.
	ErrInvalidDelay = errors.New("invalid delay")

	// ErrInvalidTime — не удалось разобрать время срабатывания.
	ErrInvalidTime = errors.New("invalid alarm time")

	// ErrInvalidCron — не удалось разобрать cron-выражение.
	ErrInvalidCron = errors.New("invalid cron expression")

	// ErrCronNeverFires — у cron-выражения нет ближайшего срабатывания.
	ErrCronNeverFires = errors.New("cron expression never fires")

	// ErrInvalidTimezone — неизвестный часовой пояс.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Ошибки рендеринга шаблонов.
var (
	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")

	// ErrTemplateParse — ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")
)

// NoWorker — значение ValidationError.Worker для ошибок уровня запроса.
const NoWorker = -1

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	Worker  int    // индекс воркера в запросе или NoWorker
	Field   string // поле, вызвавшее ошибку: "workers", "schedule.mode", "args", ...
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Worker != NoWorker {
		return fmt.Sprintf("workers[%d].%s: %s", e.Worker, e.Field, e.Message)
	}
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт ошибку валидации уровня запроса.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Worker:  NoWorker,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// NewWorkerError создаёт ошибку валидации конкретного воркера.
func NewWorkerError(index int, field, message string, err error) *ValidationError {
	return &ValidationError{
		Worker:  index,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
