package worker

import "errors"

// Ошибки воркеров.
var (
	// ErrUnknownType — тип воркера не зарегистрирован в реестре.
	ErrUnknownType = errors.New("unknown worker type")

	// ErrInvalidArgs — аргументы воркера не прошли валидацию.
	ErrInvalidArgs = errors.New("invalid worker args")

	// ErrPanic — воркер запаниковал в одном из этапов жизненного цикла.
	ErrPanic = errors.New("worker panicked")

	// ErrStillRunning — фоновый воркер ещё не завершился.
	ErrStillRunning = errors.New("worker still running")

	// ErrNotSetUp — Run вызван без успешного Setup.
	ErrNotSetUp = errors.New("worker resources not set up")

	// ErrHTTPRequest — HTTP-запрос завершился ошибкой.
	ErrHTTPRequest = errors.New("http request failed")

	// ErrHTTPStatus — HTTP-ответ со статусом >= 400.
	ErrHTTPStatus = errors.New("http error status")

	// ErrNotConnected — нет соединения с брокером сообщений.
	ErrNotConnected = errors.New("message broker not connected")
)
