package worker

import (
	"io"
	"net/http"
)

// Deps — внешние зависимости стандартных воркеров.
type Deps struct {
	// Stdout — куда печатает print. nil — os.Stdout.
	Stdout io.Writer

	// HTTPClient — клиент воркера http. nil — http.DefaultClient.
	HTTPClient *http.Client

	// Pool — пул PostgreSQL. nil — воркер sql не регистрируется.
	Pool SQLPool

	// Publisher — публикация в RabbitMQ. nil — воркер publish не регистрируется.
	Publisher MessagePublisher
}

// DefaultEntries возвращает таблицу регистрации стандартных воркеров.
//
// Регистрирует: print, log, sleep, http; sql и publish — если заданы зависимости.
func DefaultEntries(deps Deps) []Entry {
	entries := []Entry{
		{Type: TypePrint, New: func() Worker { return NewPrintWorker(deps.Stdout) }},
		{Type: TypeLog, New: func() Worker { return &LogWorker{} }},
		{Type: TypeSleep, New: func() Worker { return &SleepWorker{} }},
		{Type: TypeHTTP, New: func() Worker { return NewHTTPWorker(deps.HTTPClient) }},
	}

	if deps.Pool != nil {
		entries = append(entries, Entry{Type: TypeSQL, New: func() Worker { return NewSQLWorker(deps.Pool) }})
	}
	if deps.Publisher != nil {
		entries = append(entries, Entry{Type: TypePublish, New: func() Worker { return NewPublishWorker(deps.Publisher) }})
	}

	return entries
}

// DefaultRegistry создаёт реестр со стандартными воркерами.
func DefaultRegistry(deps Deps) *Registry {
	return NewRegistry(DefaultEntries(deps)...)
}
