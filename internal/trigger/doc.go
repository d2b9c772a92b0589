// Package trigger принимает запросы на запуск и передаёт их планировщику.
//
// Launcher — общая точка входа для HTTP API и AMQP intake:
// разбор запроса, построение воркеров и Start в одном вызове.
// Launcher учитывает запущенные планировщики, чтобы при остановке
// процесса дождаться их завершения.
//
//	l := trigger.NewLauncher(registry, scheduler.Config{}, logger)
//	s, err := l.Launch(ctx, body)
//
// HandleDelivery — обработчик mq.Consumer для очереди triggers.pending.
// Невалидные запросы отклоняются через mq.ErrReject и уходят в DLQ.
// После Close запросы не запускаются: ErrShuttingDown возвращает
// сообщение в очередь, HTTP API отвечает 503.
package trigger
