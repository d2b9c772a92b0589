// Package scheduler запускает воркеры одного запроса по расписанию.
//
// Scheduler разбирает запрос, строит и валидирует все воркеры через реестр
// и затем из одной горутины-супервизора проводит их через жизненный цикл.
//
// Структура:
//   - scheduler.go — Scheduler: конструктор, Start, состояние
//   - supervise.go — супервизор: setup, ожидание, запуск, join/teardown
//   - errors.go    — ошибки пакета
//
// Состояния:
//
//	PARSING → READY → WAITING → RUNNING → DRAINING → DONE
//	        ↘ FAILED
//
// Использование:
//
//	sched, err := scheduler.New(raw, registry, scheduler.Config{Logger: logger})
//	if err != nil {
//	    // *engine.ValidationError — отдать клиенту
//	}
//
//	// Возвращается сразу, воркеры выполняются в фоне
//	if err := sched.Start(); err != nil {
//	    logger.Error("start failed", "error", err)
//	}
//
// Отмены нет: после Start ни ожидание, ни воркеры прервать нельзя.
// Ошибки воркеров не возвращаются вызывающему — их логирует и учитывает
// в метриках worker.Handle.
package scheduler
