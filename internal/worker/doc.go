// Package worker описывает единицы работы и их реестр.
//
// # Обзор
//
// Worker — единица работы с жизненным циклом Validate → Setup → Run → Teardown.
// Конкретные воркеры не знают о расписании: когда и в какой горутине
// вызывать Run, решает scheduler.
//
// # Ключевые компоненты
//
// ## Worker
//
//	type Worker interface {
//	    Validate(args Args) error
//	    Setup(ctx context.Context) error
//	    Run(ctx context.Context) error
//	    Teardown(ctx context.Context) error
//	}
//
// Base даёт пустые Setup и Teardown, поэтому простому воркеру
// достаточно реализовать Validate и Run.
//
// ## Registry
//
// Неизменяемая таблица тип → конструктор, собирается один раз при старте:
//
//	registry := worker.DefaultRegistry(worker.Deps{Pool: pool, Publisher: pub})
//	h, err := registry.Build("print", worker.Args{"message": "hi"}, requestID, false)
//	if errors.Is(err, worker.ErrUnknownType) {
//	    // неизвестный тип
//	}
//
// Build создаёт воркер и сразу вызывает Validate: вызывающий получает
// либо валидный Handle, либо ошибку.
//
// ## Handle
//
// Экземпляр воркера внутри запроса. Хранит флаг Background и для фоновых
// воркеров — канал завершения горутины:
//
//	h.Setup(ctx)
//	h.Start(ctx)        // фоновый — горутина, обычный — inline
//	h.Join(timeout)     // no-op для обычного
//	h.Teardown(ctx)
//
// Ошибки и паники Run изолированы: Handle логирует их и учитывает в метриках,
// вызывающему они не передаются.
//
// # Стандартные воркеры
//
//   - print   — печать message в stdout
//   - log     — запись message в slog
//   - sleep   — ожидание duration_sec/duration_ms
//   - http    — HTTP-запрос
//   - sql     — SQL-запрос в PostgreSQL (pgx)
//   - publish — публикация в RabbitMQ
package worker
