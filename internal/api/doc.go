// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (launcher, logger, секрет вебхука, лимит)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (logging, recovery, rate limit)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - trigger_handler.go — POST /trigger, GET /requests/{id}, GET /workers
//   - webhook_handler.go — GET /webhook (CRC-проверка)
//
// Ошибки валидации запроса возвращаются как 400 с полями field и worker,
// чтобы клиент видел, какой элемент запроса отклонён.
package api
