// Package engine разбирает запрос на запуск.
//
// Включает:
//   - parser.go   — разбор JSON-запроса в domain.Request
//   - cron.go     — вычисление ближайшего срабатывания для режима cron
//   - template.go — рендеринг Go templates в аргументах воркеров с "template": true
//
// Все ошибки разбора возвращаются как *ValidationError с указанием поля,
// чтобы API мог отдать вызывающему понятную причину отказа.
package engine
