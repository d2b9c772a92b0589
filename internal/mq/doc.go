// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect с backoff)
//   - topology.go   — декларативная топология (exchanges, queues, DLQ)
//   - publisher.go  — публикация сообщений (воркер publish, CLI)
//   - consumer.go   — потребление запросов на запуск, ack/requeue/DLQ
//
// Типы сообщений:
//   - trigger.request — запрос на запуск в том же формате, что POST /trigger
//   - worker.message  — сообщение, опубликованное воркером publish
//
// Exchanges:
//   - cuckoo.triggers — запросы на запуск
//   - cuckoo.events   — сообщения воркеров (topic)
//   - cuckoo.dlq      — dead letter queue
package mq
