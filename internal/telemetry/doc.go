// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// Все компоненты используют единый формат логирования;
// cuckoo-api экспортирует метрики на /metrics endpoint.
package telemetry
