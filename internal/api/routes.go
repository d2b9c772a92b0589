package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Запуск воркеров
	mux.Handle("POST /trigger", chain(RateLimit(h.triggerLimit)(http.HandlerFunc(h.Trigger))))
	mux.Handle("GET /requests/{id}", chain(http.HandlerFunc(h.GetRequest)))
	mux.Handle("GET /workers", chain(http.HandlerFunc(h.ListWorkers)))

	// Служебные
	mux.Handle("GET /ping", chain(http.HandlerFunc(h.Ping)))
	mux.Handle("GET /webhook", chain(http.HandlerFunc(h.WebhookCRC)))
}
