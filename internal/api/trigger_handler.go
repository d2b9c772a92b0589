package api

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Cuckoo/internal/trigger"
)

// maxRequestBody — предел размера тела POST /trigger.
const maxRequestBody = 1 << 20

// Trigger разбирает запрос и запускает воркеры.
// POST /trigger
//
// Ответ отправляется сразу после Start: ожидание, Run и Teardown
// идут в фоне.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		UnsupportedMediaType(w, "invalid Content-Type header, expected application/json")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		BadRequest(w, "failed to read request body")
		return
	}

	s, err := h.launcher.Launch(r.Context(), body)
	if errors.Is(err, trigger.ErrShuttingDown) {
		ServiceUnavailable(w, "server is shutting down")
		return
	}
	if HandleValidationError(w, h.logger, err) {
		return
	}

	Success(w, TriggerFromScheduler(s))
}

// GetRequest возвращает состояние ещё не завершённого запроса.
// GET /requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid request id")
		return
	}

	s, ok := h.launcher.Get(id)
	if !ok {
		NotFound(w, "request not found or already finished")
		return
	}

	Success(w, TriggerFromScheduler(s))
}

// ListWorkers возвращает зарегистрированные типы воркеров.
// GET /workers
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	types := h.launcher.Registry().Types()

	result := make([]WorkerTypeResponse, len(types))
	for i, t := range types {
		result[i] = WorkerTypeResponse{Type: t}
	}

	List(w, result, len(result))
}

// Ping — проверка доступности.
// GET /ping
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	Text(w, http.StatusOK, "OK")
}
