package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cuckoo/internal/scheduler"
)

// Статусы запроса в ответе POST /trigger.
const (
	StatusLaunched = "launched"
)

// TriggerResponse — ответ на запуск воркеров.
type TriggerResponse struct {
	RequestID uuid.UUID  `json:"request_id"`
	Status    string     `json:"status"`
	State     string     `json:"state"`
	Mode      string     `json:"mode"`
	Workers   []string   `json:"workers"`
	FireAt    *time.Time `json:"fire_at,omitempty"`
}

// TriggerFromScheduler конвертирует scheduler.Scheduler в TriggerResponse.
func TriggerFromScheduler(s *scheduler.Scheduler) TriggerResponse {
	handles := s.Handles()
	types := make([]string, len(handles))
	for i, h := range handles {
		types[i] = h.Type
	}

	resp := TriggerResponse{
		RequestID: s.RequestID(),
		Status:    StatusLaunched,
		State:     s.State().String(),
		Mode:      s.Mode().String(),
		Workers:   types,
	}
	if at := s.FireAt(); !at.IsZero() {
		resp.FireAt = &at
	}
	return resp
}

// WorkerTypeResponse — зарегистрированный тип воркера.
type WorkerTypeResponse struct {
	Type string `json:"type"`
}

// WebhookCRCResponse — ответ на CRC-проверку вебхука.
type WebhookCRCResponse struct {
	ResponseToken string `json:"response_token"`
}
