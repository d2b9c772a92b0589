package api

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/shaiso/Cuckoo/internal/trigger"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	launcher      *trigger.Launcher
	webhookSecret string
	triggerLimit  *rate.Limiter
	logger        *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Launcher *trigger.Launcher

	// WebhookSecret — ключ HMAC для GET /webhook. Пусто — 503.
	WebhookSecret string

	// TriggerRate — допустимое число POST /trigger в секунду. 0 — без ограничения.
	TriggerRate float64

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		launcher:      cfg.Launcher,
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
	if cfg.TriggerRate > 0 {
		h.triggerLimit = rate.NewLimiter(rate.Limit(cfg.TriggerRate), max(1, int(cfg.TriggerRate)))
	}
	return h
}
