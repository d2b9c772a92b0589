package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shaiso/Cuckoo/internal/engine"
	"github.com/shaiso/Cuckoo/internal/mq"
	"github.com/shaiso/Cuckoo/internal/scheduler"
	"github.com/shaiso/Cuckoo/internal/telemetry"
	"github.com/shaiso/Cuckoo/internal/worker"
)

// ErrShuttingDown — Launcher закрыт и новые запросы не принимает.
var ErrShuttingDown = errors.New("launcher is shutting down")

// Launcher запускает планировщики для входящих запросов.
type Launcher struct {
	registry *worker.Registry
	cfg      scheduler.Config
	logger   *slog.Logger

	mu      sync.Mutex
	active  map[uuid.UUID]*scheduler.Scheduler
	closing bool
	wg      sync.WaitGroup
}

// NewLauncher создаёт Launcher.
func NewLauncher(registry *worker.Registry, cfg scheduler.Config, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	return &Launcher{
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		active:   make(map[uuid.UUID]*scheduler.Scheduler),
	}
}

// Registry возвращает реестр воркеров.
func (l *Launcher) Registry() *worker.Registry {
	return l.registry
}

// Launch разбирает тело запроса и запускает планировщик.
// Ошибки разбора возвращаются как *engine.ValidationError.
func (l *Launcher) Launch(ctx context.Context, data []byte) (*scheduler.Scheduler, error) {
	s, err := scheduler.NewFromJSON(data, l.registry, l.cfg)
	if err != nil {
		return nil, err
	}
	if err := l.start(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// LaunchRaw запускает планировщик для уже декодированного запроса.
func (l *Launcher) LaunchRaw(ctx context.Context, raw map[string]any) (*scheduler.Scheduler, error) {
	s, err := scheduler.New(raw, l.registry, l.cfg)
	if err != nil {
		return nil, err
	}
	if err := l.start(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (l *Launcher) start(ctx context.Context, s *scheduler.Scheduler) error {
	id := s.RequestID()

	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		return ErrShuttingDown
	}
	l.active[id] = s
	l.wg.Add(1)
	l.mu.Unlock()

	ctx = telemetry.WithLogger(ctx, telemetry.WithRequestID(l.logger, id.String()))
	if err := s.StartContext(ctx); err != nil {
		l.forget(id)
		return fmt.Errorf("start scheduler %s: %w", id, err)
	}

	go func() {
		<-s.Done()
		l.forget(id)
	}()
	return nil
}

func (l *Launcher) forget(id uuid.UUID) {
	l.mu.Lock()
	delete(l.active, id)
	l.mu.Unlock()
	l.wg.Done()
}

// Get возвращает активный планировщик по ID запроса.
func (l *Launcher) Get(id uuid.UUID) (*scheduler.Scheduler, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.active[id]
	return s, ok
}

// Active возвращает число незавершённых планировщиков.
func (l *Launcher) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}

// Close запрещает новые запуски: Launch и HandleDelivery возвращают
// ErrShuttingDown. Уже запущенные планировщики продолжают работу.
func (l *Launcher) Close() {
	l.mu.Lock()
	l.closing = true
	l.mu.Unlock()
}

// Wait ждёт завершения всех запущенных планировщиков или отмены ctx.
// Новые запуски во время Wait должны быть запрещены через Close.
func (l *Launcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleDelivery обрабатывает запрос на запуск из очереди triggers.pending.
func (l *Launcher) HandleDelivery(ctx context.Context, delivery *mq.Delivery) error {
	if delivery.Message.Type != mq.MessageTypeTriggerRequest {
		return fmt.Errorf("%w: unexpected message type %q", mq.ErrReject, delivery.Message.Type)
	}

	raw, err := mq.ParsePayload[map[string]any](&delivery.Message)
	if err != nil {
		l.logger.Error("failed to parse trigger.request payload", "error", err)
		return fmt.Errorf("%w: %v", mq.ErrReject, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: empty payload", mq.ErrReject)
	}

	s, err := l.LaunchRaw(ctx, raw)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			l.logger.Warn("trigger request rejected",
				"message_id", delivery.Message.ID,
				"error", err,
			)
			return fmt.Errorf("%w: %v", mq.ErrReject, err)
		}
		return err
	}

	l.logger.Info("trigger request launched",
		"message_id", delivery.Message.ID,
		"request_id", s.RequestID(),
		"mode", s.Mode(),
	)
	return nil
}
