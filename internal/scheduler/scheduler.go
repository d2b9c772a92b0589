package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cuckoo/internal/domain"
	"github.com/shaiso/Cuckoo/internal/engine"
	"github.com/shaiso/Cuckoo/internal/telemetry"
	"github.com/shaiso/Cuckoo/internal/worker"
)

// Default configuration values.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultEnvPrefix    = "CUCKOO_"
)

// Config — конфигурация Scheduler.
type Config struct {
	// PollInterval — шаг опроса часов в режимах alarm/cron (default: 500ms).
	PollInterval time.Duration

	// JoinTimeout — таймаут Join фонового воркера; 0 — ждать без ограничения.
	// По истечении таймаута горутина воркера продолжает работать,
	// а Teardown вызывается после её завершения.
	JoinTimeout time.Duration

	// SkipOnSetupError — не вызывать Run у воркера, чей Setup вернул ошибку.
	// Teardown вызывается в любом случае.
	SkipOnSetupError bool

	// EnvPrefix — переменные окружения с этим префиксом доступны
	// в шаблонах аргументов как {{ .Env.NAME }} (default: CUCKOO_).
	EnvPrefix string

	// Logger (default: slog.Default()).
	Logger *slog.Logger

	// Now — источник времени (default: time.Now).
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.JoinTimeout < 0 {
		c.JoinTimeout = 0
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = DefaultEnvPrefix
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Scheduler — запуск воркеров одного запроса.
//
// Scheduler создаётся в состоянии READY; все ошибки разбора
// возвращаются из конструктора. Список воркеров после создания
// трогает только горутина-супервизор.
type Scheduler struct {
	request *domain.Request
	handles []*worker.Handle
	cfg     Config
	logger  *slog.Logger

	mu          sync.RWMutex
	state       domain.State
	started     bool
	startedAt   time.Time
	triggeredAt time.Time

	done chan struct{}
}

// New разбирает запрос, уже декодированный из JSON, и строит воркеры.
func New(raw map[string]any, registry *worker.Registry, cfg Config) (*Scheduler, error) {
	cfg = cfg.withDefaults()

	req, err := engine.ParseRequest(raw, cfg.Now())
	if err != nil {
		telemetry.SchedulersTotal.WithLabelValues("unknown", telemetry.ResultRejected).Inc()
		return nil, err
	}
	return FromRequest(req, registry, cfg)
}

// NewFromJSON разбирает тело запроса и строит воркеры.
func NewFromJSON(data []byte, registry *worker.Registry, cfg Config) (*Scheduler, error) {
	cfg = cfg.withDefaults()

	req, err := engine.ParseJSON(data, cfg.Now())
	if err != nil {
		telemetry.SchedulersTotal.WithLabelValues("unknown", telemetry.ResultRejected).Inc()
		return nil, err
	}
	return FromRequest(req, registry, cfg)
}

// FromRequest строит и валидирует воркеры уже разобранного запроса.
//
// Построение атомарно: если хотя бы один воркер невалиден,
// возвращается ошибка и ни один воркер не запускается.
func FromRequest(req *domain.Request, registry *worker.Registry, cfg Config) (*Scheduler, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if req == nil || len(req.Workers) == 0 {
		return nil, engine.NewValidationError("workers", "at least one worker required", engine.ErrEmptyWorkers)
	}

	cfg = cfg.withDefaults()
	logger := telemetry.WithRequestID(cfg.Logger, req.ID.String())

	handles, err := buildHandles(req, registry, cfg, logger)
	if err != nil {
		telemetry.SchedulersTotal.WithLabelValues(req.Schedule.Mode.String(), telemetry.ResultRejected).Inc()
		logger.Warn("request rejected", "error", err)
		return nil, err
	}

	telemetry.SchedulersTotal.WithLabelValues(req.Schedule.Mode.String(), telemetry.ResultOK).Inc()

	return &Scheduler{
		request: req,
		handles: handles,
		cfg:     cfg,
		logger:  logger,
		state:   domain.StateReady,
		done:    make(chan struct{}),
	}, nil
}

// buildHandles строит воркеры в порядке объявления.
// Аргументы воркеров с флагом Template предварительно рендерятся.
func buildHandles(req *domain.Request, registry *worker.Registry, cfg Config, logger *slog.Logger) ([]*worker.Handle, error) {
	var tmplCtx *engine.Context

	handles := make([]*worker.Handle, 0, len(req.Workers))
	for i, spec := range req.Workers {
		if !registry.Has(spec.Type) {
			return nil, engine.NewWorkerError(i, "type",
				fmt.Sprintf("unknown worker type '%s'", spec.Type), worker.ErrUnknownType)
		}

		args := spec.Args
		if args == nil {
			args = make(map[string]any)
		}
		if spec.Template {
			if tmplCtx == nil {
				tmplCtx = engine.NewContext(req.ID, req.ReceivedAt)
				tmplCtx.LoadEnv(cfg.EnvPrefix)
			}
			rendered, err := engine.RenderConfig(spec.Args, tmplCtx.ForWorker(i, spec.Type))
			if err != nil {
				return nil, engine.NewWorkerError(i, "args", err.Error(), err)
			}
			args = rendered
		}

		h, err := registry.Build(spec.Type, args, req.ID, spec.Background)
		if err != nil {
			field := "args"
			if errors.Is(err, worker.ErrUnknownType) {
				field = "type"
			}
			return nil, engine.NewWorkerError(i, field, fmt.Sprintf("error building '%s': %v", spec.Type, err), err)
		}

		h.Index = i
		h.SetLogger(telemetry.WithWorker(logger, spec.Type, i))
		handles = append(handles, h)
	}
	return handles, nil
}

// Start запускает супервизор и сразу возвращается.
func (s *Scheduler) Start() error {
	return s.StartContext(context.Background())
}

// StartContext запускает супервизор с контекстом ctx.
//
// Отмена ctx на супервизор не влияет: у запуска нет отмены.
// Значения контекста (например, логгер) сохраняются.
func (s *Scheduler) StartContext(ctx context.Context) error {
	s.mu.Lock()
	if s.started || s.state != domain.StateReady {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.startedAt = s.cfg.Now()
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	telemetry.SchedulersActive.Inc()
	go s.supervise(ctx)

	s.logger.Info("scheduler started",
		"mode", s.request.Schedule.Mode,
		"workers", len(s.handles),
	)
	return nil
}

// State возвращает текущее состояние.
func (s *Scheduler) State() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// setState переводит планировщик в новое состояние.
func (s *Scheduler) setState(to domain.State) {
	s.mu.Lock()
	from := s.state
	if !from.CanTransition(to) {
		s.mu.Unlock()
		s.logger.Error("invalid state transition", "from", from, "to", to)
		return
	}
	s.state = to
	if to == domain.StateRunning {
		s.triggeredAt = s.cfg.Now()
	}
	s.mu.Unlock()

	s.logger.Debug("scheduler state changed", "from", from, "to", to)
}

// Done возвращает канал, который закрывается при переходе в DONE.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Wait блокируется до DONE или отмены ctx.
func (s *Scheduler) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestID возвращает идентификатор запроса.
func (s *Scheduler) RequestID() uuid.UUID {
	return s.request.ID
}

// Mode возвращает режим запуска.
func (s *Scheduler) Mode() domain.Mode {
	return s.request.Schedule.Mode
}

// FireAt возвращает ожидаемый момент запуска.
//
// Для alarm/cron — заданное время, для delay — время старта плюс задержка
// (нулевое до Start), для instant — время старта.
func (s *Scheduler) FireAt() time.Time {
	sched := s.request.Schedule
	if sched.Mode.IsWallClock() {
		return sched.At
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startedAt.IsZero() {
		return time.Time{}
	}
	if sched.Mode == domain.ModeDelay {
		return s.startedAt.Add(sched.Delay)
	}
	return s.startedAt
}

// StartedAt возвращает время вызова Start.
func (s *Scheduler) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// TriggeredAt возвращает время перехода в RUNNING (нулевое до него).
func (s *Scheduler) TriggeredAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.triggeredAt
}

// Handles возвращает воркеры в порядке объявления.
// Безопасно читать результаты только после Done.
func (s *Scheduler) Handles() []*worker.Handle {
	out := make([]*worker.Handle, len(s.handles))
	copy(out, s.handles)
	return out
}
