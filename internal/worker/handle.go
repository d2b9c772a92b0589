package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cuckoo/internal/telemetry"
)

// Handle — экземпляр воркера внутри одного запроса.
//
// Handle владеет аргументами, флагом Background и (для фоновых воркеров)
// каналом завершения горутины. Join вызывает только планировщик,
// запустивший этот Handle.
type Handle struct {
	// Type — тип воркера из реестра.
	Type string

	// Index — позиция в запросе.
	Index int

	// Background — Run выполняется в отдельной горутине.
	Background bool

	// RequestID — идентификатор запроса для логов.
	RequestID uuid.UUID

	// Args — провалидированные аргументы.
	Args Args

	impl   Worker
	logger *slog.Logger

	// done закрывается фоновой горутиной после записи runErr.
	done   chan struct{}
	runErr error
	ran    bool
}

// newHandle создаёт Handle для уже провалидированного воркера.
func newHandle(workerType string, impl Worker, args Args, requestID uuid.UUID, background bool) *Handle {
	return &Handle{
		Type:       workerType,
		Background: background,
		RequestID:  requestID,
		Args:       args,
		impl:       impl,
		logger:     telemetry.WithRequestID(slog.Default(), requestID.String()).With("worker_type", workerType),
	}
}

// Worker возвращает реализацию воркера.
func (h *Handle) Worker() Worker {
	return h.impl
}

// SetLogger задаёт логгер воркера. Вызывается до Start.
func (h *Handle) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// Logger возвращает логгер воркера.
func (h *Handle) Logger() *slog.Logger {
	return h.logger
}

// Setup вызывает Setup воркера на текущей горутине.
// Ошибка логируется и возвращается; паника превращается в ErrPanic.
func (h *Handle) Setup(ctx context.Context) error {
	err := h.call(ctx, "setup", h.impl.Setup)
	if err != nil {
		telemetry.WorkerLifecycleErrors.WithLabelValues(h.Type, "setup").Inc()
		h.logger.Error("worker setup failed", "error", err)
	}
	return err
}

// Start выполняет Run воркера.
//
// Для фонового воркера запускает горутину и сразу возвращается.
// Для обычного — выполняет Run на текущей горутине и блокируется до завершения.
func (h *Handle) Start(ctx context.Context) {
	if !h.Background {
		h.logger.Info("starting worker")
		h.runErr = h.run(ctx)
		h.ran = true
		return
	}

	h.logger.Info("starting background worker")
	h.done = make(chan struct{})
	go func() {
		defer close(h.done)
		h.runErr = h.run(ctx)
	}()
}

// run выполняет Run с изоляцией ошибок и метриками.
func (h *Handle) run(ctx context.Context) error {
	start := time.Now()
	err := h.call(ctx, "run", h.impl.Run)
	elapsed := time.Since(start)

	telemetry.WorkerRunDuration.WithLabelValues(h.Type).Observe(elapsed.Seconds())
	if err != nil {
		telemetry.WorkerRunsTotal.WithLabelValues(h.Type, telemetry.ResultError).Inc()
		h.logger.Error("worker run failed", "error", err, "duration", elapsed)
		return err
	}

	telemetry.WorkerRunsTotal.WithLabelValues(h.Type, telemetry.ResultOK).Inc()
	h.logger.Debug("worker run completed", "duration", elapsed)
	return nil
}

// Join ждёт завершения фоновой горутины.
//
// timeout <= 0 — ждать без ограничения. Возвращает false, если таймаут истёк;
// горутина при этом продолжает работать. Для обычного воркера — no-op.
func (h *Handle) Join(timeout time.Duration) bool {
	if h.done == nil {
		return true
	}

	h.logger.Debug("joining worker")

	if timeout <= 0 {
		<-h.done
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return true
	case <-timer.C:
		h.logger.Warn("worker join timed out", "timeout", timeout)
		return false
	}
}

// Teardown вызывает Teardown воркера.
// Вызывается только после завершения Run, независимо от его результата.
func (h *Handle) Teardown(ctx context.Context) error {
	err := h.call(ctx, "teardown", h.impl.Teardown)
	if err != nil {
		telemetry.WorkerLifecycleErrors.WithLabelValues(h.Type, "teardown").Inc()
		h.logger.Error("worker teardown failed", "error", err)
	}
	return err
}

// Err возвращает результат Run.
//
// Для фонового воркера, который ещё работает, возвращает ErrStillRunning.
// До Start возвращает nil.
func (h *Handle) Err() error {
	if h.done == nil {
		return h.runErr
	}
	select {
	case <-h.done:
		return h.runErr
	default:
		return ErrStillRunning
	}
}

// Finished проверяет, завершился ли Run.
func (h *Handle) Finished() bool {
	if h.done == nil {
		return h.ran
	}
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// call вызывает этап жизненного цикла, перехватывая панику.
func (h *Handle) call(ctx context.Context, phase string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("worker panic recovered",
				"phase", phase,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%w: %s: %v", ErrPanic, phase, r)
		}
	}()

	return fn(telemetry.WithLogger(ctx, h.logger))
}
