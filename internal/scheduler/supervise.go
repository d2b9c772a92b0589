package scheduler

import (
	"context"
	"time"

	"github.com/shaiso/Cuckoo/internal/domain"
	"github.com/shaiso/Cuckoo/internal/telemetry"
	"github.com/shaiso/Cuckoo/internal/worker"
)

// supervise проводит воркеры через жизненный цикл.
//
// 1. Setup всех воркеров по порядку
// 2. Ожидание по режиму (delay учитывает время setup)
// 3. Run по порядку: фоновые — в горутине, обычные — inline
// 4. Join и Teardown каждого воркера в порядке запуска;
// после таймаута Join Teardown откладывается до конца Run
func (s *Scheduler) supervise(ctx context.Context) {
	defer close(s.done)
	defer telemetry.SchedulersActive.Dec()

	ctx = telemetry.WithLogger(ctx, s.logger)

	// Время начала фиксируется до setup, чтобы setup вычитался из задержки
	begin := s.cfg.Now()
	s.setState(domain.StateWaiting)

	setupFailed := make([]bool, len(s.handles))
	for i, h := range s.handles {
		if err := h.Setup(ctx); err != nil {
			setupFailed[i] = true
		}
	}

	s.wait(begin)

	s.setState(domain.StateRunning)
	for i, h := range s.handles {
		if setupFailed[i] && s.cfg.SkipOnSetupError {
			telemetry.WorkerRunsTotal.WithLabelValues(h.Type, telemetry.ResultSkipped).Inc()
			h.Logger().Warn("skipping worker run after setup failure")
			continue
		}
		h.Start(ctx)
	}

	s.setState(domain.StateDraining)
	var failed, timedOut int
	for _, h := range s.handles {
		if !h.Join(s.cfg.JoinTimeout) {
			timedOut++
			failed++
			go teardownWhenFinished(ctx, h)
			continue
		}
		_ = h.Teardown(ctx)
		if err := h.Err(); err != nil {
			failed++
		}
	}

	s.setState(domain.StateDone)
	s.logger.Info("scheduler done",
		"workers", len(s.handles),
		"failed", failed,
		"join_timeouts", timedOut,
		"elapsed", s.cfg.Now().Sub(begin),
	)
}

// teardownWhenFinished вызывает Teardown после завершения фонового Run.
func teardownWhenFinished(ctx context.Context, h *worker.Handle) {
	h.Join(0)
	h.Logger().Debug("late teardown after join timeout")
	_ = h.Teardown(ctx)
}

// wait блокирует супервизор до момента запуска.
func (s *Scheduler) wait(begin time.Time) {
	sched := s.request.Schedule

	switch sched.Mode {
	case domain.ModeDelay:
		left := sched.Delay - s.cfg.Now().Sub(begin)
		if left > 0 {
			s.logger.Debug("waiting for delay", "left", left)
			time.Sleep(left)
		}

	case domain.ModeAlarm, domain.ModeCron:
		s.logger.Debug("waiting for alarm", "at", sched.At, "poll_interval", s.cfg.PollInterval)
		for s.cfg.Now().Before(sched.At) {
			time.Sleep(s.cfg.PollInterval)
		}
	}
}
