package worker

import (
	"context"
	"fmt"
	"time"
)

// TypeSleep — тип воркера ожидания.
const TypeSleep = "sleep"

// SleepWorker — ожидает указанное время.
//
// Полезен как фоновый воркер для проверки перекрытия и как «пауза»
// между обычными воркерами.
//
// Args:
//
//	{"duration_sec": 10}   // или
//	{"duration_ms": 500}
type SleepWorker struct {
	Base

	duration time.Duration
}

// Validate извлекает длительность.
func (w *SleepWorker) Validate(args Args) error {
	sec, ok, err := args.Number("duration_sec")
	if err != nil {
		return err
	}
	if ok {
		if sec < 0 {
			return fmt.Errorf("'duration_sec' must be non-negative")
		}
		w.duration = time.Duration(sec * float64(time.Second))
		return nil
	}

	ms, ok, err := args.Number("duration_ms")
	if err != nil {
		return err
	}
	if ok {
		if ms < 0 {
			return fmt.Errorf("'duration_ms' must be non-negative")
		}
		w.duration = time.Duration(ms * float64(time.Millisecond))
		return nil
	}

	return fmt.Errorf("'duration_sec' or 'duration_ms' argument required")
}

// Run ждёт. Отмена контекста прерывает ожидание.
func (w *SleepWorker) Run(ctx context.Context) error {
	timer := time.NewTimer(w.duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Duration возвращает длительность после Validate.
func (w *SleepWorker) Duration() time.Duration {
	return w.duration
}
