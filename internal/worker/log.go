package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/Cuckoo/internal/telemetry"
)

// TypeLog — тип воркера записи в лог.
const TypeLog = "log"

// LogWorker — пишет сообщение в структурированный лог процесса.
//
// Args:
//   - message (string, обязательно)
//   - level (string): debug, info, warn, error. Default: info
//   - fields (object): дополнительные атрибуты записи
type LogWorker struct {
	Base

	message string
	level   slog.Level
	fields  map[string]any
}

// Validate проверяет message и level.
func (w *LogWorker) Validate(args Args) error {
	msg, err := args.RequireString("message")
	if err != nil {
		return err
	}
	w.message = msg

	switch level := strings.ToLower(args.String("level", "info")); level {
	case "debug":
		w.level = slog.LevelDebug
	case "info":
		w.level = slog.LevelInfo
	case "warn", "warning":
		w.level = slog.LevelWarn
	case "error":
		w.level = slog.LevelError
	default:
		return fmt.Errorf("unknown 'level' %q", level)
	}

	w.fields = args.Map("fields")
	return nil
}

// Run пишет запись через логгер из контекста.
func (w *LogWorker) Run(ctx context.Context) error {
	attrs := make([]any, 0, len(w.fields)*2)
	for k, v := range w.fields {
		attrs = append(attrs, k, v)
	}
	telemetry.FromContext(ctx).Log(ctx, w.level, w.message, attrs...)
	return nil
}
