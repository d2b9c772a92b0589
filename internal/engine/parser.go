package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cuckoo/internal/domain"
)

// Ключи запроса.
const (
	keyWorkers    = "workers"
	keyType       = "type"
	keyAsync      = "async"
	keyTemplate   = "template"
	keyArgs       = "args"
	keySchedule   = "schedule"
	keyMode       = "mode"
	keyDelay      = "delay"
	keyTime       = "time"
	keyCron       = "cron"
	keyTimezone   = "timezone"
	fieldSchedule = "schedule."
)

// ParseJSON разбирает тело запроса.
//
// now — момент получения запроса; от него считаются cron-срабатывания.
func ParseJSON(data []byte, now time.Time) (*domain.Request, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewValidationError("", fmt.Sprintf("request body is not a json object: %v", err), ErrInvalidJSON)
	}
	if raw == nil {
		return nil, NewValidationError("", "request body is not a json object", ErrInvalidJSON)
	}
	return ParseRequest(raw, now)
}

// ParseRequest разбирает запрос, уже декодированный в map.
//
// Проверяет:
//   - Наличие непустого списка workers
//   - Типы полей type/async/args каждого воркера
//   - Режим schedule и обязательные для него поля
//
// Существование типа воркера в реестре здесь не проверяется —
// это делает scheduler при построении воркеров.
func ParseRequest(raw map[string]any, now time.Time) (*domain.Request, error) {
	workers, err := parseWorkers(raw)
	if err != nil {
		return nil, err
	}

	schedule, err := ParseSchedule(raw[keySchedule], now)
	if err != nil {
		return nil, err
	}

	return &domain.Request{
		ID:         uuid.New(),
		Workers:    workers,
		Schedule:   schedule,
		ReceivedAt: now,
	}, nil
}

// parseWorkers разбирает список воркеров.
func parseWorkers(raw map[string]any) ([]domain.WorkerSpec, error) {
	value, ok := raw[keyWorkers]
	if !ok || value == nil {
		return nil, NewValidationError(keyWorkers, "requires 'workers' field", ErrMissingField)
	}

	list, ok := value.([]any)
	if !ok {
		return nil, NewValidationError(keyWorkers, "expected 'workers' as a list", ErrInvalidType)
	}
	if len(list) == 0 {
		return nil, NewValidationError(keyWorkers, "at least one worker required", ErrEmptyWorkers)
	}

	specs := make([]domain.WorkerSpec, 0, len(list))
	for i, item := range list {
		spec, err := parseWorker(i, item)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// parseWorker разбирает один элемент списка workers.
func parseWorker(index int, item any) (domain.WorkerSpec, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return domain.WorkerSpec{}, NewWorkerError(index, "", "expected worker as an object", ErrInvalidType)
	}

	typeVal, ok := obj[keyType]
	if !ok || typeVal == nil {
		return domain.WorkerSpec{}, NewWorkerError(index, keyType, "requires 'type' field", ErrMissingField)
	}
	name, ok := typeVal.(string)
	if !ok || name == "" {
		return domain.WorkerSpec{}, NewWorkerError(index, keyType, "expected 'type' as a non-empty string", ErrInvalidType)
	}

	background := false
	if v, ok := obj[keyAsync]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return domain.WorkerSpec{}, NewWorkerError(index, keyAsync, "expected 'async' as a bool", ErrInvalidType)
		}
		background = b
	}

	templated := false
	if v, ok := obj[keyTemplate]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return domain.WorkerSpec{}, NewWorkerError(index, keyTemplate, "expected 'template' as a bool", ErrInvalidType)
		}
		templated = b
	}

	args := make(map[string]any)
	if v, ok := obj[keyArgs]; ok && v != nil {
		m, ok := v.(map[string]any)
		if !ok {
			return domain.WorkerSpec{}, NewWorkerError(index, keyArgs, "expected 'args' as an object", ErrInvalidType)
		}
		args = m
	}

	return domain.WorkerSpec{
		Type:       name,
		Background: background,
		Template:   templated,
		Args:       args,
	}, nil
}

// ParseSchedule разбирает поле schedule.
// nil означает немедленный запуск.
func ParseSchedule(value any, now time.Time) (domain.ScheduleSpec, error) {
	if value == nil {
		return domain.InstantSchedule(), nil
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return domain.ScheduleSpec{}, NewValidationError(keySchedule, "expected 'schedule' as an object", ErrInvalidType)
	}

	modeVal, ok := obj[keyMode]
	if !ok || modeVal == nil {
		return domain.ScheduleSpec{}, NewValidationError(fieldSchedule+keyMode, "'schedule' requires 'mode' field", ErrMissingField)
	}
	modeStr, ok := modeVal.(string)
	if !ok {
		return domain.ScheduleSpec{}, NewValidationError(fieldSchedule+keyMode, "expected 'mode' as a string", ErrInvalidType)
	}
	mode, ok := domain.ParseMode(modeStr)
	if !ok {
		return domain.ScheduleSpec{}, NewValidationError(fieldSchedule+keyMode,
			fmt.Sprintf("unrecognized value for 'mode': %s", modeStr), ErrUnknownMode)
	}

	spec := domain.ScheduleSpec{Mode: mode}

	switch mode {
	case domain.ModeDelay:
		delay, err := parseDelay(obj)
		if err != nil {
			return domain.ScheduleSpec{}, err
		}
		spec.Delay = delay

	case domain.ModeAlarm:
		loc, err := parseLocation(obj)
		if err != nil {
			return domain.ScheduleSpec{}, err
		}
		at, err := parseAlarmTime(obj, loc)
		if err != nil {
			return domain.ScheduleSpec{}, err
		}
		spec.At = at
		spec.Location = loc

	case domain.ModeCron:
		loc, err := parseLocation(obj)
		if err != nil {
			return domain.ScheduleSpec{}, err
		}
		expr, ok := obj[keyCron].(string)
		if !ok || expr == "" {
			return domain.ScheduleSpec{}, NewValidationError(fieldSchedule+keyCron,
				"'schedule' requires 'cron' field when in the specified mode", ErrMissingField)
		}
		if err := ValidateCronExpr(expr); err != nil {
			return domain.ScheduleSpec{}, NewValidationError(fieldSchedule+keyCron, err.Error(), ErrInvalidCron)
		}
		at, err := NextCronFire(expr, now.In(loc))
		if err != nil {
			return domain.ScheduleSpec{}, NewValidationError(fieldSchedule+keyCron, err.Error(), ErrCronNeverFires)
		}
		spec.At = at
		spec.CronExpr = expr
		spec.Location = loc
	}

	return spec, nil
}

// maxDelaySeconds — наибольшая задержка, представимая в time.Duration.
const maxDelaySeconds = float64(math.MaxInt64) / float64(time.Second)

// parseDelay извлекает schedule.delay в секундах.
func parseDelay(obj map[string]any) (time.Duration, error) {
	value, ok := obj[keyDelay]
	if !ok || value == nil {
		return 0, NewValidationError(fieldSchedule+keyDelay,
			"'schedule' requires 'delay' field when in the specified mode", ErrMissingField)
	}

	var seconds float64
	switch v := value.(type) {
	case float64:
		seconds = v
	case float32:
		seconds = float64(v)
	case int:
		seconds = float64(v)
	case int64:
		seconds = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, NewValidationError(fieldSchedule+keyDelay, "expected 'delay' as a number", ErrInvalidType)
		}
		seconds = f
	default:
		return 0, NewValidationError(fieldSchedule+keyDelay, "expected 'delay' as a number", ErrInvalidType)
	}

	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, NewValidationError(fieldSchedule+keyDelay,
			fmt.Sprintf("'delay' must be a non-negative number of seconds, got %v", seconds), ErrInvalidDelay)
	}

	if seconds >= maxDelaySeconds {
		return 0, NewValidationError(fieldSchedule+keyDelay,
			fmt.Sprintf("'delay' must be less than %.0f seconds, got %v", maxDelaySeconds, seconds), ErrInvalidDelay)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// parseAlarmTime извлекает schedule.time в формате MM/DD/YY HH:MM:SS.
func parseAlarmTime(obj map[string]any, loc *time.Location) (time.Time, error) {
	value, ok := obj[keyTime]
	if !ok || value == nil {
		return time.Time{}, NewValidationError(fieldSchedule+keyTime,
			"'schedule' requires 'time' field when in the specified mode", ErrMissingField)
	}
	s, ok := value.(string)
	if !ok {
		return time.Time{}, NewValidationError(fieldSchedule+keyTime, "expected 'time' as a string", ErrInvalidType)
	}

	at, err := time.ParseInLocation(domain.AlarmLayout, s, loc)
	if err != nil {
		return time.Time{}, NewValidationError(fieldSchedule+keyTime,
			fmt.Sprintf("failed to parse '%s' as MM/DD/YY HH:MM:SS", s), ErrInvalidTime)
	}
	return at, nil
}

// parseLocation извлекает schedule.timezone.
// Без timezone используется локальный часовой пояс процесса.
func parseLocation(obj map[string]any) (*time.Location, error) {
	value, ok := obj[keyTimezone]
	if !ok || value == nil {
		return time.Local, nil
	}
	name, ok := value.(string)
	if !ok {
		return nil, NewValidationError(fieldSchedule+keyTimezone, "expected 'timezone' as a string", ErrInvalidType)
	}
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, NewValidationError(fieldSchedule+keyTimezone,
			fmt.Sprintf("unknown timezone %q", name), ErrInvalidTimezone)
	}
	return loc, nil
}
