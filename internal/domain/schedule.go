package domain

import (
	"time"
)

// Mode — режим запуска воркеров.
type Mode string

const (
	// ModeInstant — запуск сразу после setup.
	ModeInstant Mode = "instant"

	// ModeDelay — запуск через N секунд после получения запроса.
	// Время, потраченное на setup, вычитается из задержки.
	ModeDelay Mode = "delay"

	// ModeAlarm — запуск в заданное время по часам (MM/DD/YY HH:MM:SS).
	ModeAlarm Mode = "alarm"

	// ModeCron — ближайшее срабатывание cron-выражения.
	// Вычисляется один раз при разборе запроса, дальше ведёт себя как ModeAlarm.
	ModeCron Mode = "cron"
)

// AlarmLayout — формат времени для ModeAlarm.
const AlarmLayout = "01/02/06 15:04:05"

// ParseMode парсит строку в Mode.
// Второе значение false, если режим неизвестен.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeInstant, ModeDelay, ModeAlarm, ModeCron:
		return Mode(s), true
	default:
		return "", false
	}
}

// String возвращает строковое представление Mode.
func (m Mode) String() string {
	return string(m)
}

// IsWallClock возвращает true, если режим ждёт конкретного момента времени.
func (m Mode) IsWallClock() bool {
	return m == ModeAlarm || m == ModeCron
}

// ScheduleSpec — разобранная политика запуска.
//
// Заполняется парсером запроса; поля, не относящиеся к Mode, нулевые.
type ScheduleSpec struct {
	// Mode — режим запуска. Пустой schedule в запросе даёт ModeInstant.
	Mode Mode `json:"mode"`

	// Delay — задержка для ModeDelay.
	Delay time.Duration `json:"delay,omitempty"`

	// At — момент срабатывания для ModeAlarm и ModeCron.
	At time.Time `json:"time,omitempty"`

	// CronExpr — исходное cron-выражение для ModeCron.
	CronExpr string `json:"cron,omitempty"`

	// Location — часовой пояс, в котором разбирались time/cron.
	Location *time.Location `json:"-"`
}

// InstantSchedule возвращает политику немедленного запуска.
func InstantSchedule() ScheduleSpec {
	return ScheduleSpec{Mode: ModeInstant}
}
