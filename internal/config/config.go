// Package config загружает конфигурацию процесса из переменных окружения.
//
// Перед чтением переменных подгружается файл .env (если он есть),
// уже заданные переменные окружения при этом не перезаписываются.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config — конфигурация cuckoo-api.
type Config struct {
	// APIPort — порт HTTP API (API_PORT, default: 8080).
	APIPort string

	// DBURL — DSN PostgreSQL (DB_URL). Пусто — воркер sql отключён.
	DBURL string

	// RabbitMQURL — URL RabbitMQ (RABBITMQ_URL). Пусто — publish и AMQP intake отключены.
	RabbitMQURL string

	// WebhookSecret — ключ HMAC для CRC-проверки вебхука (WEBHOOK_SECRET).
	WebhookSecret string

	// AlarmPollInterval — шаг опроса часов (ALARM_POLL_INTERVAL, default: 500ms).
	AlarmPollInterval time.Duration

	// JoinTimeout — таймаут Join фоновых воркеров (JOIN_TIMEOUT, default: 0 — без ограничения).
	JoinTimeout time.Duration

	// SkipOnSetupError — не запускать воркер после ошибки Setup (SKIP_ON_SETUP_ERROR).
	SkipOnSetupError bool

	// TriggerRateLimit — POST /trigger в секунду (TRIGGER_RATE_LIMIT, default: 0 — без ограничения).
	TriggerRateLimit float64
}

// Load читает .env (если есть) и переменные окружения.
func Load() (Config, error) {
	return LoadFiles(".env")
}

// LoadFiles читает указанные .env-файлы и переменные окружения.
// Отсутствующие файлы пропускаются.
func LoadFiles(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv читает конфигурацию из переменных окружения.
func FromEnv() (Config, error) {
	cfg := Config{
		APIPort:       getenv("API_PORT", "8080"),
		DBURL:         os.Getenv("DB_URL"),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
	}

	var err error
	if cfg.AlarmPollInterval, err = durationEnv("ALARM_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.JoinTimeout, err = durationEnv("JOIN_TIMEOUT", 0); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("SKIP_ON_SETUP_ERROR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse SKIP_ON_SETUP_ERROR: %w", err)
		}
		cfg.SkipOnSetupError = b
	}
	if v := os.Getenv("TRIGGER_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse TRIGGER_RATE_LIMIT: %w", err)
		}
		if f < 0 {
			return Config{}, fmt.Errorf("TRIGGER_RATE_LIMIT must not be negative")
		}
		cfg.TriggerRateLimit = f
	}

	return cfg, nil
}

// Addr возвращает адрес для http.Server.
func (c Config) Addr() string {
	return ":" + c.APIPort
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
