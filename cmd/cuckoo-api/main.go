// Cuckoo API — принимает запросы на запуск воркеров.
//
// API:
//   - Принимает запросы по HTTP (POST /trigger)
//   - Потребляет запросы из очереди triggers.pending, если задан RABBITMQ_URL
//   - Регистрирует воркер sql, если задан DB_URL
//
// При остановке дожидается планировщиков, которые уже запущены.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Cuckoo/internal/api"
	"github.com/shaiso/Cuckoo/internal/config"
	"github.com/shaiso/Cuckoo/internal/mq"
	"github.com/shaiso/Cuckoo/internal/repo"
	"github.com/shaiso/Cuckoo/internal/scheduler"
	"github.com/shaiso/Cuckoo/internal/telemetry"
	"github.com/shaiso/Cuckoo/internal/trigger"
	"github.com/shaiso/Cuckoo/internal/worker"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting cuckoo-api")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps := worker.Deps{}

	// PostgreSQL (опционально)
	var pool *pgxpool.Pool
	if cfg.DBURL != "" {
		pool, err = repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		deps.Pool = worker.PgxPool{Pool: pool}
		logger.Info("connected to database")
	}

	// RabbitMQ (опционально)
	var mqConn *mq.Connection
	if cfg.RabbitMQURL != "" {
		mqConn, err = mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, publish worker and AMQP intake disabled", "error", err)
			mqConn = nil
		} else {
			defer mqConn.Close()
			logger.Info("RabbitMQ connected")

			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			} else {
				logger.Debug("topology declared", "topology", mq.DefaultTopology.String())
			}
			deps.Publisher = mq.NewPublisher(mqConn, logger)
		}
	}

	registry := worker.DefaultRegistry(deps)
	logger.Info("worker registry ready", "types", registry.Types())

	launcher := trigger.NewLauncher(registry, scheduler.Config{
		PollInterval:     cfg.AlarmPollInterval,
		JoinTimeout:      cfg.JoinTimeout,
		SkipOnSetupError: cfg.SkipOnSetupError,
		Logger:           logger,
	}, logger)

	// Потребитель triggers.pending; consumerDone закрывается после выхода из Start
	consumerDone := make(chan struct{})
	if mqConn == nil {
		close(consumerDone)
	} else {
		consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueTriggersPending),
			Handler:  launcher.HandleDelivery,
			Prefetch: 10,
		})
		go func() {
			defer close(consumerDone)
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("consumer stopped", "error", err)
			}
		}()
	}

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Launcher:      launcher,
		WebhookSecret: cfg.WebhookSecret,
		TriggerRate:   cfg.TriggerRateLimit,
		Logger:        logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := repo.Ping(r.Context(), pool); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s active=%d", time.Since(startTime), launcher.Active())
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		logger.Error("failed to listen", "addr", server.Addr, "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Под systemd (Type=notify) сообщаем о готовности; без NOTIFY_SOCKET — no-op
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("sd_notify failed", "error", err)
	} else if sent {
		logger.Debug("notified systemd")
	}

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down", "active_requests", launcher.Active())
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		logger.Warn("sd_notify failed", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Новые запросы больше не принимаются; сообщения, пришедшие сейчас, вернутся в очередь
	launcher.Close()
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		logger.Warn("consumer did not stop in time")
	}

	// Ждём уже запущенные запросы
	if err := launcher.Wait(shutdownCtx); err != nil {
		logger.Warn("requests still in progress", "active", launcher.Active(), "error", err)
	}

	logger.Info("stopped")
}
