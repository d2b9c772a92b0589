package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения label result.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultRejected = "rejected"
	ResultSkipped  = "skipped"
	ResultRequeued = "requeued"
)

var (
	// SchedulersTotal — созданные планировщики по режиму и результату разбора.
	SchedulersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cuckoo_schedulers_total",
		Help: "Schedulers constructed, by schedule mode and parse result",
	}, []string{"mode", "result"})

	// SchedulersActive — планировщики между Start и Done.
	SchedulersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cuckoo_schedulers_active",
		Help: "Schedulers whose supervisor goroutine is still running",
	})

	// WorkerRunsTotal — завершённые Run по типу воркера и результату.
	WorkerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cuckoo_worker_runs_total",
		Help: "Worker runs, by worker type and result",
	}, []string{"type", "result"})

	// WorkerRunDuration — длительность Run.
	WorkerRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cuckoo_worker_run_duration_seconds",
		Help:    "Duration of worker runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// WorkerLifecycleErrors — ошибки Setup/Teardown.
	WorkerLifecycleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cuckoo_worker_lifecycle_errors_total",
		Help: "Worker setup and teardown failures, by worker type and phase",
	}, []string{"type", "phase"})

	// HTTPRequestsTotal — обработанные HTTP-запросы.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cuckoo_http_requests_total",
		Help: "HTTP requests handled by cuckoo-api",
	}, []string{"method", "status"})

	// AMQPDeliveriesTotal — обработанные сообщения по очереди и исходу (ok, requeued, rejected).
	AMQPDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cuckoo_amqp_deliveries_total",
		Help: "AMQP deliveries handled, by queue and outcome",
	}, []string{"queue", "result"})

	// AMQPReconnectsTotal — успешные переподключения к RabbitMQ.
	AMQPReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuckoo_amqp_reconnects_total",
		Help: "Successful reconnects to RabbitMQ",
	})
)
