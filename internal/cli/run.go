package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Cuckoo/internal/domain"
	"github.com/shaiso/Cuckoo/internal/repo"
	"github.com/shaiso/Cuckoo/internal/scheduler"
	"github.com/shaiso/Cuckoo/internal/telemetry"
	"github.com/shaiso/Cuckoo/internal/worker"
)

// RunOptions — параметры локального запуска.
type RunOptions struct {
	// LogLevel — уровень логов в stderr.
	LogLevel string

	// DBURL — DSN PostgreSQL; пусто — воркер sql недоступен.
	DBURL string

	// PollInterval — шаг опроса часов для alarm/cron.
	PollInterval time.Duration

	// JoinTimeout — таймаут Join фоновых воркеров.
	JoinTimeout time.Duration
}

// NewRunCmd создаёт команду локального запуска запроса без API.
func NewRunCmd(outputFn func() *Output) *cobra.Command {
	var file string
	opts := RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a request in this process and wait until it is done",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readRequest(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return RunLocal(cmd.Context(), data, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), outputFn())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to request JSON or YAML file, - for stdin (required)")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.DBURL, "db-url", "", "PostgreSQL DSN, enables the sql worker")
	cmd.Flags().DurationVar(&opts.PollInterval, "poll-interval", scheduler.DefaultPollInterval, "Clock poll interval for alarm and cron")
	cmd.Flags().DurationVar(&opts.JoinTimeout, "join-timeout", 0, "Join timeout for background workers (0 — wait forever)")
	cmd.MarkFlagRequired("file")

	return cmd
}

// RunLocal разбирает запрос, запускает его и ждёт завершения.
//
// Воркер print пишет в stdout, логи идут в stderr. Возвращает ошибку,
// если запрос невалиден или хотя бы один воркер завершился с ошибкой.
func RunLocal(ctx context.Context, data []byte, opts RunOptions, stdout, stderr io.Writer, out *Output) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := telemetry.NewLogger(stderr, "text", telemetry.ParseLevel(opts.LogLevel))

	deps := worker.Deps{Stdout: stdout}
	if opts.DBURL != "" {
		pool, err := repo.NewPool(ctx, opts.DBURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		deps.Pool = worker.PgxPool{Pool: pool}
	}

	s, err := scheduler.NewFromJSON(data, worker.DefaultRegistry(deps), scheduler.Config{
		PollInterval: opts.PollInterval,
		JoinTimeout:  opts.JoinTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	if err := s.StartContext(ctx); err != nil {
		return err
	}
	if at := s.FireAt(); s.Mode() != domain.ModeInstant && !at.IsZero() {
		out.Success(fmt.Sprintf("Request %s waiting until %s", s.RequestID(), at.Format(time.RFC3339)))
	}

	if err := s.Wait(ctx); err != nil {
		return fmt.Errorf("interrupted while request %s is %s: %w", s.RequestID(), s.State(), err)
	}

	handles := s.Handles()
	rows := make([][]string, len(handles))
	results := make([]runResult, len(handles))
	failed := 0
	for i, h := range handles {
		result := runResult{Index: h.Index, Type: h.Type, Async: h.Background, Result: "ok"}
		if err := h.Err(); err != nil {
			result.Result = "error"
			result.Error = err.Error()
			failed++
		}
		results[i] = result
		rows[i] = []string{strconv.Itoa(result.Index), result.Type, strconv.FormatBool(result.Async), result.Result, result.Error}
	}

	out.Print([]string{"INDEX", "TYPE", "ASYNC", "RESULT", "ERROR"}, rows, results)
	out.Success(fmt.Sprintf("Request %s done: %d workers, %d failed", s.RequestID(), len(handles), failed))

	if failed > 0 {
		return fmt.Errorf("%d of %d workers failed", failed, len(handles))
	}
	return nil
}

// runResult — итог воркера для вывода.
type runResult struct {
	Index  int    `json:"index"`
	Type   string `json:"type"`
	Async  bool   `json:"async"`
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}
