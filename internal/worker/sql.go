package worker

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Cuckoo/internal/telemetry"
)

// TypeSQL — тип воркера выполнения SQL.
const TypeSQL = "sql"

// SQLConn — соединение, захваченное из пула.
type SQLConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Release()
}

// SQLPool — пул соединений.
type SQLPool interface {
	Acquire(ctx context.Context) (SQLConn, error)
}

// PgxPool адаптирует *pgxpool.Pool к SQLPool.
type PgxPool struct {
	Pool *pgxpool.Pool
}

// Acquire захватывает соединение из пула.
func (p PgxPool) Acquire(ctx context.Context) (SQLConn, error) {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// SQLWorker — выполняет один SQL-запрос в PostgreSQL.
//
// Setup захватывает соединение из пула, чтобы проблемы с БД
// обнаружились до ожидания, Teardown возвращает его в пул.
//
// Args:
//   - query (string, обязательно): SQL с плейсхолдерами $1, $2, ...
//   - params (list): значения плейсхолдеров
type SQLWorker struct {
	pool   SQLPool
	query  string
	params []any

	conn SQLConn
	tag  pgconn.CommandTag
}

// NewSQLWorker создаёт SQLWorker для пула.
func NewSQLWorker(pool SQLPool) *SQLWorker {
	return &SQLWorker{pool: pool}
}

// Validate проверяет query и params.
func (w *SQLWorker) Validate(args Args) error {
	query, err := args.RequireString("query")
	if err != nil {
		return err
	}
	params, err := args.List("params")
	if err != nil {
		return err
	}
	w.query = query
	w.params = params
	return nil
}

// Setup захватывает соединение.
func (w *SQLWorker) Setup(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	w.conn = conn
	return nil
}

// Run выполняет запрос на захваченном соединении.
func (w *SQLWorker) Run(ctx context.Context) error {
	if w.conn == nil {
		return ErrNotSetUp
	}

	tag, err := w.conn.Exec(ctx, w.query, w.params...)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	w.tag = tag

	telemetry.FromContext(ctx).Info("sql executed",
		"command", tag.String(),
		"rows_affected", tag.RowsAffected(),
	)
	return nil
}

// Teardown возвращает соединение в пул.
func (w *SQLWorker) Teardown(context.Context) error {
	if w.conn != nil {
		w.conn.Release()
		w.conn = nil
	}
	return nil
}

// RowsAffected возвращает число затронутых строк после Run.
func (w *SQLWorker) RowsAffected() int64 {
	return w.tag.RowsAffected()
}
