package worker

import (
	"context"

	"github.com/google/uuid"
)

// Worker — единица работы с фиксированным жизненным циклом.
//
// Порядок вызовов, который гарантирует scheduler:
//
//	Validate → Setup → (ожидание) → Run → Teardown
//
// Validate вызывается при разборе запроса, до запуска каких-либо горутин.
// Teardown вызывается всегда, даже если Setup или Run вернули ошибку,
// поэтому реализация должна быть защитной.
//
// Реализации: PrintWorker, LogWorker, SleepWorker, HTTPWorker, SQLWorker, PublishWorker.
type Worker interface {
	// Validate проверяет аргументы и запоминает их.
	// Не должен иметь побочных эффектов.
	Validate(args Args) error

	// Setup захватывает ресурсы перед ожиданием.
	Setup(ctx context.Context) error

	// Run выполняет полезную работу.
	Run(ctx context.Context) error

	// Teardown освобождает ресурсы после Run.
	Teardown(ctx context.Context) error
}

// Base — пустые Setup и Teardown для встраивания.
//
//	type PrintWorker struct {
//	    worker.Base
//	    ...
//	}
type Base struct{}

// Setup ничего не делает.
func (Base) Setup(context.Context) error { return nil }

// Teardown ничего не делает.
func (Base) Teardown(context.Context) error { return nil }

// RequestAware — воркер, которому нужен идентификатор запроса.
// Registry.Build передаёт его после успешного Validate.
type RequestAware interface {
	SetRequestID(id uuid.UUID)
}
