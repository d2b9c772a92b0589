package worker

import (
	"context"
	"fmt"
	"io"
	"os"
)

// TypePrint — тип воркера печати.
const TypePrint = "print"

// PrintWorker — печатает сообщение в stdout.
//
// Args:
//   - message (any, обязательно): печатается через fmt.Sprint
type PrintWorker struct {
	Base

	out     io.Writer
	message string
}

// NewPrintWorker создаёт PrintWorker, пишущий в out (nil — os.Stdout).
func NewPrintWorker(out io.Writer) *PrintWorker {
	if out == nil {
		out = os.Stdout
	}
	return &PrintWorker{out: out}
}

// Validate требует аргумент message.
func (w *PrintWorker) Validate(args Args) error {
	if !args.Has("message") {
		return fmt.Errorf("'message' argument required")
	}
	if s, ok := args["message"].(string); ok {
		w.message = s
	} else {
		w.message = fmt.Sprint(args["message"])
	}
	return nil
}

// Run печатает сообщение.
func (w *PrintWorker) Run(context.Context) error {
	_, err := fmt.Fprintln(w.out, w.message)
	return err
}
