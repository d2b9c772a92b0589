package trigger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Cuckoo/internal/engine"
	"github.com/shaiso/Cuckoo/internal/mq"
	"github.com/shaiso/Cuckoo/internal/scheduler"
	"github.com/shaiso/Cuckoo/internal/worker"
)

// countWorker считает вызовы Run.
type countWorker struct {
	worker.Base
	runs *atomic.Int32
}

func (w *countWorker) Validate(args worker.Args) error {
	_, err := args.RequireString("name")
	return err
}

func (w *countWorker) Run(context.Context) error {
	w.runs.Add(1)
	return nil
}

func newTestLauncher(runs *atomic.Int32) *Launcher {
	reg := worker.NewRegistry(worker.Entry{
		Type: "count",
		New:  func() worker.Worker { return &countWorker{runs: runs} },
	})
	return NewLauncher(reg, scheduler.Config{PollInterval: 10 * time.Millisecond}, nil)
}

func waitAll(t *testing.T, l *Launcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("launcher did not drain: %v", err)
	}
}

func TestLauncher_Launch(t *testing.T) {
	var runs atomic.Int32
	l := newTestLauncher(&runs)

	body := []byte(`{"workers":[{"type":"count","args":{"name":"a"}},{"type":"count","args":{"name":"b"}}]}`)
	s, err := l.Launch(context.Background(), body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitAll(t, l)

	if got := runs.Load(); got != 2 {
		t.Errorf("expected 2 runs, got %d", got)
	}
	if _, ok := l.Get(s.RequestID()); ok {
		t.Error("finished scheduler should not be tracked")
	}
	if l.Active() != 0 {
		t.Errorf("expected 0 active, got %d", l.Active())
	}
}

func TestLauncher_Launch_Invalid(t *testing.T) {
	var runs atomic.Int32
	l := newTestLauncher(&runs)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"unknown type", `{"workers":[{"type":"nope"}]}`},
		{"missing arg", `{"workers":[{"type":"count"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Launch(context.Background(), []byte(tt.body))
			var verr *engine.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	if l.Active() != 0 {
		t.Errorf("rejected requests must not be tracked, got %d", l.Active())
	}
	if runs.Load() != 0 {
		t.Errorf("rejected requests must not run workers, got %d runs", runs.Load())
	}
}

func TestLauncher_Wait_Timeout(t *testing.T) {
	var runs atomic.Int32
	l := newTestLauncher(&runs)

	body := []byte(`{"workers":[{"type":"count","args":{"name":"a"}}],"schedule":{"mode":"delay","delay":0.3}}`)
	if _, err := l.Launch(context.Background(), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if l.Active() != 1 {
		t.Errorf("expected 1 active, got %d", l.Active())
	}

	waitAll(t, l)
}

func TestLauncher_HandleDelivery(t *testing.T) {
	valid := map[string]any{
		"workers": []any{map[string]any{"type": "count", "args": map[string]any{"name": "x"}}},
	}

	tests := []struct {
		name       string
		msg        mq.Message
		wantReject bool
		wantRuns   int32
	}{
		{
			name:     "valid request",
			msg:      mq.Message{ID: "1", Type: mq.MessageTypeTriggerRequest, Payload: valid},
			wantRuns: 1,
		},
		{
			name:       "wrong message type",
			msg:        mq.Message{ID: "2", Type: mq.MessageTypeWorkerMessage, Payload: valid},
			wantReject: true,
		},
		{
			name:       "payload is not an object",
			msg:        mq.Message{ID: "3", Type: mq.MessageTypeTriggerRequest, Payload: "hello"},
			wantReject: true,
		},
		{
			name:       "empty payload",
			msg:        mq.Message{ID: "4", Type: mq.MessageTypeTriggerRequest},
			wantReject: true,
		},
		{
			name: "invalid request",
			msg: mq.Message{ID: "5", Type: mq.MessageTypeTriggerRequest, Payload: map[string]any{
				"workers": []any{map[string]any{"type": "count"}},
			}},
			wantReject: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var runs atomic.Int32
			l := newTestLauncher(&runs)

			err := l.HandleDelivery(context.Background(), &mq.Delivery{Message: tt.msg})
			if tt.wantReject {
				if !errors.Is(err, mq.ErrReject) {
					t.Fatalf("expected ErrReject, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			waitAll(t, l)
			if got := runs.Load(); got != tt.wantRuns {
				t.Errorf("expected %d runs, got %d", tt.wantRuns, got)
			}
		})
	}
}

func TestLauncher_Close(t *testing.T) {
	var runs atomic.Int32
	l := newTestLauncher(&runs)

	body := []byte(`{"workers":[{"type":"count","args":{"name":"a"}}],"schedule":{"mode":"delay","delay":0.05}}`)
	if _, err := l.Launch(context.Background(), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Close()

	if _, err := l.Launch(context.Background(), body); !errors.Is(err, ErrShuttingDown) {
		t.Errorf("expected ErrShuttingDown, got %v", err)
	}

	msg := mq.Message{ID: "1", Type: mq.MessageTypeTriggerRequest, Payload: map[string]any{
		"workers": []any{map[string]any{"type": "count", "args": map[string]any{"name": "b"}}},
	}}
	err := l.HandleDelivery(context.Background(), &mq.Delivery{Message: msg})
	if !errors.Is(err, ErrShuttingDown) || errors.Is(err, mq.ErrReject) {
		t.Errorf("delivery during shutdown should be requeued, got %v", err)
	}
	if mq.Settle(err, false) != mq.OutcomeRequeue {
		t.Errorf("expected requeue outcome, got %v", mq.Settle(err, false))
	}

	waitAll(t, l)
	if got := runs.Load(); got != 1 {
		t.Errorf("request launched before Close should finish, got %d runs", got)
	}
}
