package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaiso/Cuckoo/internal/scheduler"
	"github.com/shaiso/Cuckoo/internal/trigger"
	"github.com/shaiso/Cuckoo/internal/worker"
)

type testServer struct {
	mux      *http.ServeMux
	launcher *trigger.Launcher
	stdout   *bytes.Buffer
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stdout := &bytes.Buffer{}
	reg := worker.DefaultRegistry(worker.Deps{Stdout: stdout})
	launcher := trigger.NewLauncher(reg, scheduler.Config{PollInterval: 10 * time.Millisecond}, logger)

	h := NewHandler(Config{
		Launcher:      launcher,
		WebhookSecret: secret,
		Logger:        logger,
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		launcher.Wait(ctx)
	})

	return &testServer{mux: mux, launcher: launcher, stdout: stdout}
}

func (s *testServer) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

func TestTrigger_Success(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(http.MethodPost, "/trigger", "application/json",
		`{"workers":[{"type":"print","args":{"message":"hi"}}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data TriggerResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Status != StatusLaunched {
		t.Errorf("expected status launched, got %s", resp.Data.Status)
	}
	if resp.Data.Mode != "instant" {
		t.Errorf("expected mode instant, got %s", resp.Data.Mode)
	}
	if len(resp.Data.Workers) != 1 || resp.Data.Workers[0] != "print" {
		t.Errorf("expected [print], got %v", resp.Data.Workers)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.launcher.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := srv.stdout.String(); got != "hi\n" {
		t.Errorf("expected %q on stdout, got %q", "hi\n", got)
	}
}

func TestTrigger_ContentType(t *testing.T) {
	srv := newTestServer(t, "")

	tests := []struct {
		name        string
		contentType string
		wantStatus  int
	}{
		{"missing", "", http.StatusBadRequest},
		{"text", "text/plain", http.StatusBadRequest},
		{"json with charset", "application/json; charset=utf-8", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, "/trigger", tt.contentType,
				`{"workers":[{"type":"print","args":{"message":"x"}}]}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusBadRequest {
				if detail := decodeError(t, rec); detail.Code != ErrCodeUnsupportedMedia {
					t.Errorf("expected %s, got %s", ErrCodeUnsupportedMedia, detail.Code)
				}
			}
		})
	}
}

func TestTrigger_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, "")

	tests := []struct {
		name       string
		body       string
		wantField  string
		wantWorker int // -1 — ошибка уровня запроса
	}{
		{"invalid json", `{"workers":`, "", -1},
		{"missing workers", `{}`, "workers", -1},
		{"empty workers", `{"workers":[]}`, "workers", -1},
		{"unknown type", `{"workers":[{"type":"print","args":{"message":"a"}},{"type":"nope"}]}`, "type", 1},
		{"missing arg", `{"workers":[{"type":"print"}]}`, "args", 0},
		{"unknown mode", `{"workers":[{"type":"print","args":{"message":"a"}}],"schedule":{"mode":"later"}}`, "schedule.mode", -1},
		{"bad alarm time", `{"workers":[{"type":"print","args":{"message":"a"}}],"schedule":{"mode":"alarm","time":"tomorrow"}}`, "schedule.time", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, "/trigger", "application/json", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}

			detail := decodeError(t, rec)
			if detail.Code != ErrCodeValidation {
				t.Errorf("expected %s, got %s", ErrCodeValidation, detail.Code)
			}
			if detail.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, detail.Field)
			}
			switch {
			case tt.wantWorker < 0 && detail.Worker != nil:
				t.Errorf("expected no worker index, got %d", *detail.Worker)
			case tt.wantWorker >= 0 && (detail.Worker == nil || *detail.Worker != tt.wantWorker):
				t.Errorf("expected worker %d, got %v", tt.wantWorker, detail.Worker)
			}
		})
	}

	if srv.stdout.Len() != 0 {
		t.Errorf("rejected requests must not run workers, got %q", srv.stdout.String())
	}
}

func TestGetRequest(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(http.MethodPost, "/trigger", "application/json",
		`{"workers":[{"type":"print","args":{"message":"later"}}],"schedule":{"mode":"delay","delay":0.2}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data TriggerResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Data.FireAt == nil {
		t.Error("expected fire_at for delay mode")
	}

	rec = srv.do(http.MethodGet, "/requests/"+created.Data.RequestID.String(), "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(http.MethodGet, "/requests/00000000-0000-0000-0000-000000000000", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = srv.do(http.MethodGet, "/requests/not-a-uuid", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestPing(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(http.MethodGet, "/ping", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("expected OK, got %q", rec.Body.String())
	}
}

func TestListWorkers(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(http.MethodGet, "/workers", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []WorkerTypeResponse `json:"data"`
		Total int                  `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	want := []string{"http", "log", "print", "sleep"}
	if resp.Total != len(want) || len(resp.Data) != len(want) {
		t.Fatalf("expected %d types, got %+v", len(want), resp)
	}
	for i, w := range want {
		if resp.Data[i].Type != w {
			t.Errorf("types[%d]: expected %s, got %s", i, w, resp.Data[i].Type)
		}
	}
}

func TestWebhookCRC(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		target     string
		wantStatus int
		wantToken  string
	}{
		{
			name:       "known vector",
			secret:     "key",
			target:     "/webhook?crc_token=The+quick+brown+fox+jumps+over+the+lazy+dog",
			wantStatus: http.StatusOK,
			wantToken:  "sha256=97yD9DBThCSxMpjmqm+xQ+9NWaFJRhdZl0edvC0aPNg=",
		},
		{
			name:       "missing token",
			secret:     "key",
			target:     "/webhook",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "secret not configured",
			secret:     "",
			target:     "/webhook?crc_token=abc",
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.secret)

			rec := srv.do(http.MethodGet, tt.target, "", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantToken == "" {
				return
			}

			var resp WebhookCRCResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.ResponseToken != tt.wantToken {
				t.Errorf("expected %s, got %s", tt.wantToken, resp.ResponseToken)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Chain(Recovery(logger), Logging(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { Text(w, http.StatusOK, "OK") })

	// burst 2, пополнение раз в час — третий запрос отклоняется
	handler := RateLimit(rate.NewLimiter(rate.Every(time.Hour), 2))(ok)

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trigger", nil))
		codes[i] = rec.Code
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", codes[2])
	}

	rec := httptest.NewRecorder()
	RateLimit(nil)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trigger", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("nil limiter should pass, got %d", rec.Code)
	}
}

func TestTrigger_RateLimited(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	launcher := trigger.NewLauncher(worker.DefaultRegistry(worker.Deps{Stdout: io.Discard}), scheduler.Config{}, logger)
	h := NewHandler(Config{Launcher: launcher, TriggerRate: 1, Logger: logger})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	s := &testServer{mux: mux, launcher: launcher}

	body := `{"workers":[{"type":"print","args":{"message":"hi"}}]}`
	if rec := s.do(http.MethodPost, "/trigger", "application/json", body); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec := s.do(http.MethodPost, "/trigger", "application/json", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != ErrCodeRateLimited {
		t.Errorf("expected RATE_LIMITED, got %s", e.Code)
	}

	// другие маршруты не ограничены
	if rec := s.do(http.MethodGet, "/ping", "", ""); rec.Code != http.StatusOK {
		t.Errorf("expected ping 200, got %d", rec.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	launcher.Wait(ctx)
}

func TestTrigger_ShuttingDown(t *testing.T) {
	srv := newTestServer(t, "")
	srv.launcher.Close()

	rec := srv.do(http.MethodPost, "/trigger", "application/json",
		`{"workers":[{"type":"print","args":{"message":"hi"}}]}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body)
	}
	if e := decodeError(t, rec); e.Code != ErrCodeServiceUnavailable {
		t.Errorf("expected %s, got %s", ErrCodeServiceUnavailable, e.Code)
	}
	if srv.stdout.Len() != 0 {
		t.Errorf("nothing should run after Close, got %q", srv.stdout.String())
	}
}
