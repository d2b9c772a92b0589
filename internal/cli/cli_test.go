package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// fakeAPI — минимальная имитация Cuckoo API.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /trigger", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if _, ok := req["workers"]; !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"code":"VALIDATION_ERROR","message":"workers: requires 'workers' field","field":"workers"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"request_id":"abc","status":"launched","state":"READY","mode":"instant","workers":["print"]}}`)
	})
	mux.HandleFunc("GET /requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.PathValue("id") != "abc" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"request not found or already finished"}}`)
			return
		}
		io.WriteString(w, `{"data":{"request_id":"abc","status":"launched","state":"WAITING","mode":"delay","workers":["print"],"fire_at":"2024-03-01T12:00:00Z"}}`)
	})
	mux.HandleFunc("GET /workers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[{"type":"log"},{"type":"print"}],"total":2}`)
	})
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "OK")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := fakeAPI(t)
	client := NewClient(srv.URL + "/")

	resp, err := client.Trigger([]byte(`{"workers":[{"type":"print","args":{"message":"hi"}}]}`))
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if resp.RequestID != "abc" || resp.Status != "launched" || resp.Mode != "instant" {
		t.Errorf("unexpected trigger response: %+v", resp)
	}

	if _, err := client.Trigger([]byte(`{}`)); err == nil || !strings.HasPrefix(err.Error(), "VALIDATION_ERROR: ") {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := client.Trigger([]byte(`{`)); err == nil {
		t.Error("expected error for invalid JSON")
	}

	status, err := client.GetRequest("abc")
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if status.State != "WAITING" || status.FireAt == "" {
		t.Errorf("unexpected status: %+v", status)
	}
	if _, err := client.GetRequest("zzz"); err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}

	types, err := client.ListWorkers()
	if err != nil {
		t.Fatalf("list workers: %v", err)
	}
	if len(types) != 2 || types[1].Type != "print" {
		t.Errorf("unexpected types: %v", types)
	}

	pong, err := client.Ping()
	if err != nil || pong != "OK" {
		t.Errorf("expected OK, got %q %v", pong, err)
	}
}

// execute выполняет команду под корневой командой cuckoo.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) error {
	t.Helper()
	root := &cobra.Command{Use: "cuckoo", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(cmd)

	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	return root.ExecuteContext(context.Background())
}

func TestCommands(t *testing.T) {
	srv := fakeAPI(t)
	clientFn := func() *Client { return NewClient(srv.URL) }

	var stdout, stderr bytes.Buffer
	outputFn := func() *Output { return NewOutputTo(&stdout, &stderr, false) }

	tests := []struct {
		name       string
		cmd        *cobra.Command
		stdin      string
		args       []string
		wantStdout string
		wantStderr string
	}{
		{
			name:       "ping",
			cmd:        NewPingCmd(clientFn, outputFn),
			args:       []string{"ping"},
			wantStderr: "OK",
		},
		{
			name:       "workers",
			cmd:        NewWorkersCmd(clientFn, outputFn),
			args:       []string{"workers"},
			wantStdout: "print",
		},
		{
			name:       "trigger from stdin",
			cmd:        NewTriggerCmd(clientFn, outputFn),
			stdin:      `{"workers":[{"type":"print","args":{"message":"hi"}}]}`,
			args:       []string{"trigger", "-f", "-"},
			wantStdout: "abc",
			wantStderr: "Request launched: abc",
		},
		{
			name:       "status",
			cmd:        NewStatusCmd(clientFn, outputFn),
			args:       []string{"status", "abc"},
			wantStdout: "State:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout.Reset()
			stderr.Reset()

			if err := execute(t, tt.cmd, tt.stdin, tt.args...); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout %q does not contain %q", stdout.String(), tt.wantStdout)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr %q does not contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestTriggerCmd_RequiresFile(t *testing.T) {
	cmd := NewTriggerCmd(func() *Client { return NewClient("http://127.0.0.1:0") }, func() *Output {
		return NewOutputTo(io.Discard, io.Discard, false)
	})
	if err := execute(t, cmd, "", "trigger"); err == nil {
		t.Error("expected error without --file")
	}
}

func TestReadRequest(t *testing.T) {
	data, err := readRequest("-", strings.NewReader(`{"workers":[]}`))
	if err != nil || string(data) != `{"workers":[]}` {
		t.Errorf("unexpected result: %q %v", data, err)
	}

	if _, err := readRequest("-", strings.NewReader("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := readRequest("/nonexistent/request.json", nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadRequest_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "request.yaml")
	content := `workers:
  - type: print
    args:
      message: hi
  - type: sleep
    async: true
    args:
      duration_ms: 10
schedule:
  mode: delay
  delay: 1.5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write request: %v", err)
	}

	data, err := readRequest(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var req struct {
		Workers []struct {
			Type  string         `json:"type"`
			Async bool           `json:"async"`
			Args  map[string]any `json:"args"`
		} `json:"workers"`
		Schedule struct {
			Mode  string  `json:"mode"`
			Delay float64 `json:"delay"`
		} `json:"schedule"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("converted request is not JSON: %v", err)
	}
	if len(req.Workers) != 2 || req.Workers[0].Args["message"] != "hi" || !req.Workers[1].Async {
		t.Errorf("unexpected workers: %+v", req.Workers)
	}
	if req.Schedule.Mode != "delay" || req.Schedule.Delay != 1.5 {
		t.Errorf("unexpected schedule: %+v", req.Schedule)
	}

	bad := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(bad, []byte("workers: [\n"), 0o600); err != nil {
		t.Fatalf("write request: %v", err)
	}
	if _, err := readRequest(bad, nil); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestStringKeys(t *testing.T) {
	in := map[any]any{1: "one", "nested": []any{map[any]any{true: "yes"}}}

	out, err := json.Marshal(stringKeys(in))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"1":"one","nested":[{"true":"yes"}]}` {
		t.Errorf("unexpected JSON: %s", out)
	}
}

func TestRunLocal(t *testing.T) {
	var stdout, logs, table, msgs bytes.Buffer
	out := NewOutputTo(&table, &msgs, false)

	err := RunLocal(context.Background(),
		[]byte(`{"workers":[{"type":"print","args":{"message":"hi"}},{"type":"sleep","async":true,"args":{"duration_ms":10}}]}`),
		RunOptions{}, &stdout, &logs, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stdout.String() != "hi\n" {
		t.Errorf("expected print output, got %q", stdout.String())
	}
	if !strings.Contains(table.String(), "print") || !strings.Contains(table.String(), "sleep") {
		t.Errorf("expected result table, got %q", table.String())
	}
	if !strings.Contains(msgs.String(), "2 workers, 0 failed") {
		t.Errorf("expected summary, got %q", msgs.String())
	}
}

func TestRunLocal_Failures(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	out := NewOutputTo(io.Discard, io.Discard, true)

	err := RunLocal(context.Background(),
		[]byte(`{"workers":[{"type":"http","args":{"url":"`+failing.URL+`"}}]}`),
		RunOptions{}, io.Discard, io.Discard, out)
	if err == nil || !strings.Contains(err.Error(), "1 of 1 workers failed") {
		t.Errorf("expected worker failure, got %v", err)
	}

	err = RunLocal(context.Background(), []byte(`{"workers":[{"type":"nope"}]}`), RunOptions{}, io.Discard, io.Discard, out)
	if err == nil || !strings.Contains(err.Error(), "unknown worker type") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestOutput(t *testing.T) {
	var w bytes.Buffer
	out := NewOutputTo(&w, io.Discard, false)

	out.Record([]Field{{"State", "WAITING"}, {"Fire at", ""}}, nil)
	lines := strings.Split(strings.TrimSpace(w.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "State:") || !strings.HasSuffix(lines[0], "WAITING") {
		t.Errorf("unexpected record: %q", w.String())
	}
	if !strings.HasSuffix(lines[1], " -") {
		t.Errorf("empty value should be printed as -, got %q", lines[1])
	}

	w.Reset()
	out.Table([]string{"INDEX", "TYPE", "ERROR"}, [][]string{{"0", "print"}, {"1", "http", "bad gateway"}})
	lines = strings.Split(strings.TrimSpace(w.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "INDEX") {
		t.Fatalf("unexpected table: %q", w.String())
	}
	if fields := strings.Fields(lines[1]); len(fields) != 3 || fields[2] != "-" {
		t.Errorf("short row should be padded with -, got %q", lines[1])
	}

	w.Reset()
	NewOutputTo(&w, io.Discard, true).Record([]Field{{"State", "DONE"}}, map[string]string{"state": "DONE"})
	if strings.TrimSpace(w.String()) != "{\n  \"state\": \"DONE\"\n}" {
		t.Errorf("unexpected json: %q", w.String())
	}
}
