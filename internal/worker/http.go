package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TypeHTTP — тип HTTP воркера.
const TypeHTTP = "http"

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 1 << 20 // 1 MB
)

// HTTPWorker — выполняет HTTP-запрос.
//
// Args:
//   - method (string): HTTP-метод. Default: GET
//   - url (string): URL для запроса (обязательно, http или https)
//   - headers (map[string]any): HTTP-заголовки
//   - body (any): тело запроса (сериализуется в JSON)
//   - timeout_sec (number): таймаут запроса в секундах. Default: 30
//
// Ответ со статусом >= 400 считается ошибкой (ErrHTTPStatus).
type HTTPWorker struct {
	Base

	client  *http.Client
	method  string
	url     string
	headers map[string]string
	body    []byte
	timeout time.Duration

	// status — код последнего ответа.
	status int
}

// NewHTTPWorker создаёт HTTPWorker (nil client — http.DefaultClient).
func NewHTTPWorker(client *http.Client) *HTTPWorker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPWorker{client: client}
}

// Validate проверяет url, method, body и timeout_sec.
func (w *HTTPWorker) Validate(args Args) error {
	rawURL, err := args.RequireString("url")
	if err != nil {
		return err
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid 'url' %q: expected absolute http(s) url", rawURL)
	}
	w.url = rawURL

	w.method = strings.ToUpper(args.String("method", http.MethodGet))
	switch w.method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodHead, http.MethodOptions:
	default:
		return fmt.Errorf("unsupported 'method' %q", w.method)
	}

	w.headers = args.StringMap("headers")

	if args.Has("body") {
		body, err := json.Marshal(args["body"])
		if err != nil {
			return fmt.Errorf("marshal 'body': %w", err)
		}
		w.body = body
	}

	w.timeout = defaultHTTPTimeout
	sec, ok, err := args.Number("timeout_sec")
	if err != nil {
		return err
	}
	if ok && sec > 0 {
		w.timeout = time.Duration(sec * float64(time.Second))
	}

	return nil
}

// Run выполняет HTTP-запрос.
func (w *HTTPWorker) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var bodyReader io.Reader
	if w.body != nil {
		bodyReader = bytes.NewReader(w.body)
	}

	req, err := http.NewRequestWithContext(ctx, w.method, w.url, bodyReader)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrHTTPRequest, err)
	}

	for key, val := range w.headers {
		req.Header.Set(key, val)
	}

	// Content-Type по умолчанию для запросов с body
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHTTPRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrHTTPRequest, err)
	}

	w.status = resp.StatusCode

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrHTTPStatus, resp.StatusCode, truncate(string(respBody), 200))
	}

	return nil
}

// Status возвращает код последнего ответа (0 до Run).
func (w *HTTPWorker) Status() int {
	return w.status
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
