package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
)

// Context — контекст для рендеринга аргументов воркера.
//
// Используется в Go templates для доступа к данным:
//   - {{ .RequestID }}
//   - {{ .Type }}, {{ .Index }}
//   - {{ .ReceivedAt.Format "15:04:05" }}
//   - {{ .Env.VAR_NAME }}
type Context struct {
	// RequestID — идентификатор запроса.
	RequestID string `json:"request_id"`

	// Index — позиция воркера в запросе.
	Index int `json:"index"`

	// Type — тип воркера.
	Type string `json:"type"`

	// ReceivedAt — время получения запроса.
	ReceivedAt time.Time `json:"received_at"`

	// Env — переменные окружения.
	Env map[string]string `json:"env"`
}

// NewContext создаёт контекст для воркера запроса.
func NewContext(requestID uuid.UUID, receivedAt time.Time) *Context {
	return &Context{
		RequestID:  requestID.String(),
		ReceivedAt: receivedAt,
		Env:        make(map[string]string),
	}
}

// ForWorker возвращает копию контекста для воркера с индексом index.
func (c *Context) ForWorker(index int, workerType string) *Context {
	cp := *c
	cp.Index = index
	cp.Type = workerType
	return &cp
}

// LoadEnv копирует в контекст переменные окружения процесса с указанным префиксом.
func (c *Context) LoadEnv(prefix string) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		c.Env[key] = value
	}
}

// templateFuncs — функции, доступные в шаблонах аргументов.
var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
	"default": func(def, val any) any {
		if isEmpty(val) {
			return def
		}
		return val
	},

	"join":      func(sep string, items []string) string { return strings.Join(items, sep) },
	"split":     func(sep, s string) []string { return strings.Split(s, sep) },
	"contains":  strings.Contains,
	"hasPrefix": strings.HasPrefix,
	"lower":     strings.ToLower,
	"upper":     strings.ToUpper,
	"trim":      strings.TrimSpace,
	"replace":   strings.ReplaceAll,

	"rfc3339": func(t time.Time) string { return t.Format(time.RFC3339) },
	"unix":    func(t time.Time) int64 { return t.Unix() },
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// Render рендерит строковый шаблон с контекстом.
// Строка без "{{" возвращается как есть.
//
//	{{ .RequestID }}
//	{{ default "localhost" .Env.CUCKOO_HOST }}
//	{{ if eq .Type "print" }}...{{ end }}
func Render(tmpl string, ctx *Context) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return buf.String(), nil
}

// RenderValue рендерит строки внутри value, обходя map и slice.
// Остальные значения (числа, bool, nil) возвращаются без изменений.
func RenderValue(value any, ctx *Context) (any, error) {
	switch v := value.(type) {
	case string:
		return Render(v, ctx)
	case map[string]any:
		return renderMap(v, ctx, RenderValue)
	case map[string]string:
		return renderMap(v, ctx, Render)
	case []any:
		return renderSlice(v, ctx, RenderValue)
	case []string:
		return renderSlice(v, ctx, Render)
	default:
		return value, nil
	}
}

// renderMap возвращает новую map; ошибка содержит путь до ключа.
func renderMap[V any](m map[string]V, ctx *Context, render func(V, *Context) (V, error)) (map[string]V, error) {
	result := make(map[string]V, len(m))
	for key, val := range m {
		rendered, err := render(val, ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		result[key] = rendered
	}
	return result, nil
}

func renderSlice[V any](s []V, ctx *Context, render func(V, *Context) (V, error)) ([]V, error) {
	result := make([]V, len(s))
	for i, val := range s {
		rendered, err := render(val, ctx)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		result[i] = rendered
	}
	return result, nil
}

// RenderConfig рендерит аргументы воркера. nil даёт пустую map.
func RenderConfig(config map[string]any, ctx *Context) (map[string]any, error) {
	if config == nil {
		return make(map[string]any), nil
	}
	return renderMap(config, ctx, RenderValue)
}
