package worker

import (
	"encoding/json"
	"fmt"
)

// Args — аргументы воркера из запроса.
type Args map[string]any

// Has проверяет наличие ключа с не-nil значением.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// String извлекает строковое значение.
func (a Args) String(key, defaultVal string) string {
	if v, ok := a[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

// RequireString извлекает обязательное строковое значение.
func (a Args) RequireString(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", fmt.Errorf("'%s' argument required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected '%s' as a string, got %T", key, v)
	}
	if s == "" {
		return "", fmt.Errorf("'%s' argument must not be empty", key)
	}
	return s, nil
}

// Number извлекает числовое значение.
// Второе значение false, если ключа нет; ошибка — если значение не число.
func (a Args) Number(key string) (float64, bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, true, fmt.Errorf("expected '%s' as a number: %w", key, err)
		}
		return f, true, nil
	default:
		return 0, true, fmt.Errorf("expected '%s' as a number, got %T", key, v)
	}
}

// Bool извлекает булево значение.
func (a Args) Bool(key string, defaultVal bool) bool {
	if v, ok := a[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// Map извлекает вложенный объект.
func (a Args) Map(key string) map[string]any {
	if v, ok := a[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// StringMap извлекает map[string]string, отбрасывая нестроковые значения.
func (a Args) StringMap(key string) map[string]string {
	if v, ok := a[key]; ok {
		switch m := v.(type) {
		case map[string]string:
			return m
		case map[string]any:
			result := make(map[string]string, len(m))
			for k, val := range m {
				if s, ok := val.(string); ok {
					result[k] = s
				}
			}
			return result
		}
	}
	return nil
}

// List извлекает список значений.
func (a Args) List(key string) ([]any, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected '%s' as a list, got %T", key, v)
	}
	return list, nil
}
