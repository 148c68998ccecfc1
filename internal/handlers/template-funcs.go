package handlers

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"secdash/internal/browser"
	"secdash/internal/locale"
	"secdash/internal/records"
)

// translator is what templates need from a locale resolver.
type translator interface {
	T(key string) string
	Tf(key string, pairs ...any) string
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"add": func(args ...int) int {
			sum := 0
			for _, v := range args {
				sum += v
			}
			return sum
		},
		"sub": func(a, b int) int { return a - b },
		"mul": func(a, b int) int { return a * b },
		"div": func(a, b int) int {
			if b == 0 {
				return 0
			}
			return a / b
		},
		"t": func(tr translator, key string) string {
			if tr == nil {
				return key
			}
			return tr.T(key)
		},
		"tf": func(tr translator, key string, pairs ...any) string {
			if tr == nil {
				return locale.Interpolate(key, pairs...)
			}
			return tr.Tf(key, pairs...)
		},
		"statusKey":     func(status records.Status) string { return "status." + string(status) },
		"statusClass":   statusClass,
		"roleKey":       func(role records.Role) string { return "roles." + string(role) },
		"languageKey":   func(lang locale.Language) string { return "language." + string(lang) },
		"formatBytes":   formatBytes,
		"formatTime":    formatTime,
		"formatTimePtr": formatTimePtr,
		"formatPercent": formatPercent,
		"formatChange":  formatChange,
		"formatElapsed": formatElapsed,
		"join":          strings.Join,
		"queryString":   queryString,
		"dict":          dict,
	}
}

// dict builds a map from key/value pairs so partials can take several arguments.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict needs key/value pairs, got %d arguments", len(pairs))
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func statusClass(status records.Status) string {
	switch status {
	case records.StatusCompleted:
		return "sd-badge sd-badge-ok"
	case records.StatusFailed:
		return "sd-badge sd-badge-error"
	case records.StatusProcessing, records.StatusTesting:
		return "sd-badge sd-badge-progress"
	default:
		return "sd-badge"
	}
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return formatTime(*t)
}

// queryString encodes q with one key overridden, for pagination links.
func queryString(q browser.Query, key, value string) template.URL {
	values := q.Values()
	if key != "" {
		values.Set(key, value)
	}
	return template.URL("?" + values.Encode())
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// formatChange signs a change so growth reads "+12.5%".
func formatChange(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "—"
	}
	return d.Round(time.Second).String()
}
