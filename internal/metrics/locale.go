package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"secdash/internal/locale"
)

// LocaleMetrics counts dictionary loads. It implements locale.LoadObserver.
type LocaleMetrics struct {
	loads    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewLocaleMetrics registers the dictionary load metrics on reg.
func NewLocaleMetrics(reg prometheus.Registerer) (*LocaleMetrics, error) {
	m := &LocaleMetrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secdash_locale_loads_total",
			Help: "Dictionary loads grouped by language and result",
		}, []string{"language", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "secdash_locale_load_duration_seconds",
			Help:    "Dictionary load latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"language"}),
	}
	if err := reg.Register(m.loads); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LocaleMetrics) ObserveLoad(lang locale.Language, elapsed time.Duration, err error) {
	result := "success"
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		result = "cancelled"
	case err != nil:
		result = "error"
	}
	m.loads.WithLabelValues(string(lang), result).Inc()
	m.duration.WithLabelValues(string(lang)).Observe(elapsed.Seconds())
}
