package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"secdash/internal/backend"
	"secdash/internal/locale"
	"secdash/internal/records"
)

type fakeUploads struct {
	counts map[records.Status]int
	err    error
}

func (f fakeUploads) CountByStatus(context.Context) (map[records.Status]int, error) {
	return f.counts, f.err
}

type fakeClients int

func (f fakeClients) ClientCount() (int, error) {
	return int(f), nil
}

func TestCollector_SuccessMetrics(t *testing.T) {
	mockBackend := new(backend.MockClient)
	mockBackend.On("CheckConnection", mock.Anything).Return(nil)

	uploads := fakeUploads{counts: map[records.Status]int{records.StatusProcessing: 3, records.StatusCompleted: 2}}
	collector := NewCollector(mockBackend, uploads, fakeClients(7), func() int { return 4 })
	fetched := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	collector.now = func() time.Time { return fetched }
	collector.ObserveRecords(records.ServiceAppTotalGo, records.SummarizeScans(records.DemoScans()))

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(collector))
	assert.Greater(t, testutil.CollectAndCount(collector), 5)

	assertGauge(t, registry, "secdash_exporter_last_scrape_success", nil, 1.0)
	assertGauge(t, registry, "secdash_backend_connected", nil, 1.0)
	assertGauge(t, registry, "secdash_clients_total", nil, 7.0)
	assertGauge(t, registry, "secdash_locale_resolvers_active", nil, 4.0)
	assertGauge(t, registry, "secdash_uploads_total", map[string]string{"status": "processing"}, 3.0)
	assertGauge(t, registry, "secdash_uploads_total", map[string]string{"status": "completed"}, 2.0)
	assertGauge(t, registry, "secdash_uploads_total", map[string]string{"status": "failed"}, 0.0)
	assertGauge(t, registry, "secdash_service_records", map[string]string{"service": "app-total-go", "status": "total"}, float64(len(records.DemoScans())))
	assertGauge(t, registry, "secdash_service_records_last_fetch_timestamp_seconds", map[string]string{"service": "app-total-go"}, float64(fetched.Unix()))

	mockBackend.AssertExpectations(t)
}

func TestCollector_FailuresAreReported(t *testing.T) {
	mockBackend := new(backend.MockClient)
	mockBackend.On("CheckConnection", mock.Anything).Return(errors.New("down"))

	collector := NewCollector(mockBackend, fakeUploads{err: errors.New("db locked")}, nil, nil)
	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(collector))

	assertGauge(t, registry, "secdash_exporter_last_scrape_success", nil, 0.0)
	assertGauge(t, registry, "secdash_backend_connected", nil, 0.0)
	mockBackend.AssertExpectations(t)
}

func TestLocaleMetrics_ObserveLoad(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewLocaleMetrics(registry)
	require.NoError(t, err)
	var _ locale.LoadObserver = m

	m.ObserveLoad(locale.LanguageVietnamese, 10*time.Millisecond, nil)
	m.ObserveLoad(locale.LanguageVietnamese, time.Millisecond, context.Canceled)
	m.ObserveLoad(locale.LanguageChinese, time.Millisecond, errors.New("missing"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.loads.WithLabelValues("vi", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loads.WithLabelValues("vi", "cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loads.WithLabelValues("zh", "error")))

	_, err = NewLocaleMetrics(registry)
	assert.Error(t, err)
}

func assertGauge(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string, expected float64) {
	t.Helper()
	value, err := gatherGauge(registry, name, labels)
	require.NoError(t, err)
	assert.InDelta(t, expected, value, 0.0001)
}

func gatherGauge(registry *prometheus.Registry, name string, labels map[string]string) (float64, error) {
	families, err := registry.Gather()
	if err != nil {
		return 0, err
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if !matchLabels(m, labels) {
				continue
			}
			return m.GetGauge().GetValue(), nil
		}
	}
	return 0, nil
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	if len(labels) == 0 {
		return true
	}
	for expectedKey, expected := range labels {
		found := false
		for _, lp := range metric.Label {
			if lp.GetName() == expectedKey {
				found = lp.GetValue() == expected
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
