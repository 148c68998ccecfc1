package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"secdash/internal/backend"
	"secdash/internal/records"
)

const scrapeTimeout = 5 * time.Second

var (
	backendConnectedDesc   = prometheus.NewDesc("secdash_backend_connected", "Backend connection status (1=connected,0=disconnected)", nil, nil)
	clientsTotalDesc       = prometheus.NewDesc("secdash_clients_total", "Number of browser clients with stored state", nil, nil)
	lastScrapeSuccessDesc  = prometheus.NewDesc("secdash_exporter_last_scrape_success", "Whether the last scrape succeeded (1) or failed (0)", nil, nil)
	resolversActiveDesc    = prometheus.NewDesc("secdash_locale_resolvers_active", "Number of live per-client language resolvers", nil, nil)
	serviceRecordsDesc     = prometheus.NewDesc("secdash_service_records", "Records last seen per service grouped by status", []string{"service", "status"}, nil)
	serviceUsersDesc       = prometheus.NewDesc("secdash_service_users", "Distinct users owning records per service", []string{"service"}, nil)
	serviceLastFetchDesc   = prometheus.NewDesc("secdash_service_records_last_fetch_timestamp_seconds", "Timestamp of the last successful records fetch per service", []string{"service"}, nil)
	uploadsTotalDesc       = prometheus.NewDesc("secdash_uploads_total", "Uploads recorded locally grouped by status", []string{"status"}, nil)
	uploadStatusesReported = []records.Status{records.StatusPending, records.StatusProcessing, records.StatusCompleted, records.StatusFailed}
)

// UploadCounter aggregates upload history.
type UploadCounter interface {
	CountByStatus(ctx context.Context) (map[records.Status]int, error)
}

// ClientCounter reports stored clients.
type ClientCounter interface {
	ClientCount() (int, error)
}

type serviceSnapshot struct {
	stats   records.Stats
	fetched time.Time
}

// Collector exposes dashboard state to Prometheus. Service record counts are
// the last values observed by the admin pages.
type Collector struct {
	backend   backend.Client
	uploads   UploadCounter
	clients   ClientCounter
	resolvers func() int
	now       func() time.Time

	mu       sync.Mutex
	services map[string]serviceSnapshot
}

// NewCollector returns a collector. Nil sources are skipped.
func NewCollector(client backend.Client, uploads UploadCounter, clients ClientCounter, resolvers func() int) *Collector {
	return &Collector{
		backend:   client,
		uploads:   uploads,
		clients:   clients,
		resolvers: resolvers,
		now:       time.Now,
		services:  make(map[string]serviceSnapshot),
	}
}

// ObserveRecords stores the latest stats fetched for service.
func (collector *Collector) ObserveRecords(service string, stats records.Stats) {
	collector.mu.Lock()
	defer collector.mu.Unlock()
	collector.services[service] = serviceSnapshot{stats: stats, fetched: collector.now()}
}

func (collector *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- backendConnectedDesc
	ch <- clientsTotalDesc
	ch <- lastScrapeSuccessDesc
	ch <- resolversActiveDesc
	ch <- serviceRecordsDesc
	ch <- serviceUsersDesc
	ch <- serviceLastFetchDesc
	ch <- uploadsTotalDesc
}

func (collector *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	success := 1.0
	if collector.uploads != nil {
		counts, err := collector.uploads.CountByStatus(ctx)
		if err != nil {
			success = 0
		} else {
			for _, status := range uploadStatusesReported {
				ch <- prometheus.MustNewConstMetric(uploadsTotalDesc, prometheus.GaugeValue, float64(counts[status]), string(status))
			}
		}
	}
	if collector.clients != nil {
		count, err := collector.clients.ClientCount()
		if err != nil {
			success = 0
		} else {
			ch <- prometheus.MustNewConstMetric(clientsTotalDesc, prometheus.GaugeValue, float64(count))
		}
	}
	if collector.backend != nil {
		connected := 1.0
		if err := collector.backend.CheckConnection(ctx); err != nil {
			connected = 0
		}
		ch <- prometheus.MustNewConstMetric(backendConnectedDesc, prometheus.GaugeValue, connected)
	}
	if collector.resolvers != nil {
		ch <- prometheus.MustNewConstMetric(resolversActiveDesc, prometheus.GaugeValue, float64(collector.resolvers()))
	}
	collector.emitServiceMetrics(ch)
	ch <- prometheus.MustNewConstMetric(lastScrapeSuccessDesc, prometheus.GaugeValue, success)
}

func (collector *Collector) emitServiceMetrics(ch chan<- prometheus.Metric) {
	collector.mu.Lock()
	defer collector.mu.Unlock()
	for service, snapshot := range collector.services {
		stats := snapshot.stats
		ch <- prometheus.MustNewConstMetric(serviceRecordsDesc, prometheus.GaugeValue, float64(stats.Total), service, "total")
		ch <- prometheus.MustNewConstMetric(serviceRecordsDesc, prometheus.GaugeValue, float64(stats.Processing), service, "processing")
		ch <- prometheus.MustNewConstMetric(serviceRecordsDesc, prometheus.GaugeValue, float64(stats.Completed), service, "completed")
		ch <- prometheus.MustNewConstMetric(serviceRecordsDesc, prometheus.GaugeValue, float64(stats.Failed), service, "failed")
		ch <- prometheus.MustNewConstMetric(serviceUsersDesc, prometheus.GaugeValue, float64(stats.Users), service)
		ch <- prometheus.MustNewConstMetric(serviceLastFetchDesc, prometheus.GaugeValue, float64(snapshot.fetched.Unix()), service)
	}
}
