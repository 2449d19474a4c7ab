// FilePath: internal/monitoring/monitoring.go
package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

const (
	metricPrefix = "boat_hub_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	eventsTotal      *prometheus.CounterVec
	uplinkLines      *prometheus.CounterVec
	recordsDropped   *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
)

// Config holds monitoring configuration
type Config struct {
	MetricsEnabled bool
}

// Service records service events and pipeline metrics.
type Service struct {
	config Config
}

// NewService creates a new monitoring service and registers the collectors
// on first use.
func NewService(config Config) *Service {
	register()
	return &Service{config: config}
}

func register() {
	registerOnce.Do(func() {
		eventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_total",
				Help: "Service events by name",
			},
			[]string{"event"},
		)
		uplinkLines = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "uplink_lines_total",
				Help: "Uplink lines seen by parse result",
			},
			[]string{"result"},
		)
		recordsDropped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_dropped_total",
				Help: "Records or samples dropped by pipeline stage",
			},
			[]string{"stage"},
		)
		upstreamLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "upstream_latency_seconds",
				Help:    "Upstream fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source", "result"},
		)
		upstreamRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upstream_requests_total",
				Help: "Upstream fetches by source and result",
			},
			[]string{"source", "result"},
		)
		cacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_lookups_total",
				Help: "Cache lookups by namespace and outcome",
			},
			[]string{"namespace", "outcome"},
		)

		prometheus.MustRegister(
			eventsTotal,
			uplinkLines,
			recordsDropped,
			upstreamLatency,
			upstreamRequests,
			cacheLookups,
		)
	})
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	eventsTotal.WithLabelValues(eventName).Inc()
	nuts.L.Infof("[Monitoring] Event %s recorded with labels: %v", eventName, labels)
}

// UplinkLines counts parsed and failed uplink lines of one fetch.
func (s *Service) UplinkLines(parsed, failed int) {
	uplinkLines.WithLabelValues(resultSuccess).Add(float64(parsed))
	uplinkLines.WithLabelValues(resultError).Add(float64(failed))
}

// RecordsDropped counts records removed at a pipeline stage.
func (s *Service) RecordsDropped(stage string, n int) {
	if n <= 0 {
		return
	}
	recordsDropped.WithLabelValues(stage).Add(float64(n))
}

// ObserveUpstream records the latency and outcome of one upstream fetch.
func (s *Service) ObserveUpstream(source string, started time.Time, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	upstreamLatency.WithLabelValues(source, result).Observe(time.Since(started).Seconds())
	upstreamRequests.WithLabelValues(source, result).Inc()
}

func (s *Service) CacheHit(namespace string) {
	cacheLookups.WithLabelValues(namespace, "hit").Inc()
}

func (s *Service) CacheMiss(namespace string) {
	cacheLookups.WithLabelValues(namespace, "miss").Inc()
}

// Handler serves the default registry, or 404 when metrics are disabled.
func (s *Service) Handler() http.Handler {
	if !s.config.MetricsEnabled {
		return http.NotFoundHandler()
	}
	return promhttp.Handler()
}
