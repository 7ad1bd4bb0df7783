// Package metrics exposes prometheus counters for issuance and
// verification.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use before Register and on a nil receiver; updates are
// then dropped.
type Metrics struct {
	verdicts       *prometheus.CounterVec
	verifyDuration prometheus.Histogram
	issued         *prometheus.CounterVec
	deviceLogs     *prometheus.CounterVec

	registerOnce sync.Once
}

// New returns unregistered metrics.
func New() *Metrics {
	return &Metrics{}
}

// Register registers the collectors with registry. It is idempotent; a nil
// registry is a no-op.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if m == nil || registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.verdicts = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certvault_verifications_total",
			Help: "Total number of verifications by verdict reason",
		}, []string{"reason"})

		m.verifyDuration = factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "certvault_verification_duration_seconds",
			Help:    "Time spent producing a verdict, store lookups included",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		})

		m.issued = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certvault_issued_total",
			Help: "Total number of issued certificates by side-effect outcome",
		}, []string{"persisted", "embedded", "archived"})

		m.deviceLogs = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certvault_device_cleanups_total",
			Help: "Total number of device cleanup reports by action type",
		}, []string{"action_type"})
	})
}

// ObserveVerdict counts one verification outcome.
func (m *Metrics) ObserveVerdict(reason string, elapsed time.Duration) {
	if m == nil || m.verdicts == nil {
		return
	}
	m.verdicts.WithLabelValues(reason).Inc()
	m.verifyDuration.Observe(elapsed.Seconds())
}

// ObserveIssuance counts one issued certificate.
func (m *Metrics) ObserveIssuance(persisted, embedded, archived bool) {
	if m == nil || m.issued == nil {
		return
	}
	m.issued.WithLabelValues(
		strconv.FormatBool(persisted),
		strconv.FormatBool(embedded),
		strconv.FormatBool(archived),
	).Inc()
}

// ObserveDeviceCleanup counts one accepted device report.
func (m *Metrics) ObserveDeviceCleanup(actionType string) {
	if m == nil || m.deviceLogs == nil {
		return
	}
	m.deviceLogs.WithLabelValues(actionType).Inc()
}

// Handler serves the collectors of gatherer in the text exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
