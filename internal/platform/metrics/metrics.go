package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	Registrations   prometheus.Counter
	Logins          prometheus.Counter
	Enrollments     prometheus.Counter
	Verifications   *prometheus.CounterVec
	DetectionMisses prometheus.Counter
	DuplicateHits   *prometheus.CounterVec
	EndpointLatency *prometheus.HistogramVec
	DetectLatency   prometheus.Histogram
	MatchSimilarity prometheus.Histogram
	DirectoryCache  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facegate_registrations_total",
			Help: "Total number of identities registered",
		}),
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facegate_logins_total",
			Help: "Total number of successful phone number logins",
		}),
		Enrollments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facegate_enrollments_total",
			Help: "Total number of face references stored, including re-enrollments",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "facegate_verifications_total",
			Help: "Total number of verification decisions, labeled by outcome and mode",
		}, []string{"outcome", "mode"}),
		DetectionMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facegate_detection_misses_total",
			Help: "Total number of captures where the detector found no face",
		}),
		DuplicateHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "facegate_duplicate_rejections_total",
			Help: "Total number of registrations rejected for a duplicate field",
		}, []string{"field"}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "facegate_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		DetectLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "facegate_detect_latency_seconds",
			Help:    "Latency of detector calls in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		MatchSimilarity: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "facegate_match_similarity",
			Help:    "Distribution of similarity scores produced by the matcher",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		DirectoryCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "facegate_directory_cache_total",
			Help: "Directory lookup cache results, labeled hit or miss",
		}, []string{"result"}),
	}
}

// IncrementRegistrations increments the registrations counter by 1
func (m *Metrics) IncrementRegistrations() {
	m.Registrations.Inc()
}

// IncrementLogins increments the logins counter by 1
func (m *Metrics) IncrementLogins() {
	m.Logins.Inc()
}

// IncrementEnrollments increments the enrollments counter by 1
func (m *Metrics) IncrementEnrollments() {
	m.Enrollments.Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

// ObserveVerification records one verification decision.
func (m *Metrics) ObserveVerification(accepted bool, mode string, similarity float64) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.Verifications.WithLabelValues(outcome, mode).Inc()
	m.MatchSimilarity.Observe(similarity)
}

// IncrementDetectionMisses increments the detection miss counter by 1
func (m *Metrics) IncrementDetectionMisses() {
	m.DetectionMisses.Inc()
}

// IncrementDuplicate records a duplicate rejection for the given field.
func (m *Metrics) IncrementDuplicate(field string) {
	m.DuplicateHits.WithLabelValues(field).Inc()
}

// ObserveDirectoryCache records one directory cache lookup result.
func (m *Metrics) ObserveDirectoryCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.DirectoryCache.WithLabelValues(result).Inc()
}
