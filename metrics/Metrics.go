package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var TotalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "marketplace_cleanup_http_requests_total",
		Help: "Number of http requests.",
	},
	[]string{"path", "code", "method"},
)

var HttpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "marketplace_cleanup_http_request_duration_seconds_histogram",
		Buckets: []float64{
			0.1, // 100 ms
			0.25,
			0.5,
			1,
			3,
			10,
		},
	},
	[]string{"path", "code", "method"},
)

var CleanupJobRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cleanup_job_runs_total",
		Help: "Cleanup job runs by final status.",
	},
	[]string{"job", "status"},
)

var CleanupJobItems = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cleanup_job_items_total",
		Help: "Rows and images handled by cleanup jobs by outcome.",
	},
	[]string{"job", "outcome"},
)

var CleanupJobDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "cleanup_job_duration_seconds",
		Help: "Cleanup job run duration.",
		Buckets: []float64{
			1,
			5,
			30,
			60,
			300,
			900,
			3600,
		},
	},
	[]string{"job"},
)

var CleanupJobLastSuccess = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "cleanup_job_last_success_timestamp_seconds",
		Help: "Unix time of the last run that did not fail.",
	},
	[]string{"job"},
)

func RegisterAllPrometheusApplicationMetrics() {
	prometheus.Register(TotalRequests)
	prometheus.Register(CleanupJobRuns)
	prometheus.Register(CleanupJobItems)
	prometheus.Register(CleanupJobDuration)
	prometheus.Register(CleanupJobLastSuccess)
}

// PushCleanupMetrics sends the job metrics of a one-shot run to a Pushgateway, grouped by instance.
func PushCleanupMetrics(pushgatewayUrl string, job string, instanceId string) error {
	return push.New(pushgatewayUrl, job).
		Grouping("instance", instanceId).
		Collector(CleanupJobRuns).
		Collector(CleanupJobItems).
		Collector(CleanupJobDuration).
		Collector(CleanupJobLastSuccess).
		Push()
}
