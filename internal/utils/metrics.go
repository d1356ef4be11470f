package utils

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lms",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	CertificatesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lms",
		Name:      "certificates_issued_total",
		Help:      "Certificates issued.",
	})

	VideosCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lms",
		Name:      "videos_completed_total",
		Help:      "Videos newly marked complete.",
	})

	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lms",
		Name:      "messages_sent_total",
		Help:      "Chat messages sent.",
	})
)

// MetricsRegistry holds the service collectors plus the Go runtime collectors
var MetricsRegistry = prometheus.NewRegistry()

func init() {
	MetricsRegistry.MustRegister(
		httpRequests,
		CertificatesIssued,
		VideosCompleted,
		MessagesSent,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func RecordHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
