// Package metrics collects Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus metrics.
type Collector struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	logins            *prometheus.CounterVec
	attendanceBatches *prometheus.CounterVec
	attendanceRecords prometheus.Counter
	reportLatency     prometheus.Histogram
	rateLimited       *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classattend_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classattend_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classattend_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		attendanceBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classattend_attendance_batches_total",
			Help: "Attendance day+class submissions applied, by class.",
		}, []string{"class"}),
		attendanceRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classattend_attendance_records_written_total",
			Help: "Attendance records inserted by replace operations.",
		}),
		reportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "classattend_class_report_seconds",
			Help:    "Time spent aggregating class reports.",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classattend_rate_limited_total",
			Help: "Requests rejected by a rate limiter.",
		}, []string{"limiter"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.logins,
		c.attendanceBatches,
		c.attendanceRecords,
		c.reportLatency,
		c.rateLimited,
	)
	return c
}

// RecordHTTP records one finished request.
func (c *Collector) RecordHTTP(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordLogin records a login attempt outcome: success, invalid or error.
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordAttendanceReplaced records a successful replace of one day+class.
func (c *Collector) RecordAttendanceReplaced(className string, records int) {
	c.attendanceBatches.WithLabelValues(className).Inc()
	c.attendanceRecords.Add(float64(records))
}

// RecordReportLatency records how long a class report took.
func (c *Collector) RecordReportLatency(d time.Duration) {
	c.reportLatency.Observe(d.Seconds())
}

// RecordRateLimited records a request rejected by the named limiter.
func (c *Collector) RecordRateLimited(limiter string) {
	c.rateLimited.WithLabelValues(limiter).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
