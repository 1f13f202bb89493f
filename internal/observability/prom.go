package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shopapi"

var (
	httpBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	dbBuckets   = []float64{0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2}
)

// Prom holds every collector the API exports. Build one per registry.
type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         prometheus.Gauge

	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// status is 401 or 403
	AuthRejections *prometheus.CounterVec

	// result is hit, miss or error
	CacheLookups *prometheus.CounterVec
}

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal:    counter("http", "requests_total", "HTTP requests served, by route template.", "method", "route", "status"),
		RequestsDuration: histogram("http", "request_duration_seconds", "HTTP request latency.", httpBuckets, "method", "route", "status"),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served.",
		}),
		DbQueryDuration: histogram("db", "query_duration_seconds", "Latency of logical store operations.", dbBuckets, "op", "status"),
		DbErrorsTotal:   counter("db", "errors_total", "Store failures by operation and class. Misses are not counted.", "op", "class"),
		AuthRejections:  counter("auth", "rejections_total", "Requests refused by requireSignIn or isAdmin.", "status", "reason"),
		CacheLookups:    counter("cache", "lookups_total", "Catalog cache reads by result.", "result"),
	}

	reg.MustRegister(
		p.RequestsTotal,
		p.RequestsDuration,
		p.InFlight,
		p.DbQueryDuration,
		p.DbErrorsTotal,
		p.AuthRejections,
		p.CacheLookups,
	)

	return p
}

// ObserveRejection satisfies middlewares.RejectionObserver.
func (p *Prom) ObserveRejection(status int, reason string) {
	p.AuthRejections.WithLabelValues(strconv.Itoa(status), reason).Inc()
}

// ObserveCacheLookup satisfies cache.LookupObserver.
func (p *Prom) ObserveCacheLookup(result string) {
	p.CacheLookups.WithLabelValues(result).Inc()
}

// GinHandleMiddleware records count and latency per route template, so
// /product/:slug is one series however many slugs are requested.
func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		p.InFlight.Inc()
		defer p.InFlight.Dec()

		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		labels := []string{ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())}
		p.RequestsTotal.WithLabelValues(labels...).Inc()
		p.RequestsDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	}
}
