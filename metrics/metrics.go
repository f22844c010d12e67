package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors, exposed on /metrics.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gold",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gold",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gold",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route"},
	)

	purchases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gold",
			Subsystem: "ledger",
			Name:      "purchases_total",
			Help:      "Number of recorded digital gold purchases.",
		},
	)

	gramsPurchased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gold",
			Subsystem: "ledger",
			Name:      "grams_purchased_total",
			Help:      "Grams of gold purchased.",
		},
	)

	inrPurchased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gold",
			Subsystem: "ledger",
			Name:      "inr_purchased_total",
			Help:      "INR spent on gold purchases.",
		},
	)

	advisorMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gold",
			Subsystem: "advisor",
			Name:      "messages_total",
			Help:      "Advisor messages by classification.",
		},
		[]string{"gold_related", "buy_intent"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		purchases,
		gramsPurchased,
		inrPurchased,
		advisorMessages,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func RecordPurchase(grams, inr float64) {
	purchases.Inc()
	gramsPurchased.Add(grams)
	inrPurchased.Add(inr)
}

func RecordAdvice(goldRelated, buyIntent bool) {
	advisorMessages.WithLabelValues(strconv.FormatBool(goldRelated), strconv.FormatBool(buyIntent)).Inc()
}
