package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calbot_ticks_total",
		Help: "Total number of polling ticks executed.",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calbot_tick_duration_seconds",
		Help:    "Histogram of polling tick durations.",
		Buckets: prometheus.DefBuckets,
	})

	userFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calbot_user_failures_total",
		Help: "Total number of per-user cycles that ended in an error.",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calbot_notifications_total",
		Help: "Total number of notifications emitted, by kind.",
	}, []string{"kind"})

	caldavRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calbot_caldav_requests_total",
		Help: "Total number of outbound CalDAV requests, by method and status.",
	}, []string{"method", "status"})

	caldavRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calbot_caldav_request_duration_seconds",
		Help:    "Histogram of outbound CalDAV request latencies.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	fetchFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calbot_fetch_fallback_total",
		Help: "Total number of fetch attempts that reached a fallback stage.",
	}, []string{"stage"})

	untrustedFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calbot_untrusted_fetches_total",
		Help: "Total number of fetches where no underlying request succeeded.",
	})
)

// ObserveTick records one completed polling tick.
func ObserveTick(start time.Time) {
	ticksTotal.Inc()
	tickDuration.Observe(time.Since(start).Seconds())
}

// ObserveUserFailure records a per-user cycle that ended in an error.
func ObserveUserFailure() {
	userFailuresTotal.Inc()
}

// ObserveNotification records an emitted notification.
func ObserveNotification(kind string) {
	notificationsTotal.WithLabelValues(kind).Inc()
}

// ObserveCalDAVRequest records one outbound CalDAV request. A zero status
// means the request failed before receiving a response.
func ObserveCalDAVRequest(method string, status int, start time.Time) {
	caldavRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	caldavRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// ObserveFallbackStage records that a fetch reached the named fallback stage.
func ObserveFallbackStage(stage string) {
	fetchFallbackTotal.WithLabelValues(stage).Inc()
}

// ObserveUntrustedFetch records a fetch with zero successful requests.
func ObserveUntrustedFetch() {
	untrustedFetchesTotal.Inc()
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
