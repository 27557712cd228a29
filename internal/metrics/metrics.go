package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ThoughtsCreated counts published thoughts by whether they were daily.
	ThoughtsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtify_thoughts_created_total",
		Help: "Total number of thoughts published",
	}, []string{"daily"})

	// LikesToggled counts like toggles by the resulting state.
	LikesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtify_likes_toggled_total",
		Help: "Total number of like toggles by resulting state",
	}, []string{"state"})

	DraftsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thoughtify_drafts_created_total",
		Help: "Total number of drafts saved by anonymous visitors",
	})

	DraftsConverted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thoughtify_drafts_converted_total",
		Help: "Total number of drafts published at signup",
	})

	DraftsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thoughtify_drafts_purged_total",
		Help: "Total number of expired drafts deleted",
	})

	Signups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thoughtify_signups_total",
		Help: "Total number of accounts created",
	})

	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thoughtify_login_failures_total",
		Help: "Total number of rejected login attempts",
	})

	// DailyGateRejections counts daily thoughts refused because one was
	// already posted that day.
	DailyGateRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thoughtify_daily_gate_rejections_total",
		Help: "Total number of daily thoughts rejected by the daily gate",
	})

	// HTTPRequestDuration records request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thoughtify_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

// ThoughtCreated records a published thought.
func ThoughtCreated(daily bool) {
	ThoughtsCreated.WithLabelValues(strconv.FormatBool(daily)).Inc()
}

// LikeToggled records a like toggle.
func LikeToggled(liked bool) {
	state := "unliked"
	if liked {
		state = "liked"
	}
	LikesToggled.WithLabelValues(state).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
