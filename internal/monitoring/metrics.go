package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketbari_upstream_request_duration_seconds",
			Help:    "Latency of calls to the ticketing API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "code"},
	)

	bookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbari_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	checkoutPhases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbari_checkout_phase_total",
			Help: "Checkout transitions by phase and outcome",
		},
		[]string{"phase", "outcome"},
	)

	countdownStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketbari_countdown_streams",
			Help: "Open departure countdown streams",
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbari_cache_lookups_total",
			Help: "Query cache lookups by result",
		},
		[]string{"cache", "result"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbari_notifications_total",
			Help: "Notification e-mails by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)
)

// TrackUpstream records one ticketing API call. code is 0 for transport errors.
func TrackUpstream(endpoint string, code int, elapsed time.Duration) {
	upstreamDuration.WithLabelValues(endpoint, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

func TrackBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func TrackCheckout(phase, outcome string) {
	checkoutPhases.WithLabelValues(phase, outcome).Inc()
}

// CountdownOpened increments the open stream gauge and returns the matching
// decrement.
func CountdownOpened() func() {
	countdownStreams.Inc()
	return countdownStreams.Dec
}

func TrackCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}

func TrackNotification(topic, outcome string) {
	notifications.WithLabelValues(topic, outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
