package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomstay_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roomstay_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	roomOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomstay_room_operations_total",
		Help: "Count of room operations by type and result",
	}, []string{"op", "result"})

	mediaOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roomstay_media_operation_duration_seconds",
		Help:    "Duration of media host upload/delete calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "result"})

	orphanReaps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomstay_orphan_reaps_total",
		Help: "Count of orphaned media asset reap attempts by result",
	}, []string{"result"})

	orphanQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roomstay_orphan_queue_depth",
		Help: "Media assets currently awaiting store-side deletion",
	})

	feedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roomstay_feed_subscribers",
		Help: "Connected room event feed websocket clients",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveRoomOperation counts a room operation outcome
func ObserveRoomOperation(op, result string) {
	roomOperations.WithLabelValues(op, result).Inc()
}

// ObserveMedia records the duration of a media host call
func ObserveMedia(op, result string, duration time.Duration) {
	mediaOperationDuration.WithLabelValues(op, result).Observe(duration.Seconds())
}

// ObserveOrphanReap counts an orphaned asset reap attempt
func ObserveOrphanReap(result string) {
	orphanReaps.WithLabelValues(result).Inc()
}

// SetOrphanQueueDepth sets the pending orphan gauge
func SetOrphanQueueDepth(depth int) {
	if depth < 0 {
		depth = 0
	}
	orphanQueueDepth.Set(float64(depth))
}

// FeedSubscriberConnected increments the feed subscriber gauge
func FeedSubscriberConnected() {
	feedSubscribers.Inc()
}

// FeedSubscriberDisconnected decrements the feed subscriber gauge
func FeedSubscriberDisconnected() {
	feedSubscribers.Dec()
}
