package reviews

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeAccepted = "accepted"

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_submissions_total",
		Help: "Review submissions by outcome",
	}, []string{"outcome"})

	submissionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "review_submission_duration_seconds",
		Help:    "Review submission pipeline latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	geofenceDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "review_geofence_distance_meters",
		Help:    "Distance between reviewer and business at submission",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})

	couponsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_coupons_issued_total",
		Help: "Reward coupons minted for accepted reviews",
	})

	notificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_notification_failures_total",
		Help: "Review notifications that could not be dispatched",
	})
)
