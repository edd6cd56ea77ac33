package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Checkout outcomes recorded in storefront_checkout_submissions_total.
const (
	outcomeSuccess      = "success"
	outcomeInFlight     = "in_flight"
	outcomeCartEmpty    = "cart_empty"
	outcomeAuthRequired = "auth_required"
	outcomeInvalid      = "invalid"
	outcomeUploadFailed = "upload_failed"
	outcomeOrderFailed  = "order_failed"
	outcomeError        = "error"
)

var (
	checkoutSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_submissions_total",
			Help: "Checkout submissions, by outcome",
		},
		[]string{"outcome"},
	)

	checkoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_checkout_duration_seconds",
			Help:    "Checkout submission latency, by outcome",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)
)
