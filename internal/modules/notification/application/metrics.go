package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Notifications inserted by the translator.",
	}, []string{"kind"})

	dedupSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_dedup_skips_total",
		Help: "Translator inserts skipped because the dedup key already existed.",
	}, []string{"kind"})

	deadLetters = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dead_letters_total",
		Help: "Order events dropped after exhausting delivery attempts.",
	})

	dispatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dispatched_total",
		Help: "On-device alerts scheduled by the sweep.",
	})

	dispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dispatch_failures_total",
		Help: "On-device alert scheduling failures.",
	})

	purgedRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_purged_total",
		Help: "Rows removed by the retention janitor.",
	})
)
