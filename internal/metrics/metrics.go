// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Push request outcomes.
const (
	ResultOK           = "ok"
	ResultForbidden    = "forbidden"
	ResultNotFound     = "not_found"
	ResultDeliveryFail = "delivery_failed"
	ResultBadRequest   = "bad_request"
	ResultError        = "error"
)

var (
	PushRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifier",
		Name:      "push_requests_total",
		Help:      "Push requests by outcome.",
	}, []string{"result"})

	DeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "notifier",
		Name:      "delivery_duration_seconds",
		Help:      "Time spent delivering a push message to the chat service.",
		Buckets:   prometheus.DefBuckets,
	})

	BotEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifier",
		Name:      "bot_events_total",
		Help:      "Chat events handled by the bot, by kind.",
	}, []string{"kind"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "notifier",
		Name:      "active_sessions",
		Help:      "Unfinished dialogues kept in memory.",
	})
)
