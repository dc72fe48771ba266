package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vidtube",
	Subsystem: "auth",
	Name:      "outcomes_total",
	Help:      "Auth flow results by flow and outcome (ok or an error kind).",
}, []string{"flow", "outcome"})

var eventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "vidtube",
	Subsystem: "auth",
	Name:      "event_publish_failures_total",
	Help:      "User events that could not be handed to the broker.",
})
