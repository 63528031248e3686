package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	seedCommitmentsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fairdraw",
		Name:      "seed_commitments_total",
		Help:      "Number of seed commitments published.",
	})
	ticketSetCommitmentsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fairdraw",
		Name:      "ticket_set_commitments_total",
		Help:      "Number of ticket-set commitments published.",
	})
	roundsResolvedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fairdraw",
		Name:      "rounds_resolved_total",
		Help:      "Number of rounds resolved to a winner.",
	})
	deadLetteredCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fairdraw",
		Name:      "announcements_dead_lettered_total",
		Help:      "Number of announcements persisted to the dead-letter store.",
	})
	failedPayoutsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fairdraw",
		Name:      "payouts_failed_total",
		Help:      "Number of payout attempts recorded as failed.",
	})
)
