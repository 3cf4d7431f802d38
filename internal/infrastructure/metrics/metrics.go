package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the balance engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Operation metrics
	DepositsTotal    prometheus.Counter
	WithdrawalsTotal prometheus.Counter
	TransfersTotal   prometheus.Counter
	OperationErrors  *prometheus.CounterVec
	OperationAmount  *prometheus.HistogramVec

	// Event metrics
	EventsPublished      prometheus.Counter
	EventPublishFailures prometheus.Counter

	// Command listener metrics
	CommandsReceived *prometheus.CounterVec
	CommandsDropped  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DepositsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobalance_deposits_total",
			Help: "Total number of completed deposits",
		}),
		WithdrawalsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobalance_withdrawals_total",
			Help: "Total number of completed withdrawals",
		}),
		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobalance_transfers_total",
			Help: "Total number of completed transfers",
		}),
		OperationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobalance_operation_errors_total",
				Help: "Total failed operations by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
		OperationAmount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobalance_operation_amount",
				Help:    "Operation amounts",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"operation"},
		),
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobalance_events_published_total",
			Help: "Total balance events published",
		}),
		EventPublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gobalance_event_publish_failures_total",
			Help: "Total balance events that failed to publish",
		}),
		CommandsReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobalance_commands_received_total",
				Help: "Total inbound balance commands by command",
			},
			[]string{"command"},
		),
		CommandsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobalance_commands_dropped_total",
				Help: "Total inbound balance commands dropped by command and reason",
			},
			[]string{"command", "reason"},
		),
	}
}

// RecordOperation increments the completion counter and amount histogram for
// an operation.
func (m *Metrics) RecordOperation(operation string, amount float64) {
	if m == nil {
		return
	}

	switch operation {
	case "deposit":
		m.DepositsTotal.Inc()
	case "withdraw":
		m.WithdrawalsTotal.Inc()
	case "transfer":
		m.TransfersTotal.Inc()
	}

	m.OperationAmount.WithLabelValues(operation).Observe(amount)
}

// RecordOperationError increments the error counter for an operation.
func (m *Metrics) RecordOperationError(operation, kind string) {
	if m == nil {
		return
	}

	m.OperationErrors.WithLabelValues(operation, kind).Inc()
}

// RecordEventPublished increments the published-events counter.
func (m *Metrics) RecordEventPublished() {
	if m == nil {
		return
	}

	m.EventsPublished.Inc()
}

// RecordEventPublishFailure increments the publish-failure counter.
func (m *Metrics) RecordEventPublishFailure() {
	if m == nil {
		return
	}

	m.EventPublishFailures.Inc()
}

// RecordCommandReceived increments the inbound-command counter.
func (m *Metrics) RecordCommandReceived(command string) {
	if m == nil {
		return
	}

	m.CommandsReceived.WithLabelValues(command).Inc()
}

// RecordCommandDropped increments the dropped-command counter.
func (m *Metrics) RecordCommandDropped(command, reason string) {
	if m == nil {
		return
	}

	m.CommandsDropped.WithLabelValues(command, reason).Inc()
}
