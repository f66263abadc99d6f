package internal

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "sodium"

// Metrics are the runtime collectors. A nil *Metrics records nothing.
type Metrics struct {
	Transactions prometheus.Counter
	Actions      prometheus.Counter
	Regens       prometheus.Counter
	Unhandled    prometheus.Counter
	Aborted      prometheus.Counter
	TxActions    prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transactions_total",
			Help:      "Number of closed transactions.",
		}),
		Actions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "prioritized_actions_total",
			Help:      "Number of prioritized actions run.",
		}),
		Regens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "queue_regenerations_total",
			Help:      "Number of times the prioritized queue was rebuilt after a rank change.",
		}),
		Unhandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unhandled_failures_total",
			Help:      "Number of failures routed to the unhandled channel.",
		}),
		Aborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "aborted_transactions_total",
			Help:      "Number of transactions aborted by a usage error.",
		}),
		TxActions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "transaction_actions",
			Help:      "Prioritized actions run per transaction.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Transactions,
		m.Actions,
		m.Regens,
		m.Unhandled,
		m.Aborted,
		m.TxActions,
	}
}

// Register registers every collector, reporting all failures at once.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m *Metrics) closed(tx *Transaction) {
	if m == nil {
		return
	}

	m.Transactions.Inc()
	m.Actions.Add(float64(tx.actions))
	m.Regens.Add(float64(tx.regens))
	m.TxActions.Observe(float64(tx.actions))
}

func (m *Metrics) unhandled() {
	if m == nil {
		return
	}

	m.Unhandled.Inc()
}

func (m *Metrics) aborted() {
	if m == nil {
		return
	}

	m.Aborted.Inc()
}
