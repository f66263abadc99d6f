package internal

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type config struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// Option configures a Runtime.
type Option func(*config)

func defaultConfig() config {
	return config{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used for unhandled failures and transaction
// tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics registers the runtime collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}
