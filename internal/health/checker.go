// Package health serves the liveness and readiness checks of the metrics port.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool and by mongo.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckResult is the state of the user store as seen by one ping.
type CheckResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type HealthResult struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// Checker pings the active store (mongo or postgres) on every readiness check.
type Checker struct {
	store   string
	db      Pinger
	logger  *slog.Logger
	up      *prometheus.GaugeVec
	latency *prometheus.GaugeVec
	now     func() time.Time
}

// NewChecker registers the store gauges on reg. store is the STORE_DRIVER name
// and becomes the "store" label and the key under checks.
func NewChecker(store string, db Pinger, logger *slog.Logger, reg prometheus.Registerer) *Checker {
	up := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "goosetrack",
		Name:      "store_up",
		Help:      "Whether the user store answered its last ping. 1 = up, 0 = down.",
	}, []string{"store"})
	latency := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "goosetrack",
		Name:      "store_ping_seconds",
		Help:      "Round trip of the last readiness ping to the user store.",
	}, []string{"store"})
	reg.MustRegister(up, latency)

	return &Checker{
		store:   store,
		db:      db,
		logger:  logger.With("component", "health", "store", store),
		up:      up,
		latency: latency,
		now:     time.Now,
	}
}

// Liveness never touches the store, so a store outage does not restart the pod.
func (c *Checker) Liveness(_ context.Context) HealthResult {
	return HealthResult{Status: "up"}
}

func (c *Checker) Readiness(ctx context.Context) HealthResult {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := c.now()
	err := c.db.Ping(pingCtx)
	took := c.now().Sub(start)

	c.latency.WithLabelValues(c.store).Set(took.Seconds())
	check := CheckResult{Status: "up", LatencyMS: took.Milliseconds()}
	if err != nil {
		c.logger.WarnContext(ctx, "store ping failed", "took", took, "error", err)
		check.Status = "down"
		check.Error = err.Error()
		c.up.WithLabelValues(c.store).Set(0)
	} else {
		c.up.WithLabelValues(c.store).Set(1)
	}

	return HealthResult{
		Status: check.Status,
		Checks: map[string]CheckResult{c.store: check},
	}
}
