package collector

import (
	"context"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/internal/resilience"
)

// ResilientCollector wraps another collector with retries and a circuit
// breaker so a flapping monitoring source does not stall the poll loop.
type ResilientCollector struct {
	inner      Collector
	breaker    *resilience.CircuitBreaker
	maxRetries int
	retryDelay time.Duration
	poolID     string
}

type ResilientConfig struct {
	PoolID     string
	MaxRetries int
	RetryDelay time.Duration
	Breaker    resilience.CircuitBreakerConfig
}

func NewResilientCollector(inner Collector, cfg ResilientConfig) *ResilientCollector {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "collector:" + cfg.PoolID
	}

	return &ResilientCollector{
		inner:      inner,
		breaker:    resilience.NewCircuitBreaker(cfg.Breaker),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		poolID:     cfg.PoolID,
	}
}

func (r *ResilientCollector) GetMetrics(ctx context.Context) (float64, float64, error) {
	var cpu, ram float64
	var lastErr error

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		err := r.breaker.Do(func() error {
			var innerErr error
			cpu, ram, innerErr = r.inner.GetMetrics(ctx)
			return innerErr
		})
		if err == nil {
			return cpu, ram, nil
		}

		lastErr = err
		if err == resilience.ErrCircuitOpen {
			// Retrying will not close the circuit any faster.
			return 0, 0, err
		}

		logger.WithPool(r.poolID).WithError(err).Warnf(
			"Metrics collection attempt %d/%d failed", attempt, r.maxRetries)

		if attempt < r.maxRetries {
			select {
			case <-ctx.Done():
				return 0, 0, ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
	}

	return 0, 0, lastErr
}

func (r *ResilientCollector) HealthCheck(ctx context.Context) error {
	return r.inner.HealthCheck(ctx)
}

func (r *ResilientCollector) Close() error {
	return r.inner.Close()
}

// BreakerState exposes the circuit state for health reporting.
func (r *ResilientCollector) BreakerState() resilience.State {
	return r.breaker.State()
}
