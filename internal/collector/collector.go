package collector

import (
	"context"
	"errors"
)

var (
	ErrCollectionFailed = errors.New("metric collection failed")
	ErrTimeout          = errors.New("collection timeout")
	ErrInvalidResponse  = errors.New("invalid response from metrics source")
	ErrUnknownMethod    = errors.New("unknown monitoring method")
)

// Collector fetches one pool's averaged utilization sample. A (0, 0)
// return with nil error means the source had no data points for the
// query window; the scaling engine treats that as "no data", not as
// idle instances.
type Collector interface {
	// GetMetrics returns average CPU and RAM utilization percentages
	// across the pool's instances.
	GetMetrics(ctx context.Context) (cpu, ram float64, err error)

	// HealthCheck verifies the collector can reach its data source.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the collector.
	Close() error
}
