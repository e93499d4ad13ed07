package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
)

const (
	// Instances are expected to run node_exporter and carry a pool_id
	// label applied by the scrape config.
	defaultCPUQuery = `avg(100 - (avg by (instance) (rate(node_cpu_seconds_total{mode="idle",pool_id=%q}[5m])) * 100))`
	defaultRAMQuery = `avg((1 - node_memory_MemAvailable_bytes{pool_id=%q} / node_memory_MemTotal_bytes{pool_id=%q}) * 100)`
)

// PrometheusCollector queries a Prometheus server for pool-wide average
// CPU and RAM utilization.
type PrometheusCollector struct {
	api    promv1.API
	poolID string
}

type PrometheusConfig struct {
	URL    string
	PoolID string

	// API overrides the client, for tests.
	API promv1.API
}

func NewPrometheusCollector(cfg PrometheusConfig) (*PrometheusCollector, error) {
	v1api := cfg.API
	if v1api == nil {
		if cfg.URL == "" {
			return nil, fmt.Errorf("%w: prometheus URL is required", ErrCollectionFailed)
		}
		client, err := api.NewClient(api.Config{Address: cfg.URL})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCollectionFailed, err)
		}
		v1api = promv1.NewAPI(client)
	}

	return &PrometheusCollector{
		api:    v1api,
		poolID: cfg.PoolID,
	}, nil
}

func (c *PrometheusCollector) GetMetrics(ctx context.Context) (float64, float64, error) {
	cpu, err := c.query(ctx, fmt.Sprintf(defaultCPUQuery, c.poolID))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: cpu query: %v", ErrCollectionFailed, err)
	}

	ram, err := c.query(ctx, fmt.Sprintf(defaultRAMQuery, c.poolID, c.poolID))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: ram query: %v", ErrCollectionFailed, err)
	}

	logger.WithPool(c.poolID).Debugf("Prometheus metrics: CPU=%.1f%%, RAM=%.1f%%", cpu, ram)
	return cpu, ram, nil
}

// query runs one instant PromQL query and returns the scalar value of
// the first sample, or 0 when the result is empty (no data points).
func (c *PrometheusCollector) query(ctx context.Context, q string) (float64, error) {
	result, warnings, err := c.api.Query(ctx, q, time.Now())
	if err != nil {
		return 0, err
	}
	if len(warnings) > 0 {
		logger.WithPool(c.poolID).Warnf("Prometheus query warnings: %v", warnings)
	}

	switch v := result.(type) {
	case model.Vector:
		if len(v) == 0 {
			return 0, nil
		}
		return float64(v[0].Value), nil
	case *model.Scalar:
		return float64(v.Value), nil
	default:
		return 0, fmt.Errorf("%w: unexpected result type %s", ErrInvalidResponse, result.Type())
	}
}

func (c *PrometheusCollector) HealthCheck(ctx context.Context) error {
	// An empty-result query still proves the server is reachable.
	_, _, err := c.api.Query(ctx, "up", time.Now())
	return err
}

func (c *PrometheusCollector) Close() error {
	return nil
}
