package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
)

// CloudCollector pulls pool utilization from the cloud provider's
// monitoring endpoint over HTTP.
type CloudCollector struct {
	baseURL string
	poolID  string
	client  *http.Client
}

type CloudConfig struct {
	BaseURL string
	PoolID  string
	Timeout time.Duration
}

type cloudMetricsResponse struct {
	PoolID         string  `json:"pool_id"`
	CPUUtilization float64 `json:"cpu_utilization"`
	RAMUtilization float64 `json:"ram_utilization"`
	SampleCount    int     `json:"sample_count"`
}

func NewCloudCollector(cfg CloudConfig) *CloudCollector {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &CloudCollector{
		baseURL: cfg.BaseURL,
		poolID:  cfg.PoolID,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *CloudCollector) GetMetrics(ctx context.Context) (float64, float64, error) {
	url := fmt.Sprintf("%s/pools/%s/metrics", c.baseURL, c.poolID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrCollectionFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return 0, 0, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return 0, 0, fmt.Errorf("%w: %v", ErrCollectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("%w: monitoring endpoint returned %d", ErrCollectionFailed, resp.StatusCode)
	}

	var body cloudMetricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	// No samples means the monitoring service has nothing for this
	// window, which callers treat as a no-data cycle.
	if body.SampleCount == 0 {
		logger.WithPool(c.poolID).Debug("Monitoring endpoint returned no samples")
		return 0, 0, nil
	}

	return body.CPUUtilization, body.RAMUtilization, nil
}

func (c *CloudCollector) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("monitoring endpoint unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func (c *CloudCollector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
