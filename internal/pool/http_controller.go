package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
)

// HTTPController talks to a provider-neutral instance pool API
// (a thin sidecar in front of the real cloud SDK). It exists so the
// engines stay provider-agnostic; swapping clouds means swapping this
// adapter, not the engines.
type HTTPController struct {
	client   *http.Client
	endpoint string
}

type HTTPControllerConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewHTTPController(cfg HTTPControllerConfig) *HTTPController {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &HTTPController{
		client:   &http.Client{Timeout: timeout},
		endpoint: cfg.Endpoint,
	}
}

type poolSizeResponse struct {
	PoolID string `json:"pool_id"`
	Size   int    `json:"size"`
}

func (c *HTTPController) GetSize(ctx context.Context, poolID string) (int, error) {
	url := fmt.Sprintf("%s/pools/%s", c.endpoint, poolID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrPoolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: unexpected status %d", ErrProviderError, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	var sizeResp poolSizeResponse
	if err := json.Unmarshal(body, &sizeResp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	return sizeResp.Size, nil
}

type resizeRequest struct {
	Size int `json:"size"`
}

func (c *HTTPController) Resize(ctx context.Context, poolID string, newSize int) error {
	if newSize < 0 {
		return ErrInvalidSize
	}

	payload, err := json.Marshal(resizeRequest{Size: newSize})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResizeFailed, err)
	}

	url := fmt.Sprintf("%s/pools/%s/resize", c.endpoint, poolID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResizeFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.WithPool(poolID).Debugf("Requesting resize to %d via %s", newSize, url)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResizeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrPoolNotFound
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: unexpected status %d", ErrResizeFailed, resp.StatusCode)
	}

	return nil
}
