package collector

import (
	"fmt"
	"time"
)

const (
	MethodPrometheus = "prometheus"
	MethodCloud      = "cloud"
)

// Options selects and configures a metrics source for one pool.
type Options struct {
	Method  string
	PoolID  string
	URL     string
	Timeout time.Duration

	Resilient ResilientConfig
}

// New builds a collector for the configured monitoring method, wrapped
// with retry and circuit breaker behavior.
func New(opts Options) (Collector, error) {
	var inner Collector

	switch opts.Method {
	case MethodPrometheus:
		c, err := NewPrometheusCollector(PrometheusConfig{
			URL:    opts.URL,
			PoolID: opts.PoolID,
		})
		if err != nil {
			return nil, err
		}
		inner = c

	case MethodCloud:
		inner = NewCloudCollector(CloudConfig{
			BaseURL: opts.URL,
			PoolID:  opts.PoolID,
			Timeout: opts.Timeout,
		})

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, opts.Method)
	}

	res := opts.Resilient
	res.PoolID = opts.PoolID
	return NewResilientCollector(inner, res), nil
}
