package models

import "time"

type PoolStatus string

const (
	PoolStatusHealthy  PoolStatus = "healthy"
	PoolStatusWarning  PoolStatus = "warning"
	PoolStatusError    PoolStatus = "error"
	PoolStatusInactive PoolStatus = "inactive"
)

// Pool is the backend's record of one managed instance pool.
// CurrentInstances mirrors the size last reported by the owning node;
// the cloud provider remains authoritative.
type Pool struct {
	ID               int64      `json:"id"`
	NodeID           int64      `json:"node_id"`
	OraclePoolID     string     `json:"oracle_pool_id"`
	Name             string     `json:"name"`
	Region           string     `json:"region"`
	MinInstances     int        `json:"min_instances"`
	MaxInstances     int        `json:"max_instances"`
	CurrentInstances int        `json:"current_instances"`
	Status           PoolStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ScalingLimits bounds the instance count the engines may set.
type ScalingLimits struct {
	Min int `json:"min" mapstructure:"min" yaml:"min"`
	Max int `json:"max" mapstructure:"max" yaml:"max"`
}

func (l ScalingLimits) Valid() bool {
	return l.Min >= 0 && l.Min <= l.Max
}

// ThresholdRange is a {min, max} percentage pair for one metric.
type ThresholdRange struct {
	Min float64 `json:"min" mapstructure:"min" yaml:"min"`
	Max float64 `json:"max" mapstructure:"max" yaml:"max"`
}

func (t ThresholdRange) Valid() bool {
	return t.Min < t.Max
}

// Thresholds holds the CPU and RAM threshold pairs for one pool.
type Thresholds struct {
	CPU ThresholdRange `json:"cpu" mapstructure:"cpu" yaml:"cpu"`
	RAM ThresholdRange `json:"ram" mapstructure:"ram" yaml:"ram"`
}
