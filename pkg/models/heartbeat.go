package models

import "time"

// PoolAnalytics is one pool's sample as carried in a heartbeat and
// persisted by the backend, one row per reported pool per heartbeat.
type PoolAnalytics struct {
	OraclePoolID         string   `json:"oracle_pool_id"`
	CurrentInstances     int      `json:"current_instances"`
	ActiveInstances      int      `json:"active_instances"`
	AvgCPUUtilization    float64  `json:"avg_cpu_utilization"`
	AvgMemoryUtilization float64  `json:"avg_memory_utilization"`
	MaxCPUUtilization    *float64 `json:"max_cpu_utilization,omitempty"`
	MaxMemoryUtilization *float64 `json:"max_memory_utilization,omitempty"`
	PoolStatus           string   `json:"pool_status"`
	IsActive             bool     `json:"is_active"`
	ScalingEvent         string   `json:"scaling_event,omitempty"`
	ScalingReason        string   `json:"scaling_reason,omitempty"`
}

// AnalyticsRecord is a stored PoolAnalytics row.
type AnalyticsRecord struct {
	ID        int64     `json:"id"`
	NodeID    int64     `json:"node_id"`
	PoolID    int64     `json:"pool_id"`
	Timestamp time.Time `json:"timestamp"`
	PoolAnalytics
}

// Heartbeat is the node -> backend status message.
type Heartbeat struct {
	Status        string                 `json:"status"`
	ConfigHash    string                 `json:"config_hash,omitempty"`
	ErrorMessage  string                 `json:"error_message,omitempty"`
	PoolAnalytics []PoolAnalytics        `json:"pool_analytics"`
	MetricsData   map[string]interface{} `json:"metrics_data,omitempty"`
}

// HeartbeatAck is the backend -> node response.
type HeartbeatAck struct {
	Status             string `json:"status"`
	ConfigUpdateNeeded bool   `json:"config_update_needed"`
	CurrentConfigHash  string `json:"current_config_hash,omitempty"`
	NewConfig          string `json:"new_config,omitempty"`
}

// RegisterRequest is the one-time node registration payload.
type RegisterRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Region      string `json:"region" binding:"required,min=1,max=100"`
	IPAddress   string `json:"ip_address,omitempty"`
	Description string `json:"description,omitempty"`
}

// RegisterResponse carries the credentials; the API key is shown only here.
type RegisterResponse struct {
	NodeID int64  `json:"node_id"`
	APIKey string `json:"api_key"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

// NoConfigSentinel is returned by the config endpoint when no
// configuration has been pushed yet, so nodes can treat "no config"
// as a normal state rather than an error.
const NoConfigSentinel = "# no configuration set yet"

// ConfigResponse wraps the authoritative YAML configuration blob.
type ConfigResponse struct {
	YAMLConfig string `json:"yaml_config"`
	ConfigHash string `json:"config_hash,omitempty"`
}
