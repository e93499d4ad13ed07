package models

import "time"

// SystemAnalytics is the dashboard-level aggregate computed by the backend.
type SystemAnalytics struct {
	ActiveNodes           int       `json:"active_nodes"`
	TotalActivePools      int       `json:"total_active_pools"`
	TotalCurrentInstances int       `json:"total_current_instances"`
	PeakInstances24h      int       `json:"peak_instances_24h"`
	AvgSystemCPU          float64   `json:"avg_system_cpu"`
	AvgSystemMemory       float64   `json:"avg_system_memory"`
	LastUpdated           time.Time `json:"last_updated"`
}
