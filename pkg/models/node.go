package models

import "time"

type NodeStatus string

const (
	NodeStatusInactive NodeStatus = "inactive"
	NodeStatusActive   NodeStatus = "active"
	NodeStatusError    NodeStatus = "error"
	NodeStatusOffline  NodeStatus = "offline"
)

// Node is the backend's record of one autoscaling agent.
type Node struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Region        string     `json:"region"`
	IPAddress     string     `json:"ip_address,omitempty"`
	Description   string     `json:"description,omitempty"`
	APIKeyHash    string     `json:"-"`
	Status        NodeStatus `json:"status"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (n *Node) IsAlive(threshold time.Duration, now time.Time) bool {
	if n.LastHeartbeat == nil {
		return false
	}
	return now.Sub(*n.LastHeartbeat) <= threshold
}

type LifecycleEventType string

const (
	LifecycleWentOffline LifecycleEventType = "WENT_OFFLINE"
	LifecycleCameOnline  LifecycleEventType = "CAME_ONLINE"
	LifecycleRegistered  LifecycleEventType = "REGISTERED"
	LifecycleErrored     LifecycleEventType = "ERRORED"
)

// LifecycleLog records one node status transition worth keeping.
// Routine active->active heartbeat refreshes are not logged.
type LifecycleLog struct {
	ID             int64              `json:"id"`
	NodeID         int64              `json:"node_id"`
	EventType      LifecycleEventType `json:"event_type"`
	PreviousStatus NodeStatus         `json:"previous_status,omitempty"`
	NewStatus      NodeStatus         `json:"new_status"`
	Reason         string             `json:"reason,omitempty"`
	TriggeredBy    string             `json:"triggered_by,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}
