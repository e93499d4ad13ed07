package models

import "time"

type EventType string

const (
	EventTypeHeartbeatReceived EventType = "heartbeat_received"
	EventTypeNodeRegistered    EventType = "node_registered"
	EventTypeNodeOnline        EventType = "node_online"
	EventTypeNodeOffline       EventType = "node_offline"
	EventTypeNodeError         EventType = "node_error"
	EventTypeAnalyticsStored   EventType = "analytics_stored"
	EventTypeConfigDrift       EventType = "config_drift"
	EventTypeConfigPushed      EventType = "config_pushed"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is a backend-side notification fanned out to dashboard clients.
type Event struct {
	Type      EventType   `json:"type"`
	NodeID    int64       `json:"node_id"`
	Message   string      `json:"message"`
	Severity  Severity    `json:"severity"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

func NewEvent(eventType EventType, nodeID int64, message string) *Event {
	return &Event{
		Type:      eventType,
		NodeID:    nodeID,
		Message:   message,
		Severity:  SeverityInfo,
		Timestamp: time.Now(),
	}
}

func (e *Event) WithSeverity(s Severity) *Event {
	e.Severity = s
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}
