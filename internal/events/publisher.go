package events

import (
	"fmt"

	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

// Publisher names the events the backend emits, keeping event wording
// in one place.
type Publisher struct {
	bus *EventBus
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) NodeRegistered(node *models.Node) {
	p.bus.Publish(models.NewEvent(models.EventTypeNodeRegistered, node.ID,
		fmt.Sprintf("Node %q registered in %s", node.Name, node.Region)).
		WithData(node))
}

func (p *Publisher) HeartbeatReceived(nodeID int64, analyticsCount int) {
	p.bus.Publish(models.NewEvent(models.EventTypeHeartbeatReceived, nodeID,
		fmt.Sprintf("Heartbeat received with %d analytics records", analyticsCount)))
}

func (p *Publisher) NodeOnline(nodeID int64, previous models.NodeStatus) {
	p.bus.Publish(models.NewEvent(models.EventTypeNodeOnline, nodeID,
		fmt.Sprintf("Node came online (was %s)", previous)))
}

func (p *Publisher) NodeOffline(nodeID int64) {
	p.bus.Publish(models.NewEvent(models.EventTypeNodeOffline, nodeID,
		"Node went offline, heartbeats stopped").
		WithSeverity(models.SeverityWarning))
}

func (p *Publisher) NodeError(nodeID int64, message string) {
	p.bus.Publish(models.NewEvent(models.EventTypeNodeError, nodeID,
		"Node reported error: "+message).
		WithSeverity(models.SeverityCritical))
}

func (p *Publisher) AnalyticsStored(nodeID int64, count int) {
	p.bus.Publish(models.NewEvent(models.EventTypeAnalyticsStored, nodeID,
		fmt.Sprintf("Stored %d analytics records", count)))
}

func (p *Publisher) ConfigDrift(nodeID int64, reportedHash, currentHash string) {
	p.bus.Publish(models.NewEvent(models.EventTypeConfigDrift, nodeID,
		"Node configuration out of date").
		WithSeverity(models.SeverityWarning).
		WithData(map[string]string{
			"reported_hash": reportedHash,
			"current_hash":  currentHash,
		}))
}

func (p *Publisher) ConfigPushed(nodeID int64, hash string) {
	p.bus.Publish(models.NewEvent(models.EventTypeConfigPushed, nodeID,
		"New configuration stored for node").
		WithData(map[string]string{"config_hash": hash}))
}
