// Package lifecycle holds the node status state machine. Heartbeats
// and the offline sweeper both funnel their transitions through here
// so every status change is decided by one set of rules.
package lifecycle

import (
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

// Transition resolves the node's next status from its current status
// and the health it reported in a heartbeat. The returned event is nil
// for routine refreshes that are not worth a lifecycle log row.
func Transition(current models.NodeStatus, reported string) (models.NodeStatus, *models.LifecycleEventType) {
	if reported == "error" {
		if current == models.NodeStatusError {
			return models.NodeStatusError, nil
		}
		return models.NodeStatusError, eventPtr(models.LifecycleErrored)
	}

	// Any non-error heartbeat proves the node is alive.
	switch current {
	case models.NodeStatusActive:
		return models.NodeStatusActive, nil
	case models.NodeStatusOffline:
		// Recovery and first activation share the CAME_ONLINE event
		// type; the log row's previous_status field tells them apart.
		return models.NodeStatusActive, eventPtr(models.LifecycleCameOnline)
	default:
		return models.NodeStatusActive, eventPtr(models.LifecycleCameOnline)
	}
}

// MarkOffline is the sweeper-side transition for a silent node.
func MarkOffline(current models.NodeStatus) (models.NodeStatus, *models.LifecycleEventType) {
	if current == models.NodeStatusOffline {
		return models.NodeStatusOffline, nil
	}
	return models.NodeStatusOffline, eventPtr(models.LifecycleWentOffline)
}

func eventPtr(e models.LifecycleEventType) *models.LifecycleEventType {
	return &e
}
