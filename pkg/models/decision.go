package models

import "time"

type ScalingAction string

const (
	ActionScaleUp   ScalingAction = "SCALE_UP"
	ActionScaleDown ScalingAction = "SCALE_DOWN"
	ActionNoChange  ScalingAction = "NO_CHANGE"
)

// ScalingDecision is the outcome of one evaluation cycle for one pool.
// It is ephemeral on the node; the backend only ever sees it folded into
// pool analytics.
type ScalingDecision struct {
	PoolID       string        `json:"pool_id"`
	Timestamp    time.Time     `json:"timestamp"`
	Action       ScalingAction `json:"action"`
	PreviousSize int           `json:"previous_size"`
	NewSize      int           `json:"new_size"`
	Reason       string        `json:"reason"`
	Success      bool          `json:"success"`
}

func (d *ScalingDecision) Changed() bool {
	return d.Action != ActionNoChange && d.Success
}

// Event returns the action name for analytics, or empty when nothing
// happened (NO_CHANGE rows carry no scaling_event).
func (d *ScalingDecision) Event() string {
	if d.Action == ActionNoChange {
		return ""
	}
	return string(d.Action)
}
