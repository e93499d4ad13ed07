package models

// ScheduleWindow is a named time-of-day range that overrides
// metric-driven scaling with a fixed target instance count.
// Start and End are "HH:MM" wall-clock strings; Start > End means the
// window wraps midnight.
type ScheduleWindow struct {
	Name            string `json:"name" mapstructure:"name" yaml:"name"`
	Start           string `json:"start_time" mapstructure:"start_time" yaml:"start_time"`
	End             string `json:"end_time" mapstructure:"end_time" yaml:"end_time"`
	TargetInstances int    `json:"target_instances" mapstructure:"target_instances" yaml:"target_instances"`
}
