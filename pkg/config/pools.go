package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ExoPexodus/crimson-cloud-command/internal/timewindow"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

var ErrNoPools = errors.New("configuration has no pools")

// PoolsConfig is the pool definition document the backend pushes to a
// node. It travels as an opaque YAML blob; Hash of the raw bytes is the
// node's config identity for drift detection.
type PoolsConfig struct {
	Pools []PoolConfig `yaml:"pools"`
}

type PoolConfig struct {
	OraclePoolID string                  `yaml:"oracle_pool_id"`
	Region       string                  `yaml:"region,omitempty"`
	PollInterval time.Duration           `yaml:"poll_interval,omitempty"`
	Monitoring   MonitoringConfig        `yaml:"monitoring"`
	Limits       models.ScalingLimits    `yaml:"scaling_limits"`
	Thresholds   models.Thresholds       `yaml:"thresholds"`
	Schedules    []models.ScheduleWindow `yaml:"schedules,omitempty"`
}

type MonitoringConfig struct {
	Method  string        `yaml:"method"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Hash is the identity of a configuration blob: hex SHA-256 of the raw
// YAML bytes, whitespace and comments included.
func Hash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// ParsePools decodes and validates a pool configuration document.
// Anything invalid is rejected whole; a node never runs half a config.
func ParsePools(raw []byte) (*PoolsConfig, error) {
	var cfg PoolsConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pools config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *PoolsConfig) Validate() error {
	if len(c.Pools) == 0 {
		return ErrNoPools
	}

	seen := make(map[string]bool, len(c.Pools))
	for i := range c.Pools {
		p := &c.Pools[i]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pool %q: %w", p.OraclePoolID, err)
		}
		if seen[p.OraclePoolID] {
			return fmt.Errorf("pool %q: duplicate oracle_pool_id", p.OraclePoolID)
		}
		seen[p.OraclePoolID] = true
	}
	return nil
}

func (p *PoolConfig) Validate() error {
	if p.OraclePoolID == "" {
		return errors.New("oracle_pool_id is required")
	}
	if p.Monitoring.Method == "" {
		return errors.New("monitoring.method is required")
	}
	if p.Monitoring.URL == "" {
		return errors.New("monitoring.url is required")
	}
	if !p.Limits.Valid() {
		return fmt.Errorf("scaling_limits must satisfy 0 <= min <= max, got min=%d max=%d",
			p.Limits.Min, p.Limits.Max)
	}
	if !p.Thresholds.CPU.Valid() {
		return fmt.Errorf("cpu thresholds must satisfy min < max, got min=%.1f max=%.1f",
			p.Thresholds.CPU.Min, p.Thresholds.CPU.Max)
	}
	if !p.Thresholds.RAM.Valid() {
		return fmt.Errorf("ram thresholds must satisfy min < max, got min=%.1f max=%.1f",
			p.Thresholds.RAM.Min, p.Thresholds.RAM.Max)
	}
	return p.validateSchedules()
}

// validateSchedules rejects malformed windows, out-of-limit targets and
// overlapping windows up front, so the runtime never has to choose
// between two windows claiming the same minute.
func (p *PoolConfig) validateSchedules() error {
	for i, w := range p.Schedules {
		if _, err := timewindow.Contains(w.Start, w.End, time.Time{}); err != nil {
			return fmt.Errorf("schedule %q: %w", w.Name, err)
		}
		if w.TargetInstances < p.Limits.Min || w.TargetInstances > p.Limits.Max {
			return fmt.Errorf("schedule %q: target_instances %d outside limits [%d, %d]",
				w.Name, w.TargetInstances, p.Limits.Min, p.Limits.Max)
		}

		for j := 0; j < i; j++ {
			other := p.Schedules[j]
			overlap, err := timewindow.Overlaps(w.Start, w.End, other.Start, other.End)
			if err != nil {
				return fmt.Errorf("schedule %q: %w", w.Name, err)
			}
			if overlap {
				return fmt.Errorf("schedules %q and %q overlap", other.Name, w.Name)
			}
		}
	}
	return nil
}
