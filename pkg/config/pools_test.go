package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPoolsYAML = `
pools:
  - oracle_pool_id: ocid1.instancepool.oc1..alpha
    region: us-ashburn-1
    poll_interval: 1m
    monitoring:
      method: prometheus
      url: http://prometheus:9090
    scaling_limits:
      min: 2
      max: 8
    thresholds:
      cpu:
        min: 20
        max: 70
      ram:
        min: 20
        max: 80
    schedules:
      - name: business-hours
        start_time: "09:00"
        end_time: "17:00"
        target_instances: 5
      - name: night-batch
        start_time: "22:00"
        end_time: "02:00"
        target_instances: 3
`

func TestParsePools_Valid(t *testing.T) {
	cfg, err := ParsePools([]byte(validPoolsYAML))
	require.NoError(t, err)
	require.Len(t, cfg.Pools, 1)

	p := cfg.Pools[0]
	assert.Equal(t, "ocid1.instancepool.oc1..alpha", p.OraclePoolID)
	assert.Equal(t, "prometheus", p.Monitoring.Method)
	assert.Equal(t, 2, p.Limits.Min)
	assert.Equal(t, 8, p.Limits.Max)
	assert.Equal(t, 70.0, p.Thresholds.CPU.Max)
	require.Len(t, p.Schedules, 2)
	assert.Equal(t, "22:00", p.Schedules[1].Start)
}

func TestParsePools_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty document",
			yaml: "pools: []",
			want: "no pools",
		},
		{
			name: "missing pool id",
			yaml: `
pools:
  - monitoring: {method: cloud, url: http://x}
    scaling_limits: {min: 1, max: 3}
    thresholds: {cpu: {min: 20, max: 70}, ram: {min: 20, max: 80}}
`,
			want: "oracle_pool_id is required",
		},
		{
			name: "min above max",
			yaml: `
pools:
  - oracle_pool_id: p
    monitoring: {method: cloud, url: http://x}
    scaling_limits: {min: 5, max: 3}
    thresholds: {cpu: {min: 20, max: 70}, ram: {min: 20, max: 80}}
`,
			want: "scaling_limits",
		},
		{
			name: "threshold min not below max",
			yaml: `
pools:
  - oracle_pool_id: p
    monitoring: {method: cloud, url: http://x}
    scaling_limits: {min: 1, max: 3}
    thresholds: {cpu: {min: 70, max: 70}, ram: {min: 20, max: 80}}
`,
			want: "cpu thresholds",
		},
		{
			name: "overlapping schedules",
			yaml: `
pools:
  - oracle_pool_id: p
    monitoring: {method: cloud, url: http://x}
    scaling_limits: {min: 1, max: 10}
    thresholds: {cpu: {min: 20, max: 70}, ram: {min: 20, max: 80}}
    schedules:
      - {name: a, start_time: "09:00", end_time: "12:00", target_instances: 4}
      - {name: b, start_time: "11:00", end_time: "14:00", target_instances: 6}
`,
			want: "overlap",
		},
		{
			name: "schedule target outside limits",
			yaml: `
pools:
  - oracle_pool_id: p
    monitoring: {method: cloud, url: http://x}
    scaling_limits: {min: 1, max: 4}
    thresholds: {cpu: {min: 20, max: 70}, ram: {min: 20, max: 80}}
    schedules:
      - {name: a, start_time: "09:00", end_time: "12:00", target_instances: 9}
`,
			want: "outside limits",
		},
		{
			name: "malformed window time",
			yaml: `
pools:
  - oracle_pool_id: p
    monitoring: {method: cloud, url: http://x}
    scaling_limits: {min: 1, max: 4}
    thresholds: {cpu: {min: 20, max: 70}, ram: {min: 20, max: 80}}
    schedules:
      - {name: a, start_time: "9am", end_time: "12:00", target_instances: 2}
`,
			want: "invalid time format",
		},
		{
			name: "duplicate pool ids",
			yaml: `
pools:
  - oracle_pool_id: p
    monitoring: {method: cloud, url: http://x}
    scaling_limits: {min: 1, max: 4}
    thresholds: {cpu: {min: 20, max: 70}, ram: {min: 20, max: 80}}
  - oracle_pool_id: p
    monitoring: {method: cloud, url: http://x}
    scaling_limits: {min: 1, max: 4}
    thresholds: {cpu: {min: 20, max: 70}, ram: {min: 20, max: 80}}
`,
			want: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePools([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHash(t *testing.T) {
	a := Hash([]byte(validPoolsYAML))
	b := Hash([]byte(validPoolsYAML))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	// Any byte change, even whitespace, is a different config identity.
	c := Hash([]byte(validPoolsYAML + "\n"))
	assert.NotEqual(t, a, c)
}
