package scaling

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExoPexodus/crimson-cloud-command/internal/pool"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

const testPoolID = "ocid1.instancepool.oc1..test"

func testInput(cpu, ram float64, scheduleActive bool) Input {
	return Input{
		PoolID: testPoolID,
		CPU:    cpu,
		RAM:    ram,
		Thresholds: models.Thresholds{
			CPU: models.ThresholdRange{Min: 20, Max: 70},
			RAM: models.ThresholdRange{Min: 20, Max: 80},
		},
		Limits:         models.ScalingLimits{Min: 2, Max: 8},
		ScheduleActive: func() bool { return scheduleActive },
	}
}

func newTestEngine(size int) (*Engine, *pool.FakeController) {
	controller := pool.NewFakeController()
	controller.SetSize(testPoolID, size)
	return NewEngine(pool.NewGateway(controller)), controller
}

func TestEngine_Evaluate(t *testing.T) {
	tests := []struct {
		name           string
		size           int
		cpu            float64
		ram            float64
		scheduleActive bool
		wantAction     models.ScalingAction
		wantNewSize    int
		wantSuccess    bool
		wantReason     string
	}{
		{
			name: "invalid metrics take precedence",
			size: 3, cpu: -1, ram: 50,
			wantAction: models.ActionNoChange, wantNewSize: 0,
			wantSuccess: false, wantReason: "invalid metrics: CPU=-1.0, RAM=50.0",
		},
		{
			name: "no metric data",
			size: 3, cpu: 0, ram: 0,
			wantAction: models.ActionNoChange, wantNewSize: 0,
			wantSuccess: false, wantReason: "no valid metric data available",
		},
		{
			name: "below min bound forces scale up regardless of metrics",
			size: 1, cpu: 5, ram: 5,
			wantAction: models.ActionScaleUp, wantNewSize: 2,
			wantSuccess: true, wantReason: "pool size (1) below minimum limit (2)",
		},
		{
			name: "above max bound forces scale down regardless of metrics",
			size: 12, cpu: 95, ram: 95,
			wantAction: models.ActionScaleDown, wantNewSize: 11,
			wantSuccess: true, wantReason: "pool size (12) exceeds maximum limit (8)",
		},
		{
			name: "cpu high breach scales up by one",
			size: 3, cpu: 85, ram: 50,
			wantAction: models.ActionScaleUp, wantNewSize: 4, wantSuccess: true,
			wantReason: "CPU or RAM exceeded thresholds: CPU 85.0% (max 70.0%), RAM 50.0% (max 80.0%)",
		},
		{
			name: "ram high breach alone scales up",
			size: 3, cpu: 50, ram: 90,
			wantAction: models.ActionScaleUp, wantNewSize: 4, wantSuccess: true,
			wantReason: "CPU or RAM exceeded thresholds: CPU 50.0% (max 70.0%), RAM 90.0% (max 80.0%)",
		},
		{
			name: "high breach at max limit is clamped",
			size: 8, cpu: 95, ram: 50,
			wantAction: models.ActionNoChange, wantNewSize: 8,
			wantSuccess: false, wantReason: "at max limit (8)",
		},
		{
			name: "low breach scales down by one",
			size: 4, cpu: 10, ram: 50,
			wantAction: models.ActionScaleDown, wantNewSize: 3, wantSuccess: true,
			wantReason: "CPU or RAM below thresholds: CPU 10.0% (min 20.0%), RAM 50.0% (min 20.0%)",
		},
		{
			name: "low breach at min limit is clamped",
			size: 2, cpu: 10, ram: 50,
			wantAction: models.ActionNoChange, wantNewSize: 2,
			wantSuccess: false, wantReason: "at min limit (2)",
		},
		{
			name: "active schedule suppresses scale down",
			size: 4, cpu: 10, ram: 50, scheduleActive: true,
			wantAction: models.ActionNoChange, wantNewSize: 4,
			wantSuccess: true, wantReason: "blocked by active schedule",
		},
		{
			name: "schedule never suppresses scale up",
			size: 4, cpu: 85, ram: 50, scheduleActive: true,
			wantAction: models.ActionScaleUp, wantNewSize: 5, wantSuccess: true,
			wantReason: "CPU or RAM exceeded thresholds: CPU 85.0% (max 70.0%), RAM 50.0% (max 80.0%)",
		},
		{
			name: "within thresholds",
			size: 4, cpu: 45, ram: 50,
			wantAction: models.ActionNoChange, wantNewSize: 4,
			wantSuccess: true, wantReason: "within thresholds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(tt.size)

			decision := engine.Evaluate(context.Background(), testInput(tt.cpu, tt.ram, tt.scheduleActive))

			assert.Equal(t, tt.wantAction, decision.Action)
			assert.Equal(t, tt.wantNewSize, decision.NewSize)
			assert.Equal(t, tt.wantSuccess, decision.Success)
			assert.Equal(t, tt.wantReason, decision.Reason)
		})
	}
}

func TestEngine_Evaluate_Damping(t *testing.T) {
	// A single cycle never moves the pool by more than one instance,
	// even when the size is far outside the limits.
	engine, controller := newTestEngine(20)

	decision := engine.Evaluate(context.Background(), testInput(50, 50, false))

	require.Equal(t, models.ActionScaleDown, decision.Action)
	assert.Equal(t, 20, decision.PreviousSize)
	assert.Equal(t, 19, decision.NewSize)
	assert.Equal(t, []int{19}, controller.Resizes())
}

func TestEngine_Evaluate_ProviderFailure(t *testing.T) {
	engine, controller := newTestEngine(4)
	controller.FailResize(errors.New("compute API unavailable"))

	decision := engine.Evaluate(context.Background(), testInput(85, 50, false))

	assert.Equal(t, models.ActionNoChange, decision.Action)
	assert.False(t, decision.Success)
	assert.Contains(t, decision.Reason, "compute API unavailable")
}

func TestEngine_Evaluate_SizeReadFailure(t *testing.T) {
	engine, controller := newTestEngine(4)
	controller.FailGet(errors.New("timeout talking to provider"))

	decision := engine.Evaluate(context.Background(), testInput(85, 50, false))

	assert.False(t, decision.Success)
	assert.Contains(t, decision.Reason, "timeout talking to provider")
}

func TestEngine_Evaluate_EndToEndScenario(t *testing.T) {
	// Pool at 3 inside [2,8]: nominal metrics hold, a CPU spike adds
	// one instance, then an active schedule blocks the scale-down that
	// low CPU would otherwise trigger.
	engine, controller := newTestEngine(3)
	ctx := context.Background()

	d := engine.Evaluate(ctx, testInput(45, 50, false))
	assert.Equal(t, models.ActionNoChange, d.Action)
	assert.True(t, d.Success)

	d = engine.Evaluate(ctx, testInput(85, 50, false))
	assert.Equal(t, models.ActionScaleUp, d.Action)
	assert.Equal(t, 4, d.NewSize)

	d = engine.Evaluate(ctx, testInput(10, 50, true))
	assert.Equal(t, models.ActionNoChange, d.Action)
	assert.Equal(t, "blocked by active schedule", d.Reason)
	assert.True(t, d.Success)

	size, err := controller.GetSize(ctx, testPoolID)
	require.NoError(t, err)
	assert.Equal(t, 4, size)
}
