// Package scaling turns one pool's metrics sample into at most one
// resize of at most one instance, in a strict precedence order:
// invalid metrics, no data, bound correction, high breach, low breach,
// no change. Bound correction deliberately beats thresholds: a pool
// sitting outside its configured limits is a configuration bug, not a
// load signal.
package scaling

import (
	"context"
	"fmt"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/internal/pool"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

// ScheduleActiveFunc is a non-blocking snapshot of whether a schedule
// is currently driving the pool. It must have no side effects.
type ScheduleActiveFunc func() bool

type Engine struct {
	gateway *pool.Gateway
}

func NewEngine(gateway *pool.Gateway) *Engine {
	return &Engine{gateway: gateway}
}

// Input carries one evaluation cycle's inputs for one pool.
type Input struct {
	PoolID         string
	CPU            float64
	RAM            float64
	Thresholds     models.Thresholds
	Limits         models.ScalingLimits
	ScheduleActive ScheduleActiveFunc
}

// Evaluate runs the precedence ladder for one cycle. First matching
// rule wins; evaluation stops there. Scaling moves the pool by exactly
// one instance per cycle, relying on the fixed poll interval to repeat
// the correction rather than overshoot in one step. Provider failures
// never propagate: they come back as a failed decision.
func (e *Engine) Evaluate(ctx context.Context, in Input) *models.ScalingDecision {
	decision := &models.ScalingDecision{
		PoolID:    in.PoolID,
		Timestamp: time.Now(),
		Action:    models.ActionNoChange,
	}

	if in.CPU < 0 || in.RAM < 0 {
		decision.Reason = fmt.Sprintf("invalid metrics: CPU=%.1f, RAM=%.1f", in.CPU, in.RAM)
		logger.WithPool(in.PoolID).Errorf("Skipping scaling: %s", decision.Reason)
		return decision
	}

	if in.CPU == 0 && in.RAM == 0 {
		decision.Reason = "no valid metric data available"
		logger.WithPool(in.PoolID).Warn("Skipping scaling: no valid metric data available")
		return decision
	}

	currentSize, err := e.gateway.GetSize(ctx, in.PoolID)
	if err != nil {
		decision.Reason = err.Error()
		logger.WithPool(in.PoolID).Errorf("Failed to read pool size: %v", err)
		return decision
	}
	decision.PreviousSize = currentSize
	decision.NewSize = currentSize

	switch {
	case currentSize < in.Limits.Min:
		reason := fmt.Sprintf("pool size (%d) below minimum limit (%d)", currentSize, in.Limits.Min)
		logger.WithPool(in.PoolID).Warnf("%s, prioritizing scale up", reason)
		return e.scaleUp(ctx, in, decision, reason)

	case currentSize > in.Limits.Max:
		reason := fmt.Sprintf("pool size (%d) exceeds maximum limit (%d)", currentSize, in.Limits.Max)
		logger.WithPool(in.PoolID).Warnf("%s, prioritizing scale down", reason)
		return e.scaleDown(ctx, in, decision, reason)

	case in.CPU > in.Thresholds.CPU.Max || in.RAM > in.Thresholds.RAM.Max:
		reason := fmt.Sprintf(
			"CPU or RAM exceeded thresholds: CPU %.1f%% (max %.1f%%), RAM %.1f%% (max %.1f%%)",
			in.CPU, in.Thresholds.CPU.Max, in.RAM, in.Thresholds.RAM.Max,
		)
		return e.scaleUp(ctx, in, decision, reason)

	case in.CPU < in.Thresholds.CPU.Min || in.RAM < in.Thresholds.RAM.Min:
		if in.ScheduleActive != nil && in.ScheduleActive() {
			decision.Reason = "blocked by active schedule"
			decision.Success = true
			logger.WithPool(in.PoolID).Info("Schedule active, suppressing scale down")
			return decision
		}
		reason := fmt.Sprintf(
			"CPU or RAM below thresholds: CPU %.1f%% (min %.1f%%), RAM %.1f%% (min %.1f%%)",
			in.CPU, in.Thresholds.CPU.Min, in.RAM, in.Thresholds.RAM.Min,
		)
		return e.scaleDown(ctx, in, decision, reason)

	default:
		decision.Reason = "within thresholds"
		decision.Success = true
		logger.WithPool(in.PoolID).Debug("No scaling required: metrics within thresholds")
		return decision
	}
}

func (e *Engine) scaleUp(ctx context.Context, in Input, decision *models.ScalingDecision, reason string) *models.ScalingDecision {
	previous, updated, changed, err := e.gateway.ResizeWithin(ctx, in.PoolID, +1, 0, in.Limits.Max)
	if err != nil {
		decision.Reason = err.Error()
		logger.WithPool(in.PoolID).Errorf("Scale up failed: %v", err)
		return decision
	}

	decision.PreviousSize = previous
	decision.NewSize = updated

	if !changed {
		decision.Reason = fmt.Sprintf("at max limit (%d)", in.Limits.Max)
		logger.WithPool(in.PoolID).Warnf("Cannot scale up: size %d at max limit %d", previous, in.Limits.Max)
		return decision
	}

	decision.Action = models.ActionScaleUp
	decision.Reason = reason
	decision.Success = true
	logger.WithPool(in.PoolID).Infof("Scaled up %d -> %d (%s)", previous, updated, reason)
	return decision
}

func (e *Engine) scaleDown(ctx context.Context, in Input, decision *models.ScalingDecision, reason string) *models.ScalingDecision {
	previous, updated, changed, err := e.gateway.ResizeWithin(ctx, in.PoolID, -1, in.Limits.Min, in.Limits.Max)
	if err != nil {
		decision.Reason = err.Error()
		logger.WithPool(in.PoolID).Errorf("Scale down failed: %v", err)
		return decision
	}

	decision.PreviousSize = previous
	decision.NewSize = updated

	if !changed {
		decision.Reason = fmt.Sprintf("at min limit (%d)", in.Limits.Min)
		logger.WithPool(in.PoolID).Warnf("Cannot scale down: size %d at min limit %d", previous, in.Limits.Min)
		return decision
	}

	decision.Action = models.ActionScaleDown
	decision.Reason = reason
	decision.Success = true
	logger.WithPool(in.PoolID).Infof("Scaled down %d -> %d (%s)", previous, updated, reason)
	return decision
}
