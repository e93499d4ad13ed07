// Package schedule drives a pool toward a fixed target instance count
// during configured time-of-day windows, overriding metric-driven
// scaling while a window is open.
package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/internal/pool"
	"github.com/ExoPexodus/crimson-cloud-command/internal/timewindow"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

const defaultTickInterval = 30 * time.Second

type Config struct {
	PoolID       string
	Windows      []models.ScheduleWindow
	Limits       models.ScalingLimits
	TickInterval time.Duration

	// Now is the clock; tests override it. Defaults to time.Now.
	Now func() time.Time
}

// Engine is the per-pool schedule state machine: IDLE until any window
// matches the wall clock, SCHEDULE_ACTIVE while one does.
type Engine struct {
	config  Config
	gateway *pool.Gateway

	active  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewEngine(cfg Config, gateway *pool.Gateway) *Engine {
	if cfg.TickInterval == 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		config:  cfg,
		gateway: gateway,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return
	}
	e.running = true

	e.wg.Add(1)
	go e.run()

	logger.WithPool(e.config.PoolID).Infof("Schedule engine started (%d windows)", len(e.config.Windows))
}

// Stop is idempotent; the tick loop observes cancellation within one
// tick interval.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()

	logger.WithPool(e.config.PoolID).Info("Schedule engine stopped")
}

// IsActive is the non-blocking snapshot the scaling engine polls before
// scaling down. It never blocks on the engine's own tick.
func (e *Engine) IsActive() bool {
	return e.active.Load()
}

func (e *Engine) run() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.TickInterval)
	defer ticker.Stop()

	e.Tick(e.ctx)

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.Tick(e.ctx)
		}
	}
}

// Tick evaluates every window against the clock and, when one matches,
// drives the pool toward that window's target. Exported so tests can
// step the state machine without running the ticker.
func (e *Engine) Tick(ctx context.Context) {
	window, matched := e.matchWindow()

	wasActive := e.active.Load()
	e.active.Store(matched)

	if !matched {
		if wasActive {
			logger.WithPool(e.config.PoolID).Info("Schedule window closed, returning to metric-driven scaling")
		}
		return
	}

	if !wasActive {
		logger.WithPool(e.config.PoolID).Infof(
			"Schedule window %q open, driving pool toward %d instances",
			window.Name, window.TargetInstances,
		)
	}

	e.driveToward(ctx, window)
}

// matchWindow returns the first window containing the current time.
// Overlaps are rejected at config load, so declared order is only a
// formality here; it still makes the behavior deterministic.
func (e *Engine) matchWindow() (models.ScheduleWindow, bool) {
	now := e.config.Now()
	for _, w := range e.config.Windows {
		if timewindow.IsActive(w.Start, w.End, now) {
			return w, true
		}
	}
	return models.ScheduleWindow{}, false
}

// driveToward resizes the pool straight to the window's target. The
// current size is read under the pool's lock inside the gateway, so an
// out-of-band resize since the last tick can never combine with a stale
// earlier read into a move past the target. A move that would cross the
// pool's limits is dropped whole; the next tick tries again from
// whatever size the pool actually has.
func (e *Engine) driveToward(ctx context.Context, window models.ScheduleWindow) {
	previous, updated, changed, err := e.gateway.ResizeToward(
		ctx, e.config.PoolID, window.TargetInstances, e.config.Limits.Min, e.config.Limits.Max,
	)
	if err != nil {
		logger.WithPool(e.config.PoolID).Errorf("Schedule resize failed: %v", err)
		return
	}

	if !changed {
		if previous != window.TargetInstances {
			logger.WithPool(e.config.PoolID).Warnf(
				"Dropping schedule resize %d -> %d for window %q: outside limits [%d, %d]",
				previous, window.TargetInstances, window.Name, e.config.Limits.Min, e.config.Limits.Max,
			)
		}
		return
	}

	logger.WithPool(e.config.PoolID).Infof(
		"Schedule window %q resized pool %d -> %d", window.Name, previous, updated,
	)
}
