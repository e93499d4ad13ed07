package agent

import (
	"context"
	"sync"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/analytics"
	"github.com/ExoPexodus/crimson-cloud-command/internal/collector"
	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/internal/metrics"
	"github.com/ExoPexodus/crimson-cloud-command/internal/pool"
	"github.com/ExoPexodus/crimson-cloud-command/internal/scaling"
	"github.com/ExoPexodus/crimson-cloud-command/internal/schedule"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/config"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

const defaultPollInterval = 60 * time.Second

// Pipeline runs one pool's poll loop: collect metrics, evaluate the
// scaling rules, queue an analytics record for the next heartbeat.
type Pipeline struct {
	poolCfg   config.PoolConfig
	interval  time.Duration
	collector collector.Collector
	engine    *scaling.Engine
	gateway   *pool.Gateway
	sched     *schedule.Engine
	queue     *analytics.Queue

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewPipeline(poolCfg config.PoolConfig, coll collector.Collector, gateway *pool.Gateway, sched *schedule.Engine, queue *analytics.Queue) *Pipeline {
	interval := poolCfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		poolCfg:   poolCfg,
		interval:  interval,
		collector: coll,
		engine:    scaling.NewEngine(gateway),
		gateway:   gateway,
		sched:     sched,
		queue:     queue,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.running = true
	p.sched.Start()
	p.wg.Add(1)
	go p.run()

	logger.WithPool(p.poolCfg.OraclePoolID).Info("Pool pipeline started")
	return nil
}

func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	p.sched.Stop()
	p.collector.Close()

	logger.WithPool(p.poolCfg.OraclePoolID).Info("Pool pipeline stopped")
}

func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pipeline) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Run immediately on start
	p.runCycle()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.runCycle()
		}
	}
}

func (p *Pipeline) runCycle() {
	ctx, cancel := context.WithTimeout(p.ctx, p.interval)
	defer cancel()

	poolID := p.poolCfg.OraclePoolID
	metrics.PollCyclesTotal.WithLabelValues(poolID).Inc()

	cpu, ram, err := p.collector.GetMetrics(ctx)
	poolStatus := models.PoolStatusHealthy
	if err != nil {
		metrics.CollectionErrorsTotal.WithLabelValues(poolID).Inc()
		logger.WithPool(poolID).Errorf("Metric collection failed: %v", err)
		// Zeroed metrics fall through as a no-data cycle.
		cpu, ram = 0, 0
		poolStatus = models.PoolStatusWarning
	}

	decision := p.engine.Evaluate(ctx, scaling.Input{
		PoolID:         poolID,
		CPU:            cpu,
		RAM:            ram,
		Thresholds:     p.poolCfg.Thresholds,
		Limits:         p.poolCfg.Limits,
		ScheduleActive: p.sched.IsActive,
	})

	p.record(poolID, cpu, ram, poolStatus, decision)
}

func (p *Pipeline) record(poolID string, cpu, ram float64, poolStatus models.PoolStatus, decision *models.ScalingDecision) {
	metrics.PoolCPU.WithLabelValues(poolID).Set(cpu)
	metrics.PoolMemory.WithLabelValues(poolID).Set(ram)
	metrics.PoolSize.WithLabelValues(poolID).Set(float64(decision.NewSize))
	metrics.DecisionsTotal.WithLabelValues(poolID, string(decision.Action)).Inc()
	if decision.Changed() {
		metrics.ScalingEventsTotal.WithLabelValues(poolID, string(decision.Action)).Inc()
	}
	if p.sched.IsActive() {
		metrics.ScheduleActive.WithLabelValues(poolID).Set(1)
	} else {
		metrics.ScheduleActive.WithLabelValues(poolID).Set(0)
	}

	p.queue.Append(models.PoolAnalytics{
		OraclePoolID:         poolID,
		CurrentInstances:     decision.NewSize,
		ActiveInstances:      decision.NewSize,
		AvgCPUUtilization:    cpu,
		AvgMemoryUtilization: ram,
		PoolStatus:           string(poolStatus),
		IsActive:             true,
		ScalingEvent:         decision.Event(),
		ScalingReason:        decision.Reason,
	})
}
