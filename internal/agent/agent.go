package agent

import (
	"fmt"
	"os"
	"sync"

	"github.com/ExoPexodus/crimson-cloud-command/internal/analytics"
	"github.com/ExoPexodus/crimson-cloud-command/internal/collector"
	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/internal/pool"
	"github.com/ExoPexodus/crimson-cloud-command/internal/schedule"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/config"
)

// Agent owns every pool pipeline on the node and swaps them as one
// unit when the backend pushes a new configuration. A config is either
// running in full or not at all.
type Agent struct {
	nodeCfg *config.NodeConfig
	queue   *analytics.Queue
	gateway *pool.Gateway

	mu        sync.RWMutex
	pipelines map[string]*Pipeline
	rawConfig []byte
	hash      string
	lastError string
}

func New(nodeCfg *config.NodeConfig, queue *analytics.Queue) *Agent {
	controller := pool.NewHTTPController(pool.HTTPControllerConfig{
		Endpoint: nodeCfg.Provider.Endpoint,
		Timeout:  nodeCfg.Provider.RequestTimeout,
	})

	return &Agent{
		nodeCfg:   nodeCfg,
		queue:     queue,
		gateway:   pool.NewGateway(controller),
		pipelines: make(map[string]*Pipeline),
	}
}

// LoadCached applies the locally cached pool configuration, if any, so
// a node restart resumes scaling before the backend is reachable.
func (a *Agent) LoadCached() error {
	raw, err := os.ReadFile(a.nodeCfg.Pools.CacheFile)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("No cached pool configuration, waiting for backend")
			return nil
		}
		return err
	}
	return a.ApplyConfig(raw)
}

// ApplyConfig validates and installs a pool configuration. The old
// pipelines keep running until the new document parses; an invalid
// push changes nothing.
func (a *Agent) ApplyConfig(raw []byte) error {
	cfg, err := config.ParsePools(raw)
	if err != nil {
		a.mu.Lock()
		a.lastError = err.Error()
		a.mu.Unlock()
		return err
	}

	pipelines := make(map[string]*Pipeline, len(cfg.Pools))
	for _, pc := range cfg.Pools {
		pipeline, err := a.buildPipeline(pc)
		if err != nil {
			// Built but unstarted pipelines only hold collectors.
			for _, p := range pipelines {
				p.collector.Close()
			}
			a.mu.Lock()
			a.lastError = err.Error()
			a.mu.Unlock()
			return err
		}
		pipelines[pc.OraclePoolID] = pipeline
	}

	a.mu.Lock()
	old := a.pipelines
	a.pipelines = pipelines
	a.rawConfig = raw
	a.hash = config.Hash(raw)
	a.lastError = ""
	a.mu.Unlock()

	for _, p := range old {
		p.Stop()
	}
	for id, p := range pipelines {
		if err := p.Start(); err != nil {
			logger.WithPool(id).Errorf("Failed to start pipeline: %v", err)
		}
	}

	if err := os.WriteFile(a.nodeCfg.Pools.CacheFile, raw, 0o644); err != nil {
		logger.WithError(err).Warn("Failed to cache pool configuration")
	}

	logger.Infof("Applied pool configuration with %d pools (hash %.12s)", len(cfg.Pools), a.hash)
	return nil
}

func (a *Agent) buildPipeline(pc config.PoolConfig) (*Pipeline, error) {
	coll, err := collector.New(collector.Options{
		Method:  pc.Monitoring.Method,
		PoolID:  pc.OraclePoolID,
		URL:     pc.Monitoring.URL,
		Timeout: pc.Monitoring.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("pool %q: %w", pc.OraclePoolID, err)
	}

	sched := schedule.NewEngine(schedule.Config{
		PoolID:  pc.OraclePoolID,
		Windows: pc.Schedules,
		Limits:  pc.Limits,
	}, a.gateway)

	return NewPipeline(pc, coll, a.gateway, sched, a.queue), nil
}

// ConfigHash reports the identity of the running configuration, empty
// until one is applied.
func (a *Agent) ConfigHash() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hash
}

// Status summarizes node health for the heartbeat.
func (a *Agent) Status() (string, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.lastError != "" {
		return "error", a.lastError
	}
	return "active", ""
}

func (a *Agent) RunningPools() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := make([]string, 0, len(a.pipelines))
	for id, p := range a.pipelines {
		if p.IsRunning() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Stop halts all pipelines. The agent can be restarted by applying a
// configuration again.
func (a *Agent) Stop() {
	a.mu.Lock()
	pipelines := a.pipelines
	a.pipelines = make(map[string]*Pipeline)
	a.mu.Unlock()

	for _, p := range pipelines {
		p.Stop()
	}
	logger.Info("Agent stopped")
}
