package heartbeat

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/analytics"
	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/internal/metrics"
	"github.com/ExoPexodus/crimson-cloud-command/internal/sysmetrics"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

const DefaultInterval = 60 * time.Second

// StatusFunc reports the node's own health for the next heartbeat:
// "active" or "error", plus a message when erroring.
type StatusFunc func() (status string, errorMessage string)

// ApplyConfigFunc installs a new pool configuration on the node. The
// raw YAML must be applied atomically or rejected whole.
type ApplyConfigFunc func(raw []byte) error

// HashFunc returns the hash of the configuration currently running.
type HashFunc func() string

type ServiceConfig struct {
	Interval        time.Duration
	CredentialsFile string
	Register        models.RegisterRequest

	Status      StatusFunc
	ConfigHash  HashFunc
	ApplyConfig ApplyConfigFunc
}

// Service owns the node side of the heartbeat protocol: one-time
// registration, the periodic status report with drained analytics, and
// config pull when the backend signals drift.
type Service struct {
	client *Client
	queue  *analytics.Queue
	cfg    ServiceConfig

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewService(client *Client, queue *analytics.Queue, cfg ServiceConfig) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Service{
		client: client,
		queue:  queue,
		cfg:    cfg,
	}
}

// EnsureRegistered loads saved credentials, registering with the
// backend only when no credentials file exists. Registration is a
// one-time event; a restart must never mint a second node identity.
func (s *Service) EnsureRegistered(ctx context.Context) error {
	creds, err := LoadCredentials(s.cfg.CredentialsFile)
	if err == nil {
		logger.WithNode(creds.NodeID).Info("Loaded existing node credentials")
		s.client.SetCredentials(creds)
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	resp, err := s.client.Register(ctx, s.cfg.Register)
	if err != nil {
		return err
	}

	creds = &Credentials{NodeID: resp.NodeID, APIKey: resp.APIKey}
	if err := SaveCredentials(s.cfg.CredentialsFile, creds); err != nil {
		return err
	}

	s.client.SetCredentials(creds)
	logger.WithNode(creds.NodeID).Infof("Registered with backend as %q", resp.Name)
	return nil
}

func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true

	s.wg.Add(1)
	go s.run()

	logger.Infof("Heartbeat service started (interval %s)", s.cfg.Interval)
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	logger.Info("Heartbeat service stopped")
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// First beat goes out immediately so the backend sees the node
	// come online without waiting a full interval.
	s.beat(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.beat(s.ctx)
		}
	}
}

// Beat sends one heartbeat outside the loop, for tests and for a final
// report during shutdown.
func (s *Service) Beat(ctx context.Context) error {
	return s.beat(ctx)
}

func (s *Service) beat(ctx context.Context) error {
	status, errMsg := s.cfg.Status()

	hb := models.Heartbeat{
		Status:        status,
		ErrorMessage:  errMsg,
		ConfigHash:    s.cfg.ConfigHash(),
		PoolAnalytics: s.queue.Drain(),
		MetricsData:   sysmetrics.Collect(ctx).Map(),
	}

	ack, err := s.client.SendHeartbeat(ctx, hb)
	if err != nil {
		// Drained analytics are gone; the next beat reports fresh data.
		metrics.HeartbeatsTotal.WithLabelValues("error").Inc()
		logger.WithError(err).Warnf("Heartbeat failed, dropped %d analytics records", len(hb.PoolAnalytics))
		return err
	}

	metrics.HeartbeatsTotal.WithLabelValues("ok").Inc()

	if ack.ConfigUpdateNeeded {
		logger.Info("Backend reports configuration drift, pulling new config")
		if err := s.pullConfig(ctx); err != nil {
			logger.WithError(err).Error("Failed to apply updated configuration")
			return err
		}
	}
	return nil
}

func (s *Service) pullConfig(ctx context.Context) error {
	resp, err := s.client.FetchConfig(ctx)
	if err != nil {
		return err
	}

	if resp.YAMLConfig == "" || resp.YAMLConfig == models.NoConfigSentinel {
		logger.Info("Backend has no configuration for this node yet")
		return nil
	}

	return s.cfg.ApplyConfig([]byte(resp.YAMLConfig))
}
