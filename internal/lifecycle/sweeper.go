package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ExoPexodus/crimson-cloud-command/internal/events"
	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/database"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/database/queries"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

// Sweeper marks nodes OFFLINE once their heartbeats go silent longer
// than the timeout. It runs on a cron schedule rather than per
// request, so a dead node is noticed even when nothing else touches it.
type Sweeper struct {
	db        *database.DB
	publisher *events.Publisher
	timeout   time.Duration
	schedule  string

	cron    *cron.Cron
	entryID cron.EntryID
}

type SweeperConfig struct {
	Timeout  time.Duration
	Schedule string
}

func NewSweeper(db *database.DB, publisher *events.Publisher, cfg SweeperConfig) *Sweeper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}

	return &Sweeper{
		db:        db,
		publisher: publisher,
		timeout:   cfg.Timeout,
		schedule:  cfg.Schedule,
		cron:      cron.New(),
	}
}

func (s *Sweeper) Start() error {
	id, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Sweep(ctx); err != nil {
			logger.WithError(err).Error("Offline sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.entryID = id
	s.cron.Start()
	logger.Infof("Offline sweeper started (schedule %q, timeout %s)", s.schedule, s.timeout)
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Offline sweeper stopped")
}

// Sweep marks every stale node offline. Exported for tests and for a
// manual trigger on startup.
func (s *Sweeper) Sweep(ctx context.Context) error {
	nodes := queries.NewNodeRepository(s.db)

	stale, err := nodes.GetStale(ctx, time.Now().Add(-s.timeout))
	if err != nil {
		return err
	}

	for _, node := range stale {
		if err := s.markOffline(ctx, node); err != nil {
			logger.WithNode(node.ID).WithError(err).Error("Failed to mark node offline")
			continue
		}
		logger.WithNode(node.ID).Warnf("Node marked offline, last heartbeat %v", node.LastHeartbeat)
		s.publisher.NodeOffline(node.ID)
	}
	return nil
}

func (s *Sweeper) markOffline(ctx context.Context, node *models.Node) error {
	newStatus, event := MarkOffline(node.Status)
	if event == nil {
		return nil
	}

	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := queries.NewNodeRepository(tx).UpdateStatus(ctx, node.ID, newStatus); err != nil {
			return err
		}
		return queries.NewLifecycleLogRepository(tx).Insert(ctx, &models.LifecycleLog{
			NodeID:         node.ID,
			EventType:      *event,
			PreviousStatus: node.Status,
			NewStatus:      newStatus,
			Reason:         fmt.Sprintf("no heartbeat for more than %s", s.timeout),
			TriggeredBy:    "sweeper",
		})
	})
}
