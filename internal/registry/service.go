// Package registry implements the backend's node-facing operations:
// registration, heartbeat processing and configuration storage.
package registry

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ExoPexodus/crimson-cloud-command/internal/events"
	"github.com/ExoPexodus/crimson-cloud-command/internal/lifecycle"
	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/config"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/database"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/database/queries"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

var (
	ErrInvalidAPIKey = errors.New("invalid API key")
	ErrWrongNode     = errors.New("API key does not belong to this node")
)

type Service struct {
	db        *database.DB
	publisher *events.Publisher
}

func NewService(db *database.DB, publisher *events.Publisher) *Service {
	return &Service{db: db, publisher: publisher}
}

// HashAPIKey is the stored form of an API key. Only the hash ever
// touches the database; the plaintext key exists once, in the
// registration response.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Register creates a node and mints its API key.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	apiKey := uuid.NewString() + uuid.NewString()

	node := &models.Node{
		Name:        req.Name,
		Region:      req.Region,
		IPAddress:   req.IPAddress,
		Description: req.Description,
		APIKeyHash:  HashAPIKey(apiKey),
		Status:      models.NodeStatusInactive,
	}

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := queries.NewNodeRepository(tx).Create(ctx, node); err != nil {
			return err
		}
		return queries.NewLifecycleLogRepository(tx).Insert(ctx, &models.LifecycleLog{
			NodeID:      node.ID,
			EventType:   models.LifecycleRegistered,
			NewStatus:   models.NodeStatusInactive,
			TriggeredBy: "registration",
		})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.NodeRegistered(node)
	logger.WithNode(node.ID).Infof("Registered node %q in %s", node.Name, node.Region)

	return &models.RegisterResponse{
		NodeID: node.ID,
		APIKey: apiKey,
		Name:   node.Name,
		Region: node.Region,
	}, nil
}

// Authenticate resolves the node owning the API key and confirms it is
// the node named in the URL. A valid key presented for a different
// node is rejected, not redirected.
func (s *Service) Authenticate(ctx context.Context, nodeID int64, apiKey string) (*models.Node, error) {
	node, err := queries.NewNodeRepository(s.db).GetByAPIKeyHash(ctx, HashAPIKey(apiKey))
	if errors.Is(err, queries.ErrNodeNotFound) {
		return nil, ErrInvalidAPIKey
	}
	if err != nil {
		return nil, err
	}
	if node.ID != nodeID {
		return nil, ErrWrongNode
	}
	return node, nil
}

// ProcessHeartbeat applies one heartbeat in a single transaction:
// status transition, heartbeat timestamp, pool rows, analytics and the
// lifecycle log all land together. The ack tells the node whether its
// configuration hash is stale.
func (s *Service) ProcessHeartbeat(ctx context.Context, node *models.Node, hb models.Heartbeat) (*models.HeartbeatAck, error) {
	newStatus, event := lifecycle.Transition(node.Status, hb.Status)
	now := time.Now()

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		nodes := queries.NewNodeRepository(tx)
		pools := queries.NewPoolRepository(tx)
		analytics := queries.NewAnalyticsRepository(tx)

		if err := nodes.RecordHeartbeat(ctx, node.ID, newStatus, hb.ErrorMessage, now); err != nil {
			return err
		}

		for _, a := range hb.PoolAnalytics {
			poolID, err := pools.Upsert(ctx, node.ID, a)
			if err != nil {
				return fmt.Errorf("failed to upsert pool %s: %w", a.OraclePoolID, err)
			}
			if err := analytics.Insert(ctx, node.ID, poolID, a); err != nil {
				return fmt.Errorf("failed to store analytics for pool %s: %w", a.OraclePoolID, err)
			}
		}

		if event != nil {
			return queries.NewLifecycleLogRepository(tx).Insert(ctx, &models.LifecycleLog{
				NodeID:         node.ID,
				EventType:      *event,
				PreviousStatus: node.Status,
				NewStatus:      newStatus,
				Reason:         hb.ErrorMessage,
				TriggeredBy:    "heartbeat",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.HeartbeatReceived(node.ID, len(hb.PoolAnalytics))
	if len(hb.PoolAnalytics) > 0 {
		s.publisher.AnalyticsStored(node.ID, len(hb.PoolAnalytics))
	}
	if event != nil {
		switch *event {
		case models.LifecycleCameOnline:
			s.publisher.NodeOnline(node.ID, node.Status)
		case models.LifecycleErrored:
			s.publisher.NodeError(node.ID, hb.ErrorMessage)
		}
	}

	ack := &models.HeartbeatAck{Status: "ok"}

	currentHash, err := queries.NewConfigRepository(s.db).GetHash(ctx, node.ID)
	if err != nil {
		logger.WithNode(node.ID).WithError(err).Error("Failed to read stored config hash")
		return ack, nil
	}
	if driftNeeded(currentHash, hb.ConfigHash) {
		ack.ConfigUpdateNeeded = true
		ack.CurrentConfigHash = currentHash
		s.publisher.ConfigDrift(node.ID, hb.ConfigHash, currentHash)
	}
	return ack, nil
}

// driftNeeded reports whether a node should be told to pull
// configuration: only when the backend holds a stored hash that differs
// from the one the node reports. A backend with nothing stored never
// signals drift, whatever the node is running.
func driftNeeded(stored, reported string) bool {
	return stored != "" && stored != reported
}

// StoreConfig validates and stores a node's pool configuration. The
// node picks it up on its next heartbeat.
func (s *Service) StoreConfig(ctx context.Context, nodeID int64, yamlConfig string) (string, error) {
	if _, err := config.ParsePools([]byte(yamlConfig)); err != nil {
		return "", err
	}

	hash := config.Hash([]byte(yamlConfig))
	if err := queries.NewConfigRepository(s.db).Upsert(ctx, nodeID, yamlConfig, hash); err != nil {
		return "", err
	}

	s.publisher.ConfigPushed(nodeID, hash)
	logger.WithNode(nodeID).Infof("Stored configuration (hash %.12s)", hash)
	return hash, nil
}

// GetConfig returns the stored configuration, or the sentinel document
// when none has been pushed yet.
func (s *Service) GetConfig(ctx context.Context, nodeID int64) (*models.ConfigResponse, error) {
	cfg, err := queries.NewConfigRepository(s.db).GetByNode(ctx, nodeID)
	if errors.Is(err, queries.ErrConfigNotFound) {
		return &models.ConfigResponse{YAMLConfig: models.NoConfigSentinel}, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.ConfigResponse{YAMLConfig: cfg.YAMLConfig, ConfigHash: cfg.ConfigHash}, nil
}
