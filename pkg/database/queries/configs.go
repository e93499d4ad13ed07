package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrConfigNotFound = errors.New("node configuration not found")

// NodeConfiguration is the stored YAML document for one node.
type NodeConfiguration struct {
	ID         int64     `json:"id"`
	NodeID     int64     `json:"node_id"`
	YAMLConfig string    `json:"yaml_config"`
	ConfigHash string    `json:"config_hash"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ConfigRepository struct {
	db Executor
}

func NewConfigRepository(db Executor) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Upsert stores the node's configuration, replacing any previous one.
// Each node has exactly one authoritative document.
func (r *ConfigRepository) Upsert(ctx context.Context, nodeID int64, yamlConfig, hash string) error {
	query := `
		INSERT INTO node_configurations (node_id, yaml_config, config_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (node_id) DO UPDATE
		SET yaml_config = EXCLUDED.yaml_config,
		    config_hash = EXCLUDED.config_hash,
		    updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, nodeID, yamlConfig, hash)
	return err
}

func (r *ConfigRepository) GetByNode(ctx context.Context, nodeID int64) (*NodeConfiguration, error) {
	query := `
		SELECT id, node_id, yaml_config, config_hash, created_at, updated_at
		FROM node_configurations
		WHERE node_id = $1`

	var cfg NodeConfiguration
	err := r.db.QueryRowContext(ctx, query, nodeID).Scan(
		&cfg.ID, &cfg.NodeID, &cfg.YAMLConfig, &cfg.ConfigHash,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetHash returns the stored hash, or empty when no config exists.
func (r *ConfigRepository) GetHash(ctx context.Context, nodeID int64) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT config_hash FROM node_configurations WHERE node_id = $1`, nodeID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}
