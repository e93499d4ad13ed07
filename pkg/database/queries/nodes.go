package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

var ErrNodeNotFound = errors.New("node not found")

type NodeRepository struct {
	db Executor
}

func NewNodeRepository(db Executor) *NodeRepository {
	return &NodeRepository{db: db}
}

const nodeColumns = `id, name, region, COALESCE(ip_address, ''), COALESCE(description, ''),
	api_key_hash, status, last_heartbeat, COALESCE(last_error, ''), created_at, updated_at`

func (r *NodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := `
		INSERT INTO nodes (name, region, ip_address, description, api_key_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		node.Name, node.Region, node.IPAddress, node.Description,
		node.APIKeyHash, node.Status,
	).Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt)
}

func (r *NodeRepository) GetByID(ctx context.Context, id int64) (*models.Node, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = $1`, id)

	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, ErrNodeNotFound
	}
	return node, err
}

func (r *NodeRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*models.Node, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE api_key_hash = $1`, hash)

	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, ErrNodeNotFound
	}
	return node, err
}

func (r *NodeRepository) GetAll(ctx context.Context) ([]*models.Node, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

// GetStale returns nodes whose last heartbeat is older than cutoff and
// are not already marked offline.
func (r *NodeRepository) GetStale(ctx context.Context, cutoff time.Time) ([]*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes
		WHERE status != $1 AND (last_heartbeat IS NULL OR last_heartbeat < $2)`

	rows, err := r.db.QueryContext(ctx, query, models.NodeStatusOffline, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

// RecordHeartbeat refreshes the node's status, heartbeat time and
// error message in one statement.
func (r *NodeRepository) RecordHeartbeat(ctx context.Context, id int64, status models.NodeStatus, lastError string, at time.Time) error {
	query := `
		UPDATE nodes
		SET status = $2, last_heartbeat = $3, last_error = NULLIF($4, ''), updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, at, lastError)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *NodeRepository) UpdateStatus(ctx context.Context, id int64, status models.NodeStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE nodes SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *NodeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row rowScanner) (*models.Node, error) {
	var node models.Node
	var lastHeartbeat sql.NullTime

	err := row.Scan(
		&node.ID, &node.Name, &node.Region, &node.IPAddress, &node.Description,
		&node.APIKeyHash, &node.Status, &lastHeartbeat, &node.LastError,
		&node.CreatedAt, &node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastHeartbeat.Valid {
		node.LastHeartbeat = &lastHeartbeat.Time
	}
	return &node, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNodeNotFound
	}
	return nil
}
