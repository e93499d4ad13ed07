package queries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

var ErrPoolNotFound = errors.New("pool not found")

type PoolRepository struct {
	db Executor
}

func NewPoolRepository(db Executor) *PoolRepository {
	return &PoolRepository{db: db}
}

const poolColumns = `id, node_id, oracle_pool_id, name, region,
	min_instances, max_instances, current_instances, status, created_at, updated_at`

// Upsert creates the pool row on first sight and refreshes the
// reported size and status afterwards. Pool rows appear as nodes
// report them; there is no separate pool registration call.
func (r *PoolRepository) Upsert(ctx context.Context, nodeID int64, a models.PoolAnalytics) (int64, error) {
	query := `
		INSERT INTO pools (node_id, oracle_pool_id, current_instances, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (oracle_pool_id) DO UPDATE
		SET current_instances = EXCLUDED.current_instances,
		    status = EXCLUDED.status,
		    updated_at = NOW()
		RETURNING id`

	status := a.PoolStatus
	if status == "" {
		status = string(models.PoolStatusHealthy)
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query, nodeID, a.OraclePoolID, a.CurrentInstances, status).Scan(&id)
	return id, err
}

func (r *PoolRepository) GetByID(ctx context.Context, id int64) (*models.Pool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+poolColumns+` FROM pools WHERE id = $1`, id)
	pool, err := scanPool(row)
	if err == sql.ErrNoRows {
		return nil, ErrPoolNotFound
	}
	return pool, err
}

func (r *PoolRepository) GetByNode(ctx context.Context, nodeID int64) ([]*models.Pool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+poolColumns+` FROM pools WHERE node_id = $1 ORDER BY oracle_pool_id`, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []*models.Pool
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}
	return pools, rows.Err()
}

func (r *PoolRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pools`).Scan(&n)
	return n, err
}

func scanPool(row rowScanner) (*models.Pool, error) {
	var pool models.Pool
	err := row.Scan(
		&pool.ID, &pool.NodeID, &pool.OraclePoolID, &pool.Name, &pool.Region,
		&pool.MinInstances, &pool.MaxInstances, &pool.CurrentInstances,
		&pool.Status, &pool.CreatedAt, &pool.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pool, nil
}
