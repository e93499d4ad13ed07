package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

type AnalyticsRepository struct {
	db Executor
}

func NewAnalyticsRepository(db Executor) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Insert stores one analytics sample. poolID may be zero when the
// reported pool has no row yet.
func (r *AnalyticsRepository) Insert(ctx context.Context, nodeID, poolID int64, a models.PoolAnalytics) error {
	query := `
		INSERT INTO pool_analytics (
			node_id, pool_id, oracle_pool_id, current_instances, active_instances,
			avg_cpu_utilization, avg_memory_utilization,
			max_cpu_utilization, max_memory_utilization,
			pool_status, is_active, scaling_event, scaling_reason
		) VALUES ($1, NULLIF($2, 0), $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), NULLIF($13, ''))`

	_, err := r.db.ExecContext(ctx, query,
		nodeID, poolID, a.OraclePoolID, a.CurrentInstances, a.ActiveInstances,
		a.AvgCPUUtilization, a.AvgMemoryUtilization,
		a.MaxCPUUtilization, a.MaxMemoryUtilization,
		a.PoolStatus, a.IsActive, a.ScalingEvent, a.ScalingReason,
	)
	return err
}

// GetByNode returns the node's samples newest first, bounded by limit.
func (r *AnalyticsRepository) GetByNode(ctx context.Context, nodeID int64, limit int) ([]*models.AnalyticsRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT id, node_id, COALESCE(pool_id, 0), oracle_pool_id, timestamp,
			current_instances, active_instances,
			avg_cpu_utilization, avg_memory_utilization,
			max_cpu_utilization, max_memory_utilization,
			pool_status, is_active, COALESCE(scaling_event, ''), COALESCE(scaling_reason, '')
		FROM pool_analytics
		WHERE node_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, nodeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.AnalyticsRecord
	for rows.Next() {
		rec, err := scanAnalytics(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SystemSummary aggregates the latest sample of every pool reported
// within the window, plus the active node count and the 24h instance
// peak.
func (r *AnalyticsRepository) SystemSummary(ctx context.Context, window time.Duration) (*models.SystemAnalytics, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM nodes WHERE status = $1),
			COUNT(*),
			COALESCE(SUM(current_instances), 0),
			COALESCE(AVG(avg_cpu_utilization), 0),
			COALESCE(AVG(avg_memory_utilization), 0)
		FROM (
			SELECT DISTINCT ON (oracle_pool_id)
				current_instances, avg_cpu_utilization, avg_memory_utilization
			FROM pool_analytics
			WHERE timestamp > $2 AND is_active
			ORDER BY oracle_pool_id, timestamp DESC
		) latest`

	var s models.SystemAnalytics
	err := r.db.QueryRowContext(ctx, query, models.NodeStatusActive, time.Now().Add(-window)).Scan(
		&s.ActiveNodes, &s.TotalActivePools, &s.TotalCurrentInstances,
		&s.AvgSystemCPU, &s.AvgSystemMemory,
	)
	if err != nil {
		return nil, err
	}

	peakQuery := `
		SELECT COALESCE(MAX(total), 0) FROM (
			SELECT SUM(current_instances) AS total
			FROM pool_analytics
			WHERE timestamp > NOW() - INTERVAL '24 hours'
			GROUP BY date_trunc('minute', timestamp)
		) buckets`
	if err := r.db.QueryRowContext(ctx, peakQuery).Scan(&s.PeakInstances24h); err != nil {
		return nil, err
	}

	s.LastUpdated = time.Now()
	return &s, nil
}

// Prune deletes samples older than retention, returning rows removed.
func (r *AnalyticsRepository) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM pool_analytics WHERE timestamp < $1`, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanAnalytics(rows *sql.Rows) (*models.AnalyticsRecord, error) {
	var rec models.AnalyticsRecord
	err := rows.Scan(
		&rec.ID, &rec.NodeID, &rec.PoolID, &rec.OraclePoolID, &rec.Timestamp,
		&rec.CurrentInstances, &rec.ActiveInstances,
		&rec.AvgCPUUtilization, &rec.AvgMemoryUtilization,
		&rec.MaxCPUUtilization, &rec.MaxMemoryUtilization,
		&rec.PoolStatus, &rec.IsActive, &rec.ScalingEvent, &rec.ScalingReason,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
