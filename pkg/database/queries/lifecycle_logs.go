package queries

import (
	"context"

	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

type LifecycleLogRepository struct {
	db Executor
}

func NewLifecycleLogRepository(db Executor) *LifecycleLogRepository {
	return &LifecycleLogRepository{db: db}
}

func (r *LifecycleLogRepository) Insert(ctx context.Context, log *models.LifecycleLog) error {
	query := `
		INSERT INTO node_lifecycle_logs (node_id, event_type, previous_status, new_status, reason, triggered_by)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		log.NodeID, log.EventType, log.PreviousStatus, log.NewStatus,
		log.Reason, log.TriggeredBy,
	).Scan(&log.ID, &log.Timestamp)
}

func (r *LifecycleLogRepository) GetByNode(ctx context.Context, nodeID int64, limit int) ([]*models.LifecycleLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, node_id, event_type, COALESCE(previous_status, ''), new_status,
			COALESCE(reason, ''), COALESCE(triggered_by, ''), created_at
		FROM node_lifecycle_logs
		WHERE node_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, nodeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.LifecycleLog
	for rows.Next() {
		var log models.LifecycleLog
		err := rows.Scan(
			&log.ID, &log.NodeID, &log.EventType, &log.PreviousStatus,
			&log.NewStatus, &log.Reason, &log.TriggeredBy, &log.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
