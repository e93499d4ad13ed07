package analytics

import (
	"sync"

	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

// Queue buffers per-cycle pool analytics between heartbeats. Drain
// hands the whole batch to the heartbeat sender and empties the queue
// in one step, so records ride at most one heartbeat.
type Queue struct {
	mu      sync.Mutex
	pending []models.PoolAnalytics
	maxSize int
}

const defaultMaxSize = 1000

func NewQueue(maxSize int) *Queue {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	return &Queue{maxSize: maxSize}
}

// Append adds one record. When the queue is full the oldest record is
// dropped, keeping the freshest view of the pool.
func (q *Queue) Append(record models.PoolAnalytics) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) >= q.maxSize {
		q.pending = q.pending[1:]
	}
	q.pending = append(q.pending, record)
}

// Drain removes and returns everything queued so far. The caller owns
// the returned slice; records are not re-queued on send failure.
func (q *Queue) Drain() []models.PoolAnalytics {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.pending
	q.pending = nil
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
