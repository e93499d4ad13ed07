package analytics

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ExoPexodus/crimson-cloud-command/pkg/models"
)

func record(poolID string) models.PoolAnalytics {
	return models.PoolAnalytics{
		OraclePoolID:     poolID,
		CurrentInstances: 3,
		PoolStatus:       "healthy",
		IsActive:         true,
	}
}

func TestQueue_AppendAndDrain(t *testing.T) {
	q := NewQueue(10)

	q.Append(record("pool-a"))
	q.Append(record("pool-b"))
	assert.Equal(t, 2, q.Len())

	batch := q.Drain()
	assert.Len(t, batch, 2)
	assert.Equal(t, "pool-a", batch[0].OraclePoolID)
	assert.Equal(t, "pool-b", batch[1].OraclePoolID)

	// Drained records never come back.
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())
}

func TestQueue_DropsOldestWhenFull(t *testing.T) {
	q := NewQueue(3)

	for i := 0; i < 5; i++ {
		q.Append(record(fmt.Sprintf("pool-%d", i)))
	}

	batch := q.Drain()
	assert.Len(t, batch, 3)
	assert.Equal(t, "pool-2", batch[0].OraclePoolID)
	assert.Equal(t, "pool-4", batch[2].OraclePoolID)
}

func TestQueue_ConcurrentAppend(t *testing.T) {
	q := NewQueue(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q.Append(record("pool"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, q.Len())
}
