package pool

import (
	"context"
	"sync"
)

// Gateway wraps a Controller and serializes resizes per pool-id, so a
// schedule-driven resize and a threshold-driven resize issued in the
// same instant cannot race each other into a lost update. Reads pass
// through unserialized.
type Gateway struct {
	controller Controller

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewGateway(controller Controller) *Gateway {
	return &Gateway{
		controller: controller,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (g *Gateway) poolLock(poolID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	lock, ok := g.locks[poolID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[poolID] = lock
	}
	return lock
}

func (g *Gateway) GetSize(ctx context.Context, poolID string) (int, error) {
	return g.controller.GetSize(ctx, poolID)
}

func (g *Gateway) Resize(ctx context.Context, poolID string, newSize int) error {
	lock := g.poolLock(poolID)
	lock.Lock()
	defer lock.Unlock()

	return g.controller.Resize(ctx, poolID, newSize)
}

// ResizeWithin re-reads the current size under the pool's lock and
// applies a relative delta, but only when the resulting size stays in
// [min, max]. A delta that would cross a bound is dropped whole rather
// than partially applied. Re-reading inside the critical section keeps
// the delta correct even when the pool was resized out-of-band since
// the caller last looked.
func (g *Gateway) ResizeWithin(ctx context.Context, poolID string, delta, min, max int) (previous, updated int, changed bool, err error) {
	lock := g.poolLock(poolID)
	lock.Lock()
	defer lock.Unlock()

	previous, err = g.controller.GetSize(ctx, poolID)
	if err != nil {
		return 0, 0, false, err
	}

	updated = previous + delta
	// The bound in the direction of travel is the binding one: growing
	// checks max, shrinking checks min. A pool already outside the other
	// bound may still be moved back toward it.
	if delta > 0 && updated > max {
		return previous, previous, false, nil
	}
	if delta < 0 && (updated < min || updated < 0) {
		return previous, previous, false, nil
	}

	if err := g.controller.Resize(ctx, poolID, updated); err != nil {
		return previous, previous, false, err
	}
	return previous, updated, true, nil
}

// ResizeToward reads the current size under the pool's lock and resizes
// straight to target, so the distance traveled is derived from the size
// the pool actually has at that moment, never from a caller's earlier
// read. A target beyond the bound in its direction of travel is dropped
// whole, as in ResizeWithin.
func (g *Gateway) ResizeToward(ctx context.Context, poolID string, target, min, max int) (previous, updated int, changed bool, err error) {
	lock := g.poolLock(poolID)
	lock.Lock()
	defer lock.Unlock()

	previous, err = g.controller.GetSize(ctx, poolID)
	if err != nil {
		return 0, 0, false, err
	}

	if previous == target {
		return previous, previous, false, nil
	}
	if target > previous && target > max {
		return previous, previous, false, nil
	}
	if target < previous && (target < min || target < 0) {
		return previous, previous, false, nil
	}

	if err := g.controller.Resize(ctx, poolID, target); err != nil {
		return previous, previous, false, err
	}
	return previous, target, true, nil
}
