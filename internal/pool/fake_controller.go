package pool

import (
	"context"
	"sync"
)

// FakeController is an in-memory Controller used in tests and in the
// node's dry-run mode.
type FakeController struct {
	mu      sync.Mutex
	sizes   map[string]int
	resizes []int

	failGet    error
	failResize error
}

func NewFakeController() *FakeController {
	return &FakeController{sizes: make(map[string]int)}
}

func (f *FakeController) SetSize(poolID string, size int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizes[poolID] = size
}

func (f *FakeController) FailGet(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = err
}

func (f *FakeController) FailResize(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failResize = err
}

// Resizes returns the sizes passed to Resize, in order.
func (f *FakeController) Resizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.resizes))
	copy(out, f.resizes)
	return out
}

func (f *FakeController) GetSize(ctx context.Context, poolID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failGet != nil {
		return 0, f.failGet
	}
	size, ok := f.sizes[poolID]
	if !ok {
		return 0, ErrPoolNotFound
	}
	return size, nil
}

func (f *FakeController) Resize(ctx context.Context, poolID string, newSize int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failResize != nil {
		return f.failResize
	}
	if _, ok := f.sizes[poolID]; !ok {
		return ErrPoolNotFound
	}
	if newSize < 0 {
		return ErrInvalidSize
	}
	f.sizes[poolID] = newSize
	f.resizes = append(f.resizes, newSize)
	return nil
}
