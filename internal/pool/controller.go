package pool

import (
	"context"
	"errors"
)

var (
	ErrPoolNotFound  = errors.New("instance pool not found")
	ErrResizeFailed  = errors.New("instance pool resize failed")
	ErrInvalidSize   = errors.New("invalid target pool size")
	ErrProviderError = errors.New("cloud provider error")
)

// Controller abstracts the cloud provider's instance pool operations.
// The scaling and schedule engines only ever touch pools through this
// interface; nothing in the engines knows which provider is behind it.
type Controller interface {
	// GetSize reads the pool's current size from the provider.
	GetSize(ctx context.Context, poolID string) (int, error)

	// Resize sets the pool's target size.
	Resize(ctx context.Context, poolID string, newSize int) error
}
