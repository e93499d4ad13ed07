package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		ResetTimeout:     time.Hour,
	})

	for i := 0; i < 3; i++ {
		err := cb.Do(func() error { return errBoom })
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Do(func() error {
		t.Fatal("should not be called while open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})

	require.Error(t, cb.Do(func() error { return errBoom }))
	require.NoError(t, cb.Do(func() error { return nil }))
	require.Error(t, cb.Do(func() error { return errBoom }))

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold:  1,
		ResetTimeout:      time.Millisecond,
		HalfOpenSuccesses: 2,
	})

	require.Error(t, cb.Do(func() error { return errBoom }))
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)

	require.NoError(t, cb.Do(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Millisecond,
	})

	require.Error(t, cb.Do(func() error { return errBoom }))
	time.Sleep(5 * time.Millisecond)

	require.Error(t, cb.Do(func() error { return errBoom }))
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})

	require.Error(t, cb.Do(func() error { return errBoom }))
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	require.NoError(t, cb.Do(func() error { return nil }))
}
