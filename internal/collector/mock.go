package collector

import (
	"context"
	"sync"
)

// MockCollector returns canned values, for tests and dry runs.
type MockCollector struct {
	mu    sync.Mutex
	cpu   float64
	ram   float64
	err   error
	calls int
}

func NewMockCollector(cpu, ram float64) *MockCollector {
	return &MockCollector{cpu: cpu, ram: ram}
}

func (m *MockCollector) Set(cpu, ram float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpu, m.ram = cpu, ram
}

func (m *MockCollector) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockCollector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockCollector) GetMetrics(ctx context.Context) (float64, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, 0, m.err
	}
	return m.cpu, m.ram, nil
}

func (m *MockCollector) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MockCollector) Close() error { return nil }
