package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calling a failing dependency once it has failed
// FailureThreshold times in a row, and probes it again after ResetTimeout.
type CircuitBreaker struct {
	name              string
	failureThreshold  int
	resetTimeout      time.Duration
	halfOpenSuccesses int

	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	lastFailTime time.Time
}

type CircuitBreakerConfig struct {
	Name              string
	FailureThreshold  int
	ResetTimeout      time.Duration
	HalfOpenSuccesses int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenSuccesses <= 0 {
		cfg.HalfOpenSuccesses = 2
	}

	return &CircuitBreaker{
		name:              cfg.Name,
		failureThreshold:  cfg.FailureThreshold,
		resetTimeout:      cfg.ResetTimeout,
		halfOpenSuccesses: cfg.HalfOpenSuccesses,
		state:             StateClosed,
	}
}

// Do runs fn unless the circuit is open. Failures while half-open
// reopen the circuit immediately.
func (cb *CircuitBreaker) Do(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}

	if err := fn(); err != nil {
		cb.onFailure()
		return err
	}

	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailTime) >= cb.resetTimeout {
			cb.transition(StateHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.halfOpenSuccesses {
			cb.transition(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailTime = time.Now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
	}
}

// transition must be called with cb.mu held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0

	logger.WithFields(map[string]interface{}{
		"breaker": cb.name,
		"from":    from.String(),
		"to":      to.String(),
	}).Info("Circuit breaker state change")
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
}
