package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// CallConfig controls how classifier calls reach the LLM provider.
// Calls are never retried; a failed call is returned to the caller, who
// decides whether to resubmit the whole ticket.
type CallConfig struct {
	Timeout time.Duration // Per-request timeout (default: 60s)

	// Circuit breaker settings
	CircuitBreakerEnabled bool          // Enable circuit breaker (default: true)
	FailureThreshold      int           // Consecutive transient failures before opening (default: 5)
	SuccessThreshold      int           // Successes in half-open before closing (default: 2)
	OpenTimeout           time.Duration // How long to keep circuit open (default: 30s)

	MaxConcurrentCalls int // Maximum concurrent LLM calls (default: 3, 0 = unlimited)
}

// DefaultCallConfig returns the default call configuration
func DefaultCallConfig() CallConfig {
	return CallConfig{
		Timeout:               60 * time.Second,
		CircuitBreakerEnabled: true,
		FailureThreshold:      5,
		SuccessThreshold:      2,
		OpenTimeout:           30 * time.Second,
		MaxConcurrentCalls:    3,
	}
}

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation, requests pass through
	CircuitOpen                         // Too many failures, block requests (fail fast)
	CircuitHalfOpen                     // Testing recovery, allow limited requests
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops calling a provider that keeps failing
type CircuitBreaker struct {
	mu sync.Mutex

	state            CircuitState
	failureCount     int
	successCount     int
	lastFailureTime  time.Time
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	now              func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration
func NewCircuitBreaker(failureThreshold, successThreshold int, openTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            CircuitClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		openTimeout:      openTimeout,
		now:              time.Now,
	}
}

// Allow checks if a request should be allowed through the circuit breaker.
// Returns ErrCircuitOpen if the circuit is open and hasn't timed out yet.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed, CircuitHalfOpen:
		return nil
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) > cb.openTimeout {
			cb.transitionTo(CircuitHalfOpen)
			return nil
		}
		return ErrCircuitOpen
	default:
		return ErrCircuitOpen
	}
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failureCount = 0
	case CircuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.transitionTo(CircuitClosed)
		}
	}
}

// RecordFailure records a failed request
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = cb.now()

	switch cb.state {
	case CircuitClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		// Any failure in half-open immediately opens the circuit
		cb.transitionTo(CircuitOpen)
	}
}

// GetMetrics returns current metrics (for monitoring/logging)
func (cb *CircuitBreaker) GetMetrics() (state CircuitState, failures, successes int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state, cb.failureCount, cb.successCount
}

// transitionTo must be called with lock held
func (cb *CircuitBreaker) transitionTo(state CircuitState) {
	old := cb.state
	cb.state = state
	cb.successCount = 0
	if state == CircuitClosed {
		cb.failureCount = 0
	}
	log.Printf("Circuit breaker state transition: %s → %s (failures=%d)", old, state, cb.failureCount)
}

// callGuard applies the breaker, concurrency limit and timeout to one call
type callGuard struct {
	cfg            CallConfig
	circuitBreaker *CircuitBreaker
	concurrencySem *semaphore.Weighted
}

func newCallGuard(cfg CallConfig) *callGuard {
	if cfg == (CallConfig{}) {
		cfg = DefaultCallConfig()
	}
	g := &callGuard{cfg: cfg}
	if g.cfg.Timeout <= 0 {
		g.cfg.Timeout = DefaultCallConfig().Timeout
	}
	if cfg.CircuitBreakerEnabled {
		g.circuitBreaker = NewCircuitBreaker(cfg.FailureThreshold, cfg.SuccessThreshold, cfg.OpenTimeout)
	}
	if cfg.MaxConcurrentCalls > 0 {
		g.concurrencySem = semaphore.NewWeighted(int64(cfg.MaxConcurrentCalls))
	}
	return g
}

// do runs fn once. Only transient failures count against the breaker:
// auth or bad-request errors say nothing about provider health.
func (g *callGuard) do(ctx context.Context, operation string, fn func(context.Context) error) error {
	if g.concurrencySem != nil {
		if err := g.concurrencySem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("failed to acquire concurrency slot for %s: %w", operation, err)
		}
		defer g.concurrencySem.Release(1)
	}

	if g.circuitBreaker != nil {
		if err := g.circuitBreaker.Allow(); err != nil {
			state, failures, _ := g.circuitBreaker.GetMetrics()
			log.Printf("[WARN] LLM %s blocked by circuit breaker (state=%s, failures=%d)", operation, state, failures)
			return fmt.Errorf("%s failed: %w", operation, err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	err := fn(attemptCtx)
	cancel()

	if g.circuitBreaker != nil {
		if err == nil {
			g.circuitBreaker.RecordSuccess()
		} else if isTransientError(err) {
			g.circuitBreaker.RecordFailure()
		}
	}
	return err
}

// isTransientError reports whether err looks like a provider outage rather
// than a problem with the request itself
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "rate limit",
		"500", "502", "503", "504",
		"internal server error", "bad gateway", "service unavailable", "gateway timeout", "overloaded",
		"connection refused", "connection reset", "timeout", "temporary failure", "network", "eof",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}

	// 4xx client errors (except rate limits) and unknown errors are not transient
	return false
}
