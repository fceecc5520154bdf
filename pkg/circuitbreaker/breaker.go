package circuitbreaker

import (
	"sync"
	"time"

	"tripboard/pkg/metrics"
)

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config controls a rolling-window breaker. The window holds the outcomes
// of the last WindowSize completed calls; rejections are never recorded.
type Config struct {
	Name                 string
	WindowSize           int
	FailureRateThreshold float64
	MinimumCalls         int
	OpenStateDuration    time.Duration
	HalfOpenProbes       int
}

func DefaultConfig(name string) Config {
	return Config{
		Name:                 name,
		WindowSize:           10,
		FailureRateThreshold: 0.5,
		MinimumCalls:         10,
		OpenStateDuration:    30 * time.Second,
		HalfOpenProbes:       3,
	}
}

// Breaker gates calls to one dependency. Callers must pair every granted
// Acquire with exactly one RecordSuccess or RecordFailure.
type Breaker struct {
	cfg Config

	mu       sync.Mutex
	state    State
	outcomes []bool // true = failure
	head     int
	count    int
	openedAt time.Time

	probesIssued   int
	probeSuccesses int

	now func() time.Time
}

// Snapshot is a point-in-time view of the breaker, attached to
// unavailability errors for diagnostics.
type Snapshot struct {
	Name        string  `json:"name"`
	State       string  `json:"state"`
	Calls       int     `json:"calls"`
	Failures    int     `json:"failures"`
	FailureRate float64 `json:"failure_rate"`
}

func New(cfg Config) *Breaker {
	def := DefaultConfig(cfg.Name)
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.FailureRateThreshold <= 0 {
		cfg.FailureRateThreshold = def.FailureRateThreshold
	}
	if cfg.MinimumCalls <= 0 {
		cfg.MinimumCalls = def.MinimumCalls
	}
	if cfg.OpenStateDuration <= 0 {
		cfg.OpenStateDuration = def.OpenStateDuration
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = def.HalfOpenProbes
	}

	b := &Breaker{
		cfg:      cfg,
		state:    StateClosed,
		outcomes: make([]bool, cfg.WindowSize),
		now:      time.Now,
	}
	updateStateMetric(cfg.Name, StateClosed)
	return b
}

// Acquire reports whether a call may proceed. A false return is a
// rejection and is not recorded in the window.
func (b *Breaker) Acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.maybeTransitionLocked()

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probesIssued < b.cfg.HalfOpenProbes {
			b.probesIssued++
			return true
		}
		metrics.CircuitBreakerRejections.WithLabelValues(b.cfg.Name).Inc()
		return false
	default:
		metrics.CircuitBreakerRejections.WithLabelValues(b.cfg.Name).Inc()
		return false
	}
}

func (b *Breaker) RecordSuccess(duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.probeSuccesses++
		if b.probeSuccesses >= b.cfg.HalfOpenProbes {
			b.transitionLocked(StateClosed)
		}
	case StateClosed:
		b.pushLocked(false)
		b.evaluateLocked()
	default:
		// Late result from a call issued before the breaker opened.
	}
}

func (b *Breaker) RecordFailure(duration time.Duration, cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		// Any probe failure re-opens immediately.
		b.transitionLocked(StateOpen)
	case StateClosed:
		b.pushLocked(true)
		b.evaluateLocked()
	default:
		// Late result from a call issued before the breaker opened.
	}
}

// evaluateLocked opens the breaker when the window holds enough calls and
// the failure rate meets the threshold. Runs on every recorded outcome so
// a success completing the minimum sample also triggers evaluation.
func (b *Breaker) evaluateLocked() {
	if b.count >= b.cfg.MinimumCalls && b.failureRateLocked() >= b.cfg.FailureRateThreshold {
		b.transitionLocked(StateOpen)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionLocked()
	return b.state
}

func (b *Breaker) Name() string {
	return b.cfg.Name
}

func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionLocked()

	return Snapshot{
		Name:        b.cfg.Name,
		State:       b.state.String(),
		Calls:       b.count,
		Failures:    b.failuresLocked(),
		FailureRate: b.failureRateLocked(),
	}
}

func (b *Breaker) maybeTransitionLocked() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenStateDuration {
		b.transitionLocked(StateHalfOpen)
	}
}

func (b *Breaker) transitionLocked(to State) {
	if b.state == to {
		return
	}
	b.state = to

	switch to {
	case StateOpen:
		b.openedAt = b.now()
	case StateHalfOpen:
		b.probesIssued = 0
		b.probeSuccesses = 0
	case StateClosed:
		b.resetWindowLocked()
	}

	updateStateMetric(b.cfg.Name, to)
}

func (b *Breaker) pushLocked(failure bool) {
	b.outcomes[b.head] = failure
	b.head = (b.head + 1) % b.cfg.WindowSize
	if b.count < b.cfg.WindowSize {
		b.count++
	}
}

func (b *Breaker) resetWindowLocked() {
	for i := range b.outcomes {
		b.outcomes[i] = false
	}
	b.head = 0
	b.count = 0
}

func (b *Breaker) failuresLocked() int {
	failures := 0
	for i := 0; i < b.count; i++ {
		if b.outcomes[i] {
			failures++
		}
	}
	return failures
}

func (b *Breaker) failureRateLocked() float64 {
	if b.count == 0 {
		return 0
	}
	return float64(b.failuresLocked()) / float64(b.count)
}

func updateStateMetric(name string, state State) {
	var stateValue float64
	switch state {
	case StateClosed:
		stateValue = 0
	case StateHalfOpen:
		stateValue = 1
	case StateOpen:
		stateValue = 2
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue)
}
