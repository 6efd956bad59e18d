package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/quote-service/internal/platform/config"
)

// State is a circuit breaker state.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen rejects requests until the open timeout elapses.
	StateOpen

	// StateHalfOpen admits a limited number of probes.
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

// Outcome is how a request admitted by the breaker ended.
type Outcome int

const (
	// OutcomeSuccess counts towards closing the circuit.
	OutcomeSuccess Outcome = iota

	// OutcomeFailure counts towards opening the circuit.
	OutcomeFailure

	// OutcomeIgnored releases the slot without judging the downstream, for
	// requests the caller abandoned.
	OutcomeIgnored
)

// Ticket is handed out by Allow and must be returned to Done. It ties an
// outcome to the state generation that admitted the request, so a slow call
// started before a state change cannot move the new state.
type Ticket struct {
	generation uint64
}

// Counts summarises the current generation.
type Counts struct {
	State                State
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	InFlightProbes       int
	// RetryAfter is the time left before an open circuit admits a probe.
	RetryAfter time.Duration
}

// CircuitBreaker stops calls to a failing downstream until it has had time
// to recover.
//
//   - closed to open after MaxFailures consecutive failures
//   - open to half-open once Timeout has passed since opening
//   - half-open to closed after HalfOpenLimit consecutive successes
//   - half-open to open on any failure
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg config.CircuitBreakerConfig
	now func() time.Time

	state      State
	generation uint64
	openedAt   time.Time
	failures   int
	successes  int
	probes     int

	onStateChange func(from, to State)
}

// NewCircuitBreaker creates a closed circuit breaker. Zero limits are raised to one.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig) *CircuitBreaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.HalfOpenLimit = max(cfg.HalfOpenLimit, 1)

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run, on its own goroutine, after each
// transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.onStateChange = fn
	cb.mu.Unlock()
}

// Allow reports whether a request may proceed. When it returns true the
// caller must pass the ticket to Done exactly once.
func (cb *CircuitBreaker) Allow() (Ticket, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.expire()

	switch cb.state {
	case StateOpen:
		return Ticket{}, false
	case StateHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenLimit {
			return Ticket{}, false
		}

		cb.probes++
	}

	return Ticket{generation: cb.generation}, true
}

// Done records how an admitted request ended. Outcomes from an earlier
// generation are dropped.
func (cb *CircuitBreaker) Done(t Ticket, outcome Outcome) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if t.generation != cb.generation {
		return
	}

	if cb.state == StateHalfOpen {
		cb.probes--
	}

	switch outcome {
	case OutcomeSuccess:
		cb.failures = 0
		cb.successes++

		if cb.state == StateHalfOpen && cb.successes >= cb.cfg.HalfOpenLimit {
			cb.transitionTo(StateClosed)
		}

	case OutcomeFailure:
		cb.successes = 0
		cb.failures++

		if cb.state == StateHalfOpen || cb.failures >= cb.cfg.MaxFailures {
			cb.transitionTo(StateOpen)
		}
	}
}

// State returns the current state, moving an expired open circuit to
// half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.expire()

	return cb.state
}

// Counts returns a snapshot of the breaker.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.expire()

	c := Counts{
		State:                cb.state,
		ConsecutiveFailures:  cb.failures,
		ConsecutiveSuccesses: cb.successes,
		InFlightProbes:       cb.probes,
	}

	if cb.state == StateOpen {
		c.RetryAfter = cb.openedAt.Add(cb.cfg.Timeout).Sub(cb.now())
	}

	return c
}

// expire must be called with cb.mu held.
func (cb *CircuitBreaker) expire() {
	if cb.state == StateOpen && !cb.now().Before(cb.openedAt.Add(cb.cfg.Timeout)) {
		cb.transitionTo(StateHalfOpen)
	}
}

// transitionTo must be called with cb.mu held. Every transition starts a new
// generation.
func (cb *CircuitBreaker) transitionTo(to State) {
	from := cb.state
	if from == to {
		return
	}

	cb.state = to
	cb.generation++
	cb.failures, cb.successes, cb.probes = 0, 0, 0

	if to == StateOpen {
		cb.openedAt = cb.now()
	}

	if fn := cb.onStateChange; fn != nil {
		go fn(from, to)
	}
}
