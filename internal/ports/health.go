package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a single health check when the caller's context
// has no earlier deadline.
const DefaultCheckTimeout = 2 * time.Second

// ErrDuplicateChecker is returned when a checker name is registered twice.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is implemented by components that can report their health:
// the quote store and, when import is enabled, the remote quote source.
type HealthChecker interface {
	// Name identifies the component in readiness responses.
	Name() string

	// Check returns nil when the component is usable. It must honour ctx.
	Check(ctx context.Context) error
}

// HealthRegistry aggregates health checks from multiple components.
type HealthRegistry interface {
	// Register adds a critical checker. Its failure makes the service unhealthy.
	Register(checker HealthChecker) error

	// CheckAll runs every registered check concurrently.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus represents a health state.
type HealthStatus string

const (
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusDegraded means only optional checks failed. The catalog
	// still serves reads and writes; features such as import may not.
	HealthStatusDegraded HealthStatus = "degraded"

	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult contains the aggregated health check results.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Optional bool          `json:"optional,omitempty"`
	Duration time.Duration `json:"duration"`
}

type registration struct {
	checker  HealthChecker
	optional bool
}

// DefaultHealthRegistry is a thread-safe implementation of HealthRegistry.
type DefaultHealthRegistry struct {
	mu           sync.RWMutex
	checks       []registration
	checkTimeout time.Duration
}

// NewHealthRegistry creates a new health registry.
func NewHealthRegistry() *DefaultHealthRegistry {
	return &DefaultHealthRegistry{checkTimeout: DefaultCheckTimeout}
}

// SetCheckTimeout changes the per-check timeout. Non-positive values are ignored.
func (r *DefaultHealthRegistry) SetCheckTimeout(d time.Duration) {
	if d <= 0 {
		return
	}

	r.mu.Lock()
	r.checkTimeout = d
	r.mu.Unlock()
}

// Register adds a critical checker.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	return r.add(checker, false)
}

// RegisterOptional adds a checker whose failure only degrades the service.
func (r *DefaultHealthRegistry) RegisterOptional(checker HealthChecker) error {
	return r.add(checker, true)
}

func (r *DefaultHealthRegistry) add(checker HealthChecker, optional bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, reg := range r.checks {
		if reg.checker.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checks = append(r.checks, registration{checker: checker, optional: optional})

	return nil
}

// CheckAll runs all registered checks concurrently, each under the
// per-check timeout. A failed critical check makes the result unhealthy; a
// failed optional check makes it degraded unless something critical failed.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checks := make([]registration, len(r.checks))
	copy(checks, r.checks)
	timeout := r.checkTimeout
	r.mu.RUnlock()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checks)),
		Timestamp: time.Now(),
	}

	// Checks never fail the group; failures are recorded per checker.
	var (
		g  errgroup.Group
		mu sync.Mutex
	)

	for _, reg := range checks {
		g.Go(func() error {
			res := runCheck(ctx, reg, timeout)

			mu.Lock()
			result.Checks[reg.checker.Name()] = res
			result.Status = worse(result.Status, res)
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	return result
}

func runCheck(ctx context.Context, reg registration, timeout time.Duration) *CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := reg.checker.Check(checkCtx)

	res := &CheckResult{
		Status:   HealthStatusHealthy,
		Optional: reg.optional,
		Duration: time.Since(start),
	}

	if err != nil {
		res.Status = HealthStatusUnhealthy
		res.Message = err.Error()
	}

	return res
}

// worse folds one check result into the overall status.
func worse(current HealthStatus, res *CheckResult) HealthStatus {
	switch {
	case res.Status == HealthStatusHealthy:
		return current
	case !res.Optional:
		return HealthStatusUnhealthy
	case current == HealthStatusUnhealthy:
		return current
	default:
		return HealthStatusDegraded
	}
}
