package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s *stubChecker) Name() string { return s.name }
func (s *stubChecker) Check(_ context.Context) error { return s.err }

// blockingChecker waits for its context to end.
type blockingChecker struct{ name string }

func (b *blockingChecker) Name() string { return b.name }

func (b *blockingChecker) Check(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRegister_DuplicateName(t *testing.T) {
	registry := NewHealthRegistry()

	require.NoError(t, registry.Register(&stubChecker{name: "quote-store"}))

	err := registry.RegisterOptional(&stubChecker{name: "quote-store"})
	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "quote-store")
	assert.Len(t, registry.checks, 1)
}

func TestCheckAll_Status(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name     string
		critical []*stubChecker
		optional []*stubChecker
		want     HealthStatus
	}{
		{
			name: "no checkers",
			want: HealthStatusHealthy,
		},
		{
			name:     "all healthy",
			critical: []*stubChecker{{name: "quote-store"}},
			optional: []*stubChecker{{name: "quotable"}},
			want:     HealthStatusHealthy,
		},
		{
			name:     "optional source down degrades",
			critical: []*stubChecker{{name: "quote-store"}},
			optional: []*stubChecker{{name: "quotable", err: down}},
			want:     HealthStatusDegraded,
		},
		{
			name:     "critical store down is unhealthy",
			critical: []*stubChecker{{name: "quote-store", err: down}},
			optional: []*stubChecker{{name: "quotable"}},
			want:     HealthStatusUnhealthy,
		},
		{
			name:     "critical failure outranks optional failure",
			critical: []*stubChecker{{name: "quote-store", err: down}},
			optional: []*stubChecker{{name: "quotable", err: down}, {name: "otlp", err: down}},
			want:     HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			for _, c := range tt.critical {
				require.NoError(t, registry.Register(c))
			}
			for _, c := range tt.optional {
				require.NoError(t, registry.RegisterOptional(c))
			}

			result := registry.CheckAll(context.Background())

			assert.Equal(t, tt.want, result.Status)
			assert.Len(t, result.Checks, len(tt.critical)+len(tt.optional))
			assert.False(t, result.Timestamp.IsZero())

			for _, c := range tt.optional {
				assert.True(t, result.Checks[c.name].Optional)
			}
		})
	}
}

func TestCheckAll_RecordsFailureMessage(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.RegisterOptional(&stubChecker{name: "quotable", err: errors.New("circuit breaker open")}))

	result := registry.CheckAll(context.Background())

	check := result.Checks["quotable"]
	require.NotNil(t, check)
	assert.Equal(t, HealthStatusUnhealthy, check.Status)
	assert.Equal(t, "circuit breaker open", check.Message)
}

func TestCheckAll_PerCheckTimeout(t *testing.T) {
	registry := NewHealthRegistry()
	registry.SetCheckTimeout(20 * time.Millisecond)
	registry.SetCheckTimeout(0)

	require.NoError(t, registry.Register(&blockingChecker{name: "slow"}))
	require.NoError(t, registry.Register(&stubChecker{name: "fast"}))

	start := time.Now()
	result := registry.CheckAll(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["slow"].Message, "deadline exceeded")
	assert.Equal(t, HealthStatusHealthy, result.Checks["fast"].Status)
}

func TestCheckAll_CallerCancellation(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&blockingChecker{name: "slow"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["slow"].Message, "context canceled")
}
