package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryPolicyShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(3, 100*time.Millisecond, time.Second)
	errBoom := errors.New("boom")

	require.True(t, p.ShouldRetry(errBoom, 1))
	require.True(t, p.ShouldRetry(errBoom, 2))
	require.False(t, p.ShouldRetry(errBoom, 3), "attempt ceiling reached")
	require.False(t, p.ShouldRetry(nil, 1))
	require.False(t, p.ShouldRetry(context.Canceled, 1))
	require.False(t, p.ShouldRetry(context.DeadlineExceeded, 1))
}

func TestRetryPolicyBackoffDoublesAndCaps(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	maxDelay := 400 * time.Millisecond
	p := NewRetryPolicy(5, base, maxDelay)

	for attempt := 1; attempt <= 5; attempt++ {
		want := float64(base) * float64(int(1)<<(attempt-1))
		if want > float64(maxDelay) {
			want = float64(maxDelay)
		}
		got := p.Backoff(attempt)
		require.GreaterOrEqual(t, got, time.Duration(want/2), "attempt %d", attempt)
		require.LessOrEqual(t, got, time.Duration(want), "attempt %d", attempt)
	}
}

func TestNewRetryPolicyDefaults(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(0, 0, 0)
	require.Equal(t, 3, p.MaxAttempts())
	require.Positive(t, p.Backoff(1))
}
