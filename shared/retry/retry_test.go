package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name           string
		maxAttempts    int
		initialBackoff time.Duration
		maxBackoff     time.Duration
		expectedError  string
	}{
		{
			name:           "valid policy",
			maxAttempts:    3,
			initialBackoff: 100 * time.Millisecond,
			maxBackoff:     time.Second,
		},
		{
			name:           "single attempt",
			maxAttempts:    1,
			initialBackoff: 0,
			maxBackoff:     0,
		},
		{
			name:           "zero attempts",
			maxAttempts:    0,
			initialBackoff: 100 * time.Millisecond,
			maxBackoff:     time.Second,
			expectedError:  "max attempts must be positive",
		},
		{
			name:           "negative initial backoff",
			maxAttempts:    3,
			initialBackoff: -time.Millisecond,
			maxBackoff:     time.Second,
			expectedError:  "initial backoff must not be negative",
		},
		{
			name:           "max backoff below initial",
			maxAttempts:    3,
			initialBackoff: time.Second,
			maxBackoff:     100 * time.Millisecond,
			expectedError:  "max backoff must not be less than initial backoff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := NewPolicy(tt.maxAttempts, tt.initialBackoff, tt.maxBackoff)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.maxAttempts, policy.MaxAttempts)
			}
		})
	}
}

func TestPolicy_Decide(t *testing.T) {
	policy := Policy{MaxAttempts: 3, InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	tests := []struct {
		name     string
		attempt  int
		outcome  Outcome
		expected Decision
	}{
		{
			name:     "success on first attempt",
			attempt:  1,
			outcome:  OutcomeSuccess,
			expected: DecisionSucceed,
		},
		{
			name:     "success on last attempt",
			attempt:  3,
			outcome:  OutcomeSuccess,
			expected: DecisionSucceed,
		},
		{
			name:     "transient failure with attempts remaining",
			attempt:  1,
			outcome:  OutcomeTransient,
			expected: DecisionRetry,
		},
		{
			name:     "transient failure on second attempt",
			attempt:  2,
			outcome:  OutcomeTransient,
			expected: DecisionRetry,
		},
		{
			name:     "transient failure on final attempt",
			attempt:  3,
			outcome:  OutcomeTransient,
			expected: DecisionCompensate,
		},
		{
			name:     "permanent failure on first attempt",
			attempt:  1,
			outcome:  OutcomePermanent,
			expected: DecisionCompensate,
		},
		{
			name:     "permanent failure mid-flight",
			attempt:  2,
			outcome:  OutcomePermanent,
			expected: DecisionCompensate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.Decide(tt.attempt, tt.outcome))
		})
	}
}

func TestPolicy_Backoff(t *testing.T) {
	policy := Policy{MaxAttempts: 10, InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	tests := []struct {
		name     string
		attempt  int
		expected time.Duration
	}{
		{name: "first attempt", attempt: 1, expected: 100 * time.Millisecond},
		{name: "second attempt doubles", attempt: 2, expected: 200 * time.Millisecond},
		{name: "third attempt doubles again", attempt: 3, expected: 400 * time.Millisecond},
		{name: "capped at max backoff", attempt: 5, expected: time.Second},
		{name: "stays capped", attempt: 8, expected: time.Second},
		{name: "zeroth attempt", attempt: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.Backoff(tt.attempt))
		})
	}
}

func TestPolicy_BackoffNeverDecreases(t *testing.T) {
	policy := Policy{MaxAttempts: 20, InitialBackoff: 50 * time.Millisecond, MaxBackoff: 2 * time.Second}

	previous := time.Duration(0)
	for attempt := 1; attempt <= 20; attempt++ {
		delay := policy.Backoff(attempt)
		assert.GreaterOrEqual(t, delay, previous, "backoff decreased at attempt %d", attempt)
		assert.LessOrEqual(t, delay, policy.MaxBackoff)
		previous = delay
	}
}

func TestPolicy_BackoffWithoutInitial(t *testing.T) {
	policy := Policy{MaxAttempts: 3}

	for attempt := 1; attempt <= 3; attempt++ {
		assert.Equal(t, time.Duration(0), policy.Backoff(attempt))
	}
}

func TestSleep(t *testing.T) {
	t.Run("returns after duration", func(t *testing.T) {
		err := Sleep(context.Background(), time.Millisecond)
		assert.NoError(t, err)
	})

	t.Run("zero duration is a no-op", func(t *testing.T) {
		err := Sleep(context.Background(), 0)
		assert.NoError(t, err)
	})

	t.Run("cancelled context returns early", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := Sleep(ctx, time.Minute)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})
}
