package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Outcome classifies the result of a single reservation attempt
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeTransient Outcome = "transient_failure"
	OutcomePermanent Outcome = "permanent_failure"
)

// Decision is what the policy tells the orchestrator to do next
type Decision string

const (
	DecisionSucceed    Decision = "succeed"
	DecisionRetry      Decision = "retry"
	DecisionCompensate Decision = "compensate"
)

// Policy controls retry behavior for a saga step. It holds no state across
// orders; decisions are a pure function of attempt number and outcome.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// NewPolicy creates a validated retry policy
func NewPolicy(maxAttempts int, initialBackoff, maxBackoff time.Duration) (Policy, error) {
	if maxAttempts < 1 {
		return Policy{}, errors.New("max attempts must be positive")
	}
	if initialBackoff < 0 {
		return Policy{}, errors.New("initial backoff must not be negative")
	}
	if maxBackoff < initialBackoff {
		return Policy{}, errors.New("max backoff must not be less than initial backoff")
	}
	return Policy{
		MaxAttempts:    maxAttempts,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}, nil
}

// Decide returns the next action after the given attempt produced the given
// outcome. Only transient failures are retried, and only while attempts
// remain; a permanent failure always compensates.
func (p Policy) Decide(attempt int, outcome Outcome) Decision {
	switch outcome {
	case OutcomeSuccess:
		return DecisionSucceed
	case OutcomeTransient:
		if attempt < p.MaxAttempts {
			return DecisionRetry
		}
		return DecisionCompensate
	default:
		return DecisionCompensate
	}
}

// Backoff returns the delay to wait after the given failed attempt before
// issuing the next one. The sequence doubles from InitialBackoff and is
// capped at MaxBackoff, so it never decreases across attempts.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.InitialBackoff <= 0 {
		return 0
	}

	delay := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxBackoff > 0 && delay >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}

	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}

// Sleep waits for the given duration, returning early with the context
// error if the context is cancelled first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
