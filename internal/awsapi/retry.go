package awsapi

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// Policy is a constant-interval bounded retry.
type Policy struct {
	Attempts uint
	Interval time.Duration
}

// Wait is the total time the policy may spend sleeping.
func (p Policy) Wait() time.Duration {
	if p.Attempts == 0 {
		return 0
	}
	return time.Duration(p.Attempts-1) * p.Interval
}

var (
	// TagPolicy waits for freshly created resources to become taggable.
	TagPolicy = Policy{Attempts: 60, Interval: time.Second}
	// StatePolicy waits for instance state transitions, key pair
	// propagation and address association.
	StatePolicy = Policy{Attempts: 12, Interval: 5 * time.Second}
)

// Retry runs op until it succeeds, returns an error retryable rejects, or the
// policy is exhausted. Exhaustion on a retryable error yields a
// *RetryExhaustedError naming resource. A nil retryable retries IsNotFound.
func Retry(ctx context.Context, p Policy, resource string, retryable func(error) bool, op func(ctx context.Context) error) error {
	if retryable == nil {
		retryable = IsNotFound
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Interval)),
		backoff.WithMaxTries(p.Attempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Str("resource", resource).Dur("next", next).Msg("retrying")
		}),
	)
	if err == nil {
		return nil
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if retryable(err) {
		return &RetryExhaustedError{Resource: resource, Wait: p.Wait(), Err: err}
	}
	return err
}
