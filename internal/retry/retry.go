// Package retry runs an operation with exponential backoff. The downloader,
// remote extraction and summarization all go through Policy.Do.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"papersum/internal/util"
)

// Policy mirrors the activity retry policy used by the workflows: 2s initial
// interval, coefficient 2, capped at 20s.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	// Jitter is a fraction in [0,1] of each delay that is randomized.
	Jitter float64

	Sleep     func(time.Duration)
	Retryable func(error) bool
}

func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Multiplier:  2,
		MaxDelay:    20 * time.Second,
	}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err so Do returns it without another attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls op until it succeeds, returns a non-retryable error, or the policy
// runs out of attempts. It reports how many attempts were made. Permanent
// wrappers are stripped from the returned error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	p = p.withDefaults()

	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if last == nil {
				last = err
			}
			return attempt - 1, last
		}
		err := op(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		last = err
		if isPermanent(err) {
			return attempt, unwrapPermanent(err)
		}
		if !p.Retryable(err) {
			return attempt, err
		}
		if attempt < p.MaxAttempts {
			p.Sleep(p.Delay(attempt))
		}
	}
	return p.MaxAttempts, last
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		j := math.Min(p.Jitter, 1)
		d = d*(1-j) + d*j*rand.Float64()
	}
	return time.Duration(d)
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2
	}
	if p.Sleep == nil {
		p.Sleep = time.Sleep
	}
	if p.Retryable == nil {
		p.Retryable = util.IsRetryable
	}
	return p
}

func unwrapPermanent(err error) error {
	var p *permanentError
	if errors.As(err, &p) {
		return p.err
	}
	return err
}
