// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

// Package waitfor is the only synchronization primitive between test logic
// and asynchronous node state. Scenarios never sleep for convergence; they
// poll a condition here with a bounded timeout.
package waitfor

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultInterval = 500 * time.Millisecond
	DefaultTimeout  = 60 * time.Second
)

// TimeoutError reports a condition that never became true, carrying the
// failure context of the last poll attempt.
type TimeoutError struct {
	What    string
	Elapsed time.Duration
	Last    error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("timed out after %v waiting for %s, last attempt: %v", e.Elapsed, e.What, e.Last)
	}
	return fmt.Sprintf("timed out after %v waiting for %s", e.Elapsed, e.What)
}

func (e *TimeoutError) Unwrap() error {
	return e.Last
}

type config struct {
	name     string
	interval time.Duration
	timeout  time.Duration
}

type Option func(*config)

func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

func WithInterval(interval time.Duration) Option {
	return func(c *config) { c.interval = interval }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *config) { c.timeout = timeout }
}

// Until polls condition immediately and then on a fixed interval until it
// returns true, the timeout elapses, or ctx is cancelled. A condition error
// counts as "not yet satisfied": nodes that are not listening yet surface as
// RPC errors, and those must not abort the wait early. The last error is
// attached to the TimeoutError returned when time runs out.
func Until(ctx context.Context, condition func() (bool, error), opts ...Option) error {
	return wait(ctx, condition, 1, opts...)
}

// UntilStable is Until with a settle count: the condition has to hold for
// settle consecutive polls. A single false or failed poll resets the count.
// Scenarios that need "stays true" semantics express them this way instead
// of sleeping.
func UntilStable(ctx context.Context, condition func() (bool, error), settle int, opts ...Option) error {
	return wait(ctx, condition, settle, opts...)
}

// Never polls condition on a fixed interval for the whole timeout window and
// fails the moment it holds. The inverse of Until: the caller asserts a state
// is never reached, so a single true observation is a failure, not a reset.
// Poll errors are fatal here since the polled nodes are expected to be up.
func Never(ctx context.Context, condition func() (bool, error), opts ...Option) error {
	cfg := config{
		name:     "condition",
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	deadline := start.Add(cfg.timeout)
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	for {
		ok, err := condition()
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("%s observed after %v", cfg.name, time.Since(start))
		}
		if time.Now().After(deadline) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func wait(ctx context.Context, condition func() (bool, error), settle int, opts ...Option) error {
	cfg := config{
		name:     "condition",
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	deadline := start.Add(cfg.timeout)
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	var lastErr error
	held := 0
	for {
		ok, err := condition()
		if err != nil {
			lastErr = err
			held = 0
		} else if ok {
			held++
			if held >= settle {
				return nil
			}
		} else {
			lastErr = nil
			held = 0
		}

		if time.Now().After(deadline) {
			return &TimeoutError{What: cfg.name, Elapsed: time.Since(start), Last: lastErr}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
