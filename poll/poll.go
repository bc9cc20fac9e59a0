// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package poll implements retry-until-true waiting on UI state.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ttbt-io/roomcraft-e2e/core"
)

// DefaultInterval is used when a Condition has no interval set.
const DefaultInterval = 200 * time.Millisecond

// ErrNotYet is returned by predicates that observed nothing wrong but are not
// satisfied yet.
var ErrNotYet = errors.New("not yet")

type stopError struct{ err error }

func (e *stopError) Error() string { return e.err.Error() }
func (e *stopError) Unwrap() error { return e.err }

// Stop wraps err so that Until gives up immediately and returns err, for
// predicates that observe a state the condition can no longer reach.
func Stop(err error) error {
	return &stopError{err: err}
}

// Condition is the time budget of a wait.
type Condition struct {
	// Description names what is being waited for in errors and logs.
	Description string
	Timeout     time.Duration
	Interval    time.Duration
}

// Within is shorthand for a Condition with the default interval.
func Within(timeout time.Duration, description string) Condition {
	return Condition{Description: description, Timeout: timeout, Interval: DefaultInterval}
}

// Until evaluates fn until it returns a nil error, and returns the value it
// produced. Every error from fn, including transient driver errors such as a
// detached node, means "keep polling", unless it was wrapped with Stop. Only
// an elapsed timeout (or a done ctx) ends the loop otherwise; the timeout
// error carries the last error observed.
//
// fn must be safe to call any number of times.
func Until[T any](ctx context.Context, c Condition, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	start := time.Now()
	attempts := 0
	var last error
	for {
		attempts++
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		last = err
		var stop *stopError
		if errors.As(err, &stop) {
			return zero, stop.err
		}

		if ctx.Err() != nil {
			return zero, fmt.Errorf("waiting for %s: %w", c.Description, ctx.Err())
		}
		remaining := c.Timeout - time.Since(start)
		if remaining <= 0 {
			return zero, core.ErrTimeoutExceeded.
				WithMessage("timeout waiting for %s", describe(c)).
				WithDetails(map[string]any{"timeout": c.Timeout, "attempts": attempts}).
				WithCause(last)
		}
		timer := time.NewTimer(min(interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("waiting for %s: %w", c.Description, ctx.Err())
		case <-timer.C:
		}
	}
}

// True polls a boolean predicate. A false result is treated as ErrNotYet.
func True(ctx context.Context, c Condition, fn func(context.Context) (bool, error)) error {
	_, err := Until(ctx, c, func(ctx context.Context) (struct{}, error) {
		ok, err := fn(ctx)
		if err != nil {
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, ErrNotYet
		}
		return struct{}{}, nil
	})
	return err
}

func describe(c Condition) string {
	if c.Description == "" {
		return "condition"
	}
	return c.Description
}
