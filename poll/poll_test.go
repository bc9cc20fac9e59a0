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

package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ttbt-io/roomcraft-e2e/core"
)

func TestUntilFirstTry(t *testing.T) {
	calls := 0
	v, err := Until(context.Background(), Within(time.Second, "value"), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Until: %v", err)
	}
	if v != 42 || calls != 1 {
		t.Errorf("got v=%d calls=%d, want 42 and 1", v, calls)
	}
}

func TestUntilAfterRetries(t *testing.T) {
	calls := 0
	c := Condition{Description: "third call", Timeout: 2 * time.Second, Interval: 10 * time.Millisecond}
	start := time.Now()
	v, err := Until(context.Background(), c, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("stale node")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Until: %v", err)
	}
	if v != "ok" || calls != 3 {
		t.Errorf("got v=%q calls=%d", v, calls)
	}
	if d := time.Since(start); d < 20*time.Millisecond {
		t.Errorf("returned after %v, expected at least two intervals", d)
	}
}

func TestTrueTimeoutBounds(t *testing.T) {
	const (
		timeout  = 150 * time.Millisecond
		interval = 40 * time.Millisecond
		slack    = 100 * time.Millisecond
	)
	start := time.Now()
	err := True(context.Background(), Condition{Description: "never", Timeout: timeout, Interval: interval}, func(context.Context) (bool, error) {
		return false, nil
	})
	elapsed := time.Since(start)
	if !errors.Is(err, core.ErrTimeoutExceeded) {
		t.Fatalf("err = %v, want ErrTimeoutExceeded", err)
	}
	if !errors.Is(err, ErrNotYet) {
		t.Errorf("timeout error should carry the last predicate result, got %v", err)
	}
	if elapsed < timeout {
		t.Errorf("gave up after %v, before the %v timeout", elapsed, timeout)
	}
	if elapsed > timeout+interval+slack {
		t.Errorf("gave up after %v, well past timeout+interval", elapsed)
	}
}

func TestUntilCarriesLastError(t *testing.T) {
	sentinel := errors.New("no such node")
	_, err := Until(context.Background(), Condition{Timeout: 30 * time.Millisecond, Interval: 10 * time.Millisecond}, func(context.Context) (int, error) {
		return 0, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want it to wrap %v", err, sentinel)
	}
	var ce *core.Error
	if !errors.As(err, &ce) {
		t.Fatalf("err is not a *core.Error: %T", err)
	}
	if n, _ := ce.Details["attempts"].(int); n < 2 {
		t.Errorf("attempts = %v, want >= 2", ce.Details["attempts"])
	}
}

func TestUntilContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := True(ctx, Within(5*time.Second, "cancelled"), func(context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, core.ErrTimeoutExceeded) {
		t.Errorf("cancellation reported as timeout")
	}
	if d := time.Since(start); d > time.Second {
		t.Errorf("cancellation took %v", d)
	}
}

func TestUntilZeroTimeoutEvaluatesOnce(t *testing.T) {
	calls := 0
	err := True(context.Background(), Condition{}, func(context.Context) (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, core.ErrTimeoutExceeded) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestUntilStop(t *testing.T) {
	gone := errors.New("dialog will never open")
	calls := 0
	err := True(context.Background(), Within(5*time.Second, "dialog"), func(context.Context) (bool, error) {
		calls++
		return false, Stop(gone)
	})
	if err != gone {
		t.Fatalf("err = %v, want the unwrapped stop error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
