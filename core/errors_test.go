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

package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	cause := errors.New("node detached")
	err := ErrElementNotFound.WithMessage("no match for %s", "//h3").WithCause(cause)
	wrapped := fmt.Errorf("scenario %q: act: %w", "login", err)

	if !errors.Is(wrapped, ErrElementNotFound) {
		t.Errorf("errors.Is(wrapped, ErrElementNotFound) = false")
	}
	if errors.Is(wrapped, ErrTimeoutExceeded) {
		t.Errorf("errors.Is(wrapped, ErrTimeoutExceeded) = true")
	}
	if !errors.Is(wrapped, cause) {
		t.Errorf("cause not reachable through the chain")
	}
	if got := CategoryOf(wrapped); got != CategoryLocator {
		t.Errorf("CategoryOf = %q, want %q", got, CategoryLocator)
	}
	if got := CategoryOf(cause); got != "" {
		t.Errorf("CategoryOf(plain) = %q, want empty", got)
	}
}

func TestGestureWrapsAssertion(t *testing.T) {
	assertErr := ErrAssertionFailed.WithDetails(map[string]any{"want": "1 Items", "got": "0 Items"})
	err := ErrGestureNotConfirmed.WithCause(assertErr)
	if !errors.Is(err, ErrGestureNotConfirmed) || !errors.Is(err, ErrAssertionFailed) {
		t.Fatalf("expected both gesture and assertion codes in %v", err)
	}
	if CategoryOf(err) != CategoryGesture {
		t.Errorf("outermost category should win, got %q", CategoryOf(err))
	}
}

func TestWithHelpersDoNotMutateSentinels(t *testing.T) {
	_ = ErrTimeoutExceeded.WithDetails(map[string]any{"timeout": "5s"}).WithMessage("waiting for %s", "url")
	if ErrTimeoutExceeded.Details != nil {
		t.Errorf("sentinel details mutated: %v", ErrTimeoutExceeded.Details)
	}
	if ErrTimeoutExceeded.Message != "condition not met before timeout" {
		t.Errorf("sentinel message mutated: %q", ErrTimeoutExceeded.Message)
	}

	base := ErrAssertionFailed.WithDetails(map[string]any{"a": 1})
	more := base.WithDetails(map[string]any{"b": 2})
	if len(base.Details) != 1 || len(more.Details) != 2 {
		t.Errorf("details merge leaked: base=%v more=%v", base.Details, more.Details)
	}
}

func TestErrorString(t *testing.T) {
	err := ErrAssertionFailed.WithMessage("item count").
		WithDetails(map[string]any{"want": "1 Items", "got": "0 Items"}).
		WithCause(errors.New("mismatch"))
	got := err.Error()
	want := "item count (got=0 Items, want=1 Items): mismatch"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(ErrSessionLifecycle.Error(), "browser session") {
		t.Errorf("unexpected sentinel text %q", ErrSessionLifecycle.Error())
	}
}
