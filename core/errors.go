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

// Package core holds the failure taxonomy shared by the scenario runner.
package core

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Category groups related failure codes.
type Category string

const (
	CategoryLocator   Category = "locator"
	CategoryTimeout   Category = "timeout"
	CategoryAssertion Category = "assertion"
	CategoryGesture   Category = "gesture"
	CategorySession   Category = "session"
)

// Error is a structured scenario failure. Two errors are considered the same
// by errors.Is when their codes match, so callers can compare against the
// predefined values below regardless of message, details or cause.
type Error struct {
	Category Category
	Code     string
	Message  string
	Details  map[string]any
	Cause    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *Error) WithCause(cause error) *Error {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithMessage returns a copy of the error with a custom message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	c := e.clone()
	c.Message = fmt.Sprintf(format, args...)
	return c
}

// WithDetails returns a copy of the error with details merged in.
func (e *Error) WithDetails(details map[string]any) *Error {
	c := e.clone()
	c.Details = make(map[string]any, len(e.Details)+len(details))
	maps.Copy(c.Details, e.Details)
	maps.Copy(c.Details, details)
	return c
}

func (e *Error) clone() *Error {
	return &Error{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

var (
	// ErrElementNotFound: a locator matched nothing when one element was required.
	ErrElementNotFound = &Error{
		Category: CategoryLocator,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	// ErrTimeoutExceeded: a condition never became true within its budget.
	ErrTimeoutExceeded = &Error{
		Category: CategoryTimeout,
		Code:     "timeout_exceeded",
		Message:  "condition not met before timeout",
	}
	// ErrAssertionFailed: an observed value did not equal the expected one.
	ErrAssertionFailed = &Error{
		Category: CategoryAssertion,
		Code:     "assertion_failed",
		Message:  "assertion failed",
	}
	// ErrGestureNotConfirmed: a simulated gesture completed but its expected
	// effect never showed up in application state.
	ErrGestureNotConfirmed = &Error{
		Category: CategoryGesture,
		Code:     "gesture_not_confirmed",
		Message:  "gesture effect not observed",
	}
	// ErrSessionLifecycle: the browser session failed to start or stop cleanly.
	ErrSessionLifecycle = &Error{
		Category: CategorySession,
		Code:     "session_lifecycle",
		Message:  "browser session lifecycle error",
	}
)

// CategoryOf returns the category of the first *Error in err's chain, or ""
// when err carries none.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}
