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

// Package scenario runs ordered browser scenarios over one shared session.
//
// Each Scenario is split into up to four phases, run in order:
//
//	Setup   navigate or prepare state
//	Act     interact with the page
//	Wait    poll until the page reflects the interaction
//	Assert  compare what the page shows with what is expected
//
// The first phase to return an error fails the scenario. Scenarios share a
// *Context, so a later one may depend on state an earlier one produced;
// with FailFast set, the scenarios after a failure are skipped.
package scenario

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ttbt-io/roomcraft-e2e/browser"
	"github.com/ttbt-io/roomcraft-e2e/diagnostics"
)

// Phase is one step of a scenario.
type Phase func(ctx context.Context, tc *Context, d browser.Driver) error

// Scenario is a named unit of the journey. Nil phases are skipped.
type Scenario struct {
	Name   string
	Setup  Phase
	Act    Phase
	Wait   Phase
	Assert Phase
}

// Status is the result of one scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome records how a scenario ended.
type Outcome struct {
	Name     string        `yaml:"name"`
	Status   Status        `yaml:"status"`
	Duration time.Duration `yaml:"duration"`
	Phase    string        `yaml:"phase,omitempty"`
	Error    string        `yaml:"error,omitempty"`
	Report   string        `yaml:"report,omitempty"`

	Err error `yaml:"-"`
}

// Sequencer runs scenarios in order against one driver.
type Sequencer struct {
	Driver  browser.Driver
	Context *Context
	// Timeout bounds each scenario. Zero means no per-scenario bound.
	Timeout time.Duration
	// FailFast skips the remaining scenarios after the first failure.
	FailFast bool
	// DiagnosticsDir receives a report for every failed scenario. Empty
	// disables diagnostics.
	DiagnosticsDir string
	// SkipScreenshots leaves screenshots out of diagnostics.
	SkipScreenshots bool
	Logf            func(format string, args ...any)
}

func (s *Sequencer) logf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Run executes scenarios in the given order and returns one outcome per
// scenario. The error is the first scenario failure, if any.
func (s *Sequencer) Run(ctx context.Context, scenarios []Scenario) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(scenarios))
	var first error
	for _, sc := range scenarios {
		if first != nil && s.FailFast {
			s.logf("SKIP: %s", sc.Name)
			outcomes = append(outcomes, Outcome{Name: sc.Name, Status: StatusSkipped})
			continue
		}
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Name: sc.Name, Status: StatusSkipped, Error: err.Error(), Err: err})
			if first == nil {
				first = err
			}
			continue
		}
		o := s.RunOne(ctx, sc)
		outcomes = append(outcomes, o)
		if o.Err != nil && first == nil {
			first = o.Err
		}
	}
	return outcomes, first
}

// RunOne executes a single scenario, capturing diagnostics if it fails.
func (s *Sequencer) RunOne(ctx context.Context, sc Scenario) Outcome {
	start := time.Now()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	o := Outcome{Name: sc.Name, Status: StatusPassed}
	for _, p := range []struct {
		name string
		fn   Phase
	}{
		{"setup", sc.Setup},
		{"act", sc.Act},
		{"wait", sc.Wait},
		{"assert", sc.Assert},
	} {
		if p.fn == nil {
			continue
		}
		s.logf("STEP: %s [%s]", sc.Name, p.name)
		if err := p.fn(ctx, s.Context, s.Driver); err != nil {
			o.Status = StatusFailed
			o.Phase = p.name
			o.Err = fmt.Errorf("%s: %s: %w", sc.Name, p.name, err)
			o.Error = o.Err.Error()
			s.logf("FAIL: %v", o.Err)
			o.Report = s.diagnose(ctx, sc.Name, p.name, o.Err)
			break
		}
	}
	o.Duration = time.Since(start)
	if o.Err == nil {
		s.logf("PASS: %s (%v)", sc.Name, o.Duration.Round(time.Millisecond))
	}
	return o
}

func (s *Sequencer) diagnose(ctx context.Context, name, phase string, cause error) string {
	if s.DiagnosticsDir == "" {
		return ""
	}
	r := diagnostics.Capture(ctx, s.Driver, name, phase, cause)
	if s.SkipScreenshots {
		r.Screenshot = nil
	}
	dest := diagnostics.Path(s.DiagnosticsDir, name)
	if err := diagnostics.Persist(r, dest); err != nil {
		s.logf("diagnostics for %s not saved: %v", name, err)
		return ""
	}
	return dest
}
