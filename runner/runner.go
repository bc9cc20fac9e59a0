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

// Package runner ties a configuration to a browser session and runs the
// RoomCraft journey.
package runner

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/ttbt-io/roomcraft-e2e/browser"
	"github.com/ttbt-io/roomcraft-e2e/config"
	"github.com/ttbt-io/roomcraft-e2e/journey"
	"github.com/ttbt-io/roomcraft-e2e/scenario"
)

// SummaryFile is written into the diagnostics directory after every run.
const SummaryFile = "summary.yaml"

// Result is what a run produced.
type Result struct {
	Summary        scenario.Summary
	SummaryPath    string
	DiagnosticsDir string
	// Err is the first scenario failure.
	Err error
}

// Run launches (or attaches to) a browser and runs the journey in it.
func Run(ctx context.Context, o *config.Options, logf func(string, ...any)) (*Result, error) {
	if logf == nil {
		logf = log.Printf
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	sess, err := browser.Start(ctx, o.Browser(logf))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sess.Stop(); err != nil {
			logf("browser stop: %v", err)
		}
	}()
	if o.RemoteURL != "" {
		// An attached browser may carry a session from an earlier run.
		if err := sess.ClearCookies(ctx); err != nil {
			return nil, fmt.Errorf("clear cookies: %w", err)
		}
	}
	return RunWithDriver(ctx, o, sess, logf)
}

// RunWithDriver runs the journey against an existing driver. The returned
// error is for problems setting up the run; scenario failures are in
// Result.Err.
func RunWithDriver(ctx context.Context, o *config.Options, d browser.Driver, logf func(string, ...any)) (*Result, error) {
	if logf == nil {
		logf = log.Printf
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	dir, err := o.ResolveDiagnosticsDir()
	if err != nil {
		return nil, err
	}

	tc := scenario.NewContext(o.BaseURL, scenario.NewIdentity(time.Now()))
	logf("run: %s as %s, diagnostics in %s", tc.BaseURL, tc.Identity.Email, dir)

	seq := &scenario.Sequencer{
		Driver:          d,
		Context:         tc,
		Timeout:         o.ScenarioTimeout,
		FailFast:        o.FailFast,
		DiagnosticsDir:  dir,
		SkipScreenshots: !o.Screenshots,
		Logf:            logf,
	}
	outcomes, runErr := seq.Run(ctx, journey.Scenarios(o.Journey(logf)))

	res := &Result{
		Summary:        scenario.Summarize(tc, outcomes),
		SummaryPath:    filepath.Join(dir, SummaryFile),
		DiagnosticsDir: dir,
		Err:            runErr,
	}
	if err := scenario.WriteSummary(res.SummaryPath, res.Summary); err != nil {
		logf("summary not saved: %v", err)
		res.SummaryPath = ""
	}
	return res, nil
}
