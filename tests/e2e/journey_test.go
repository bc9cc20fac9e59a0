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

package e2e

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ttbt-io/roomcraft-e2e/browser"
	"github.com/ttbt-io/roomcraft-e2e/config"
	"github.com/ttbt-io/roomcraft-e2e/diagnostics"
	"github.com/ttbt-io/roomcraft-e2e/journey"
	"github.com/ttbt-io/roomcraft-e2e/runner"
	"github.com/ttbt-io/roomcraft-e2e/scenario"
)

func testOptions(t *testing.T, baseURL string) *config.Options {
	o := config.Default()
	o.BaseURL = baseURL
	o.RemoteURL = *withChromeDP
	o.Headless = true
	o.DiagnosticsDir = t.TempDir()
	return o
}

func TestFullJourney(t *testing.T) {
	if *withChromeDP == "" {
		t.Skip("--with-chromedp not set")
	}
	baseURL, srv := startFixture(t)

	for _, strategy := range []browser.DragStrategy{browser.DragPointer, browser.DragHTML5} {
		t.Run(string(strategy), func(t *testing.T) {
			o := testOptions(t, baseURL)
			o.DragStrategy = string(strategy)
			o.StrictEmptyState = true

			ctx, cancel := context.WithTimeout(t.Context(), 3*time.Minute)
			defer cancel()
			res, err := runner.Run(ctx, o, t.Logf)
			if err != nil {
				t.Fatalf("runner.Run: %v", err)
			}
			for _, oc := range res.Summary.Outcomes {
				t.Logf("%-28s %-7s %v", oc.Name, oc.Status, oc.Duration)
				if oc.Report != "" {
					if b, err := os.ReadFile(oc.Report); err == nil {
						t.Logf("diagnostics for %s:\n%s", oc.Name, b)
					}
				}
			}
			if res.Err != nil {
				t.Fatalf("journey failed: %v", res.Err)
			}
			if res.Summary.Passed != 7 {
				t.Fatalf("passed %d of 7 scenarios", res.Summary.Passed)
			}

			designs, err := srv.App().Store().Designs(res.Summary.Email)
			if err != nil {
				t.Fatalf("Designs: %v", err)
			}
			var found bool
			for _, d := range designs {
				if strings.HasPrefix(d.Name, "Selenium Room ") {
					t.Errorf("design %q survived its deletion", d.Name)
				}
				if strings.HasPrefix(d.Name, "Furniture Test ") {
					found = true
					if len(d.Items) != 1 || d.Items[0].Name != journey.CatalogSofa {
						t.Errorf("furniture design items = %+v", d.Items)
					}
				}
			}
			if !found {
				t.Errorf("furniture design not stored; designs: %d", len(designs))
			}
		})
	}
}

func TestDiagnosticsFromRealBrowser(t *testing.T) {
	if *withChromeDP == "" {
		t.Skip("--with-chromedp not set")
	}
	baseURL, _ := startFixture(t)
	o := testOptions(t, baseURL)

	ctx, cancel := context.WithTimeout(t.Context(), time.Minute)
	defer cancel()
	sess, err := browser.Start(ctx, o.Browser(t.Logf))
	if err != nil {
		t.Fatalf("browser.Start: %v", err)
	}
	defer sess.Stop()
	if err := sess.ClearCookies(ctx); err != nil {
		t.Fatalf("ClearCookies: %v", err)
	}

	// Logging in as a user that was never registered leaves the page on
	// /login, so the dashboard wait fails.
	j := o.Journey(t.Logf)
	j.Long = 2 * time.Second
	var login scenario.Scenario
	for _, sc := range journey.Scenarios(j) {
		if sc.Name == "Login Existing User" {
			login = sc
		}
	}
	seq := &scenario.Sequencer{
		Driver:         sess,
		Context:        scenario.NewContext(baseURL, scenario.NewIdentity(time.Now())),
		Timeout:        30 * time.Second,
		DiagnosticsDir: o.DiagnosticsDir,
		Logf:           t.Logf,
	}
	oc := seq.RunOne(ctx, login)
	if oc.Status != scenario.StatusFailed || oc.Phase != "wait" {
		t.Fatalf("outcome = %+v", oc)
	}
	if oc.Report != diagnostics.Path(o.DiagnosticsDir, login.Name) {
		t.Fatalf("report = %q", oc.Report)
	}
	b, err := os.ReadFile(oc.Report)
	if err != nil {
		t.Fatal(err)
	}
	report := string(b)
	for _, want := range []string{"/login", "Sign In", "timeout waiting for"} {
		if !strings.Contains(report, want) {
			t.Errorf("report lacks %q:\n%s", want, report)
		}
	}
	if st, err := os.Stat(oc.Report + ".png"); err != nil || st.Size() == 0 {
		t.Errorf("screenshot missing: %v", err)
	}
}
