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

package scenario

import (
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/ttbt-io/roomcraft-e2e/core"
)

// Equal fails with core.ErrAssertionFailed when got differs from want.
// Multi-line values are reported as a unified diff.
func Equal(what, want, got string) error {
	if want == got {
		return nil
	}
	details := map[string]any{"want": want, "got": got}
	if strings.Contains(want, "\n") || strings.Contains(got, "\n") {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(want),
			B:        difflib.SplitLines(got),
			FromFile: "Expected",
			ToFile:   "Actual",
			Context:  3,
		})
		if err == nil {
			details = map[string]any{"diff": "\n" + diff}
		}
	}
	return core.ErrAssertionFailed.WithMessage("unexpected %s", what).WithDetails(details)
}

// Summary is the machine-readable result of a run.
type Summary struct {
	BaseURL  string    `yaml:"baseURL"`
	Email    string    `yaml:"email"`
	Passed   int       `yaml:"passed"`
	Failed   int       `yaml:"failed"`
	Skipped  int       `yaml:"skipped"`
	Outcomes []Outcome `yaml:"scenarios"`
}

// Summarize counts outcomes by status.
func Summarize(tc *Context, outcomes []Outcome) Summary {
	s := Summary{Outcomes: outcomes}
	if tc != nil {
		s.BaseURL = tc.BaseURL
		s.Email = tc.Identity.Email
	}
	for _, o := range outcomes {
		switch o.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// WriteSummary writes s as YAML to path.
func WriteSummary(path string, s Summary) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("yaml.Marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
