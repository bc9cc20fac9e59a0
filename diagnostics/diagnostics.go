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

// Package diagnostics captures the state of the browser when a scenario fails
// and writes it to disk for post-mortem.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ttbt-io/roomcraft-e2e/browser"
)

// CaptureTimeout bounds all browser reads done by Capture.
var CaptureTimeout = 5 * time.Second

// Report is a snapshot of the browser taken after a failure. Fields that
// could not be read are left empty and explained in Notes.
type Report struct {
	Scenario      string
	Phase         string
	Time          time.Time
	Error         string
	URL           string
	PageText      string
	ConsoleErrors []string
	Notes         []string
	Screenshot    []byte
}

// Capture reads the current URL, visible text and a screenshot from d. It
// never fails: problems reading any piece are recorded as notes. Capture
// still works when ctx is already done.
func Capture(ctx context.Context, d browser.Driver, scenario, phase string, cause error) *Report {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), CaptureTimeout)
	defer cancel()

	r := &Report{
		Scenario: scenario,
		Phase:    phase,
		Time:     time.Now().UTC(),
	}
	if cause != nil {
		r.Error = cause.Error()
	}

	if u, err := d.URL(ctx); err != nil {
		r.note("reading URL: %v", err)
	} else {
		r.URL = u
	}

	if txt, err := d.PageText(ctx); err != nil {
		r.note("reading page text: %v", err)
		if txt, herr := textFromHTML(ctx, d); herr != nil {
			r.note("reading page HTML: %v", herr)
		} else {
			r.PageText = txt
			r.note("page text extracted from HTML")
		}
	} else {
		r.PageText = txt
	}

	if shot, err := d.Screenshot(ctx); err != nil {
		r.note("capturing screenshot: %v", err)
	} else {
		r.Screenshot = shot
	}

	r.ConsoleErrors = d.ConsoleErrors()
	return r
}

func (r *Report) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

var blankLines = regexp.MustCompile(`\n\s*\n+`)

// textFromHTML approximates the page's visible text from its markup.
func textFromHTML(ctx context.Context, d browser.Driver) (string, error) {
	html, err := d.HTML(ctx)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template").Remove()
	txt := doc.Find("body").Text()
	return strings.TrimSpace(blankLines.ReplaceAllString(txt, "\n")), nil
}

// String renders the report as the text artifact.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n", r.Scenario)
	if r.Phase != "" {
		fmt.Fprintf(&b, "Phase: %s\n", r.Phase)
	}
	fmt.Fprintf(&b, "Time: %s\n", r.Time.Format(time.RFC3339))
	fmt.Fprintf(&b, "Error: %s\n", r.Error)
	fmt.Fprintf(&b, "URL: %s\n", r.URL)
	if len(r.ConsoleErrors) > 0 {
		b.WriteString("Console errors:\n")
		for _, c := range r.ConsoleErrors {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}
	if len(r.Notes) > 0 {
		b.WriteString("Notes:\n")
		for _, n := range r.Notes {
			fmt.Fprintf(&b, "  - %s\n", n)
		}
	}
	b.WriteString("Page text:\n")
	b.WriteString(r.PageText)
	b.WriteString("\n")
	return b.String()
}

// Persist writes the report to dest, replacing any previous file, and the
// screenshot, if any, to dest + ".png". A screenshot left by an earlier report
// is removed when r has none.
func Persist(r *Report, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create diagnostics directory: %w", err)
	}
	if err := os.WriteFile(dest, []byte(r.String()), 0644); err != nil {
		return fmt.Errorf("failed to write diagnostics: %w", err)
	}
	log.Printf("Saved diagnostics to %s", dest)
	if len(r.Screenshot) == 0 {
		if err := os.Remove(dest + ".png"); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove stale screenshot: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(dest+".png", r.Screenshot, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	log.Printf("Saved screenshot to %s.png", dest)
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a scenario name into a file name stem.
func Slug(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "scenario"
	}
	return s
}

// Path returns the report destination for scenario under dir.
func Path(dir, scenario string) string {
	return filepath.Join(dir, Slug(scenario)+".txt")
}
