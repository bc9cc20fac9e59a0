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

// Package config handles run configuration (roomcraft-e2e.yaml).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ttbt-io/roomcraft-e2e/browser"
	"github.com/ttbt-io/roomcraft-e2e/journey"
)

// Timeouts are the two wait budgets used by the journey.
type Timeouts struct {
	Short time.Duration `yaml:"short"`
	Long  time.Duration `yaml:"long"`
}

// Options is the full run configuration.
type Options struct {
	BaseURL string `yaml:"baseURL"`
	// RemoteURL attaches to a running browser instead of launching one.
	RemoteURL string `yaml:"remoteURL"`

	Headless         bool `yaml:"headless"`
	NoSandbox        bool `yaml:"noSandbox"`
	DisableDevShm    bool `yaml:"disableDevShm"`
	IgnoreCertErrors bool `yaml:"ignoreCertErrors"`
	WindowWidth      int  `yaml:"windowWidth"`
	WindowHeight     int  `yaml:"windowHeight"`
	Debug            bool `yaml:"debug"`

	ScenarioTimeout time.Duration `yaml:"scenarioTimeout"`
	PollInterval    time.Duration `yaml:"pollInterval"`
	Timeouts        Timeouts      `yaml:"timeouts"`

	// DiagnosticsDir receives failure reports and the run summary. Empty
	// selects a fresh directory under the system temp dir.
	DiagnosticsDir   string `yaml:"diagnosticsDir"`
	DragStrategy     string `yaml:"dragStrategy"`
	StrictEmptyState bool   `yaml:"strictEmptyState"`
	FailFast         bool   `yaml:"failFast"`
	Screenshots      bool   `yaml:"screenshots"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Options {
	return &Options{
		BaseURL:          "http://localhost:5173",
		NoSandbox:        true,
		DisableDevShm:    true,
		IgnoreCertErrors: true,
		WindowWidth:      1920,
		WindowHeight:     1080,
		ScenarioTimeout:  60 * time.Second,
		PollInterval:     200 * time.Millisecond,
		Timeouts: Timeouts{
			Short: 5 * time.Second,
			Long:  10 * time.Second,
		},
		DragStrategy: string(browser.DragPointer),
		FailFast:     true,
		Screenshots:  true,
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}
	opts := Default()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// Validate reports the first problem with o.
func (o *Options) Validate() error {
	u, err := url.Parse(o.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base URL %q", o.BaseURL)
	}
	if o.ScenarioTimeout <= 0 || o.Timeouts.Short <= 0 || o.Timeouts.Long <= 0 {
		return errors.New("timeouts must be positive")
	}
	if o.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if o.PollInterval >= o.Timeouts.Short {
		return fmt.Errorf("poll interval %v must be shorter than the short timeout %v", o.PollInterval, o.Timeouts.Short)
	}
	if o.WindowWidth <= 0 || o.WindowHeight <= 0 {
		return fmt.Errorf("invalid window size %dx%d", o.WindowWidth, o.WindowHeight)
	}
	if _, err := browser.ParseDragStrategy(o.DragStrategy); err != nil {
		return err
	}
	return nil
}

// Browser returns the session configuration.
func (o *Options) Browser(logf func(string, ...any)) browser.Config {
	return browser.Config{
		RemoteURL:        o.RemoteURL,
		Headless:         o.Headless,
		NoSandbox:        o.NoSandbox,
		DisableDevShm:    o.DisableDevShm,
		IgnoreCertErrors: o.IgnoreCertErrors,
		WindowWidth:      o.WindowWidth,
		WindowHeight:     o.WindowHeight,
		Debug:            o.Debug,
		Logf:             logf,
	}
}

// Journey returns the journey options. o must be valid.
func (o *Options) Journey(logf func(string, ...any)) journey.Options {
	strategy, _ := browser.ParseDragStrategy(o.DragStrategy)
	j := journey.DefaultOptions()
	j.Short = o.Timeouts.Short
	j.Long = o.Timeouts.Long
	j.Interval = o.PollInterval
	j.StrictEmptyState = o.StrictEmptyState
	j.Drag = browser.DragOptions{Strategy: strategy, Logf: logf}
	j.Logf = logf
	return j
}

// ResolveDiagnosticsDir creates the diagnostics directory, choosing a
// run-scoped one when none is configured, and records it in o.
func (o *Options) ResolveDiagnosticsDir() (string, error) {
	if o.DiagnosticsDir == "" {
		o.DiagnosticsDir = filepath.Join(os.TempDir(), "roomcraft-e2e-"+uuid.NewString())
	}
	if err := os.MkdirAll(o.DiagnosticsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create diagnostics directory: %w", err)
	}
	return o.DiagnosticsDir, nil
}
