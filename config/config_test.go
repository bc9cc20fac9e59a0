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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ttbt-io/roomcraft-e2e/browser"
)

func TestDefaultIsValid(t *testing.T) {
	o := Default()
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if o.Headless {
		t.Errorf("headless should default to off")
	}
	b := o.Browser(nil)
	if !b.NoSandbox || !b.DisableDevShm || !b.IgnoreCertErrors || b.WindowWidth != 1920 || b.WindowHeight != 1080 {
		t.Errorf("browser config = %+v", b)
	}
	j := o.Journey(t.Logf)
	if j.Short != 5*time.Second || j.Long != 10*time.Second || j.Drag.Strategy != browser.DragPointer {
		t.Errorf("journey options = %+v", j)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomcraft-e2e.yaml")
	data := `
baseURL: https://devtest.local:8443
headless: true
timeouts:
  long: 20s
pollInterval: 50ms
dragStrategy: html5
strictEmptyState: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	o, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if o.BaseURL != "https://devtest.local:8443" || !o.Headless || !o.StrictEmptyState {
		t.Errorf("loaded = %+v", o)
	}
	if o.Timeouts.Long != 20*time.Second || o.Timeouts.Short != 5*time.Second {
		t.Errorf("timeouts = %+v, want long overridden and short kept", o.Timeouts)
	}
	if o.PollInterval != 50*time.Millisecond || o.DragStrategy != "html5" {
		t.Errorf("poll=%v drag=%q", o.PollInterval, o.DragStrategy)
	}
	if !o.FailFast || !o.NoSandbox {
		t.Errorf("defaults lost: %+v", o)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if j := o.Journey(t.Logf); j.Interval != 50*time.Millisecond || j.Long != 20*time.Second {
		t.Errorf("journey interval=%v long=%v", j.Interval, j.Long)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Load of a missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Options){
		"empty base":        func(o *Options) { o.BaseURL = "" },
		"relative base":     func(o *Options) { o.BaseURL = "/login" },
		"ftp base":          func(o *Options) { o.BaseURL = "ftp://x" },
		"zero short":        func(o *Options) { o.Timeouts.Short = 0 },
		"negative long":     func(o *Options) { o.Timeouts.Long = -time.Second },
		"zero scenario":     func(o *Options) { o.ScenarioTimeout = 0 },
		"interval too long": func(o *Options) { o.PollInterval = o.Timeouts.Short },
		"zero interval":     func(o *Options) { o.PollInterval = 0 },
		"bad strategy":      func(o *Options) { o.DragStrategy = "touch" },
		"bad window":        func(o *Options) { o.WindowWidth = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			o := Default()
			mutate(o)
			if err := o.Validate(); err == nil {
				t.Errorf("Validate accepted %+v", o)
			}
		})
	}
}

func TestResolveDiagnosticsDir(t *testing.T) {
	o := Default()
	dir, err := o.ResolveDiagnosticsDir()
	if err != nil {
		t.Fatalf("ResolveDiagnosticsDir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	if !strings.HasPrefix(filepath.Base(dir), "roomcraft-e2e-") {
		t.Errorf("dir = %q", dir)
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		t.Errorf("dir not created: %v", err)
	}

	o = Default()
	o.DiagnosticsDir = filepath.Join(t.TempDir(), "a", "b")
	got, err := o.ResolveDiagnosticsDir()
	if err != nil || got != o.DiagnosticsDir {
		t.Errorf("ResolveDiagnosticsDir = %q, %v", got, err)
	}
}
