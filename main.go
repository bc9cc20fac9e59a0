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

// Command roomcraft-e2e drives the RoomCraft user journey in a real browser
// and can serve a local stand-in of the application to run it against.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
	"github.com/urfave/cli/v2"

	"github.com/ttbt-io/roomcraft-e2e/config"
	"github.com/ttbt-io/roomcraft-e2e/fixture"
	"github.com/ttbt-io/roomcraft-e2e/runner"
	"github.com/ttbt-io/roomcraft-e2e/scenario"
)

func main() {
	app := &cli.App{
		Name:  "roomcraft-e2e",
		Usage: "End-to-end journey runner for RoomCraft",
		Description: `Runs the RoomCraft journey (register, logout, login, design round trip,
empty state, furniture drag and drop) in Chrome, in order, over one session.

Examples:
  roomcraft-e2e run --base-url https://devtest.local:8443
  roomcraft-e2e run --config roomcraft-e2e.yaml --headless
  roomcraft-e2e run --with-fixture --headless
  roomcraft-e2e fixture --addr :8443 --tls`,
		Commands: []*cli.Command{
			runCommand,
			fixtureCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if ec, ok := err.(cli.ExitCoder); ok {
			os.Exit(ec.ExitCode())
		}
		os.Exit(1)
	}
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the journey",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to roomcraft-e2e.yaml",
			EnvVars: []string{"ROOMCRAFT_E2E_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Application base URL",
			EnvVars: []string{"ROOMCRAFT_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "remote-url",
			Usage:   "Attach to a running browser at this DevTools URL instead of launching one",
			EnvVars: []string{"ROOMCRAFT_REMOTE_URL"},
		},
		&cli.BoolFlag{
			Name:  "headless",
			Usage: "Launch the browser without a window",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Log DevTools protocol traffic",
		},
		&cli.StringFlag{
			Name:  "diagnostics-dir",
			Usage: "Directory for failure reports and summary.yaml (default: a new temp dir)",
		},
		&cli.StringFlag{
			Name:  "drag-strategy",
			Usage: "How to drag furniture: pointer or html5",
		},
		&cli.BoolFlag{
			Name:  "strict-empty-state",
			Usage: "Delete every design before checking the empty dashboard",
		},
		&cli.BoolFlag{
			Name:  "keep-going",
			Usage: "Run every scenario even after a failure",
		},
		&cli.BoolFlag{
			Name:  "no-screenshots",
			Usage: "Leave screenshots out of failure reports",
		},
		&cli.DurationFlag{
			Name:  "scenario-timeout",
			Usage: "Upper bound for a single scenario",
		},
		&cli.BoolFlag{
			Name:  "with-fixture",
			Usage: "Serve the built-in fixture application and run against it",
		},
	},
	Action: runJourney,
}

// loadOptions merges the config file and the command line.
func loadOptions(c *cli.Context) (*config.Options, error) {
	o := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if o, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet("base-url") {
		o.BaseURL = c.String("base-url")
	}
	if c.IsSet("remote-url") {
		o.RemoteURL = c.String("remote-url")
	}
	if c.IsSet("headless") {
		o.Headless = c.Bool("headless")
	}
	if c.IsSet("debug") {
		o.Debug = c.Bool("debug")
	}
	if c.IsSet("diagnostics-dir") {
		o.DiagnosticsDir = c.String("diagnostics-dir")
	}
	if c.IsSet("drag-strategy") {
		o.DragStrategy = c.String("drag-strategy")
	}
	if c.IsSet("strict-empty-state") {
		o.StrictEmptyState = c.Bool("strict-empty-state")
	}
	if c.IsSet("keep-going") {
		o.FailFast = !c.Bool("keep-going")
	}
	if c.IsSet("no-screenshots") {
		o.Screenshots = !c.Bool("no-screenshots")
	}
	if c.IsSet("scenario-timeout") {
		o.ScenarioTimeout = c.Duration("scenario-timeout")
	}
	return o, nil
}

func runJourney(c *cli.Context) error {
	o, err := loadOptions(c)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("with-fixture") {
		dataDir, err := os.MkdirTemp("", "roomcraft-fixture-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dataDir)
		srv, err := fixture.Start(fixture.Options{Addr: "127.0.0.1:0", DataDir: dataDir, Debug: o.Debug})
		if err != nil {
			return fmt.Errorf("fixture: %w", err)
		}
		defer shutdown(srv)
		if err := fixture.WaitReady(ctx, srv.URL()+"/login", 10*time.Second); err != nil {
			return err
		}
		o.BaseURL = srv.URL()
	}

	res, err := runner.Run(ctx, o, log.Printf)
	if err != nil {
		return err
	}
	printSummary(res)
	if res.Err != nil {
		return cli.Exit("", 1)
	}
	return nil
}

func printSummary(res *runner.Result) {
	s := res.Summary
	fmt.Println()
	fmt.Printf("  %s as %s\n\n", s.BaseURL, s.Email)
	for _, o := range s.Outcomes {
		mark := "✓"
		switch o.Status {
		case scenario.StatusFailed:
			mark = "✗"
		case scenario.StatusSkipped:
			mark = "-"
		}
		fmt.Printf("  %s %-28s %8v\n", mark, o.Name, o.Duration.Round(time.Millisecond))
		if o.Error != "" {
			fmt.Printf("      %s\n", o.Error)
		}
		if o.Report != "" {
			fmt.Printf("      report: %s\n", o.Report)
		}
	}
	fmt.Printf("\n  %d passed, %d failed, %d skipped\n", s.Passed, s.Failed, s.Skipped)
	if res.SummaryPath != "" {
		fmt.Printf("  summary: %s\n", res.SummaryPath)
	}
}

var fixtureCommand = &cli.Command{
	Name:  "fixture",
	Usage: "Serve the fixture application",
	Description: `Serves a small stand-in for RoomCraft with accounts, a design dashboard
and an editor with a drag-and-drop canvas.

Set ROOMCRAFT_MASTER_KEY to encrypt the data directory.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Usage: "The TCP address to listen to",
			Value: ":5173",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory for users and designs",
			Value: "data",
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "Serve HTTPS with a generated self-signed certificate",
		},
		&cli.StringSliceFlag{
			Name:  "host",
			Usage: "Extra DNS names for the generated certificate",
		},
		&cli.StringFlag{
			Name:  "cookie-name",
			Usage: "Name of the session cookie",
			Value: fixture.DefaultCookieName,
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug mode",
		},
	},
	Action: serveFixture,
}

func openStorage(dataDir string) (*storage.Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	keyFile := filepath.Join(dataDir, "master.key")
	passphrase := os.Getenv("ROOMCRAFT_MASTER_KEY")
	if passphrase == "" {
		if _, err := os.Stat(keyFile); err == nil {
			return nil, fmt.Errorf("%s exists but ROOMCRAFT_MASTER_KEY is not set", keyFile)
		}
		log.Println("Warning: No ROOMCRAFT_MASTER_KEY provided. Data will be stored UNENCRYPTED.")
		return storage.New(dataDir, nil), nil
	}
	masterKey, err := crypto.ReadMasterKey([]byte(passphrase), keyFile)
	if os.IsNotExist(err) {
		log.Println("Initializing new master encryption key...")
		if masterKey, err = crypto.CreateMasterKey(); err != nil {
			return nil, fmt.Errorf("failed to create master key: %w", err)
		}
		if err := masterKey.Save([]byte(passphrase), keyFile); err != nil {
			return nil, fmt.Errorf("failed to save master key: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read master key: %w", err)
	}
	s := storage.New(dataDir, masterKey)
	s.EnableCompression(true)
	return s, nil
}

func serveFixture(c *cli.Context) error {
	dataDir := c.String("data-dir")
	store, err := openStorage(dataDir)
	if err != nil {
		return err
	}
	opts := fixture.Options{
		Addr:       c.String("addr"),
		DataDir:    dataDir,
		Storage:    store,
		CookieName: c.String("cookie-name"),
		Debug:      c.Bool("debug"),
	}
	if c.Bool("tls") {
		var hosts []string
		for _, h := range c.StringSlice("host") {
			if h = strings.TrimSpace(h); h != "" {
				hosts = append(hosts, h)
			}
		}
		if opts.Cert, err = fixture.SelfSignedCert(hosts...); err != nil {
			return fmt.Errorf("failed to generate certificate: %w", err)
		}
	}
	srv, err := fixture.Start(opts)
	if err != nil {
		return fmt.Errorf("failed to start fixture: %w", err)
	}
	log.Printf("Fixture listening at %s", srv.URL())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdown(srv)
	return nil
}

func shutdown(srv *fixture.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	} else {
		log.Println("Gracefully stopped.")
	}
}
