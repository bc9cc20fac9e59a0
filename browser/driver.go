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

// Package browser drives a single remote browser session and simulates
// pointer gestures on it.
package browser

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
)

// MouseAction is one phase of a low-level pointer sequence.
type MouseAction string

const (
	MousePress   MouseAction = "press"
	MouseMove    MouseAction = "move"
	MouseRelease MouseAction = "release"
)

// MouseEvent is a single pointer event in viewport coordinates.
type MouseEvent struct {
	Action MouseAction
	X, Y   float64
}

// Driver is everything the scenario runner needs from a browser. *Session is
// the chromedp implementation; browsertest.Driver is a scripted fake.
//
// Nodes never blocks waiting for matches: an empty slice is a valid answer and
// callers poll for presence themselves.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)

	Nodes(ctx context.Context, xpath string) ([]*cdp.Node, error)
	Text(ctx context.Context, n *cdp.Node) (string, error)
	Visible(ctx context.Context, n *cdp.Node) (bool, error)

	Click(ctx context.Context, n *cdp.Node) error
	// ClickAsync starts a click and returns immediately. The channel receives
	// the click's result once the browser acknowledges it, which for a click
	// that opens a modal dialog is only after the dialog is handled.
	ClickAsync(ctx context.Context, n *cdp.Node) <-chan error
	Type(ctx context.Context, n *cdp.Node, text string) error

	// Center returns the viewport coordinates of the centre of n's content box.
	Center(ctx context.Context, n *cdp.Node) (x, y float64, err error)
	Mouse(ctx context.Context, ev MouseEvent) error
	// CallOn runs fn with this bound to n and stores the result in res.
	CallOn(ctx context.Context, n *cdp.Node, fn string, res any) error
	Evaluate(ctx context.Context, expr string, res any) error

	// Dialog reports the message of the currently open JavaScript dialog.
	Dialog() (message string, open bool)
	AcceptDialog(ctx context.Context) error

	PageText(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	ConsoleErrors() []string
}
