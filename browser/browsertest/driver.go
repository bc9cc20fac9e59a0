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

// Package browsertest provides a scripted in-memory browser.Driver.
//
// Pages are described as a set of XPath expressions and the elements each one
// matches. Tests register elements with Set, attach behaviour with the On*
// hooks, and inspect what happened with Calls and MouseEvents.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"

	"github.com/ttbt-io/roomcraft-e2e/browser"
)

// ErrInjected is returned by methods configured to fail with Fail.
var ErrInjected = errors.New("browsertest: injected failure")

// Element is a fake DOM element.
type Element struct {
	Text   string
	Hidden bool
	// X and Y are the viewport coordinates of the element's centre.
	X, Y float64
	// Value receives text typed into the element.
	Value string
	// OnClick runs after the element is clicked.
	OnClick func(d *Driver)
}

type entry struct {
	xpath string
	elem  *Element
}

// Driver is a browser.Driver backed by an in-memory page model.
type Driver struct {
	// OnNavigate runs after every Navigate.
	OnNavigate func(d *Driver, url string)
	// OnMouse runs after every pointer event.
	OnMouse func(d *Driver, ev browser.MouseEvent)
	// OnScript runs for CallOn and Evaluate; its error is returned to the caller.
	OnScript func(d *Driver, n *cdp.Node, script string, res any) error
	// OnAccept runs after a dialog is accepted, once pending clicks resolved.
	OnAccept func(d *Driver, msg string)

	mu         sync.Mutex
	url        string
	matches    map[string][]*cdp.Node
	nodes      map[cdp.NodeID]entry
	nextID     cdp.NodeID
	calls      []string
	mouse      []browser.MouseEvent
	dialog     string
	dialogOpen bool
	pending    []chan error
	console    []string
	pageText   string
	html       string
	screenshot []byte
	failures   map[string]error
}

var _ browser.Driver = (*Driver)(nil)

// New returns an empty page at about:blank.
func New() *Driver {
	return &Driver{
		url:      "about:blank",
		matches:  make(map[string][]*cdp.Node),
		nodes:    make(map[cdp.NodeID]entry),
		failures: make(map[string]error),
	}
}

// Set replaces the elements matched by xpath. Passing no elements makes the
// expression match nothing.
func (d *Driver) Set(xpath string, elems ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.matches[xpath] {
		delete(d.nodes, n.NodeID)
	}
	if len(elems) == 0 {
		delete(d.matches, xpath)
		return
	}
	nodes := make([]*cdp.Node, len(elems))
	for i, e := range elems {
		d.nextID++
		nodes[i] = &cdp.Node{NodeID: d.nextID, NodeType: cdp.NodeTypeElement}
		d.nodes[d.nextID] = entry{xpath: xpath, elem: e}
	}
	d.matches[xpath] = nodes
}

// Element returns the i-th element currently matched by xpath.
func (d *Driver) Element(xpath string, i int) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	nodes := d.matches[xpath]
	if i >= len(nodes) {
		return nil
	}
	return d.nodes[nodes[i].NodeID].elem
}

// SetURL changes the current location without recording a navigation.
func (d *Driver) SetURL(u string) {
	d.mu.Lock()
	d.url = u
	d.mu.Unlock()
}

// OpenDialog simulates window.confirm being shown. Clicks started with
// ClickAsync stay pending until the dialog is accepted.
func (d *Driver) OpenDialog(msg string) {
	d.mu.Lock()
	d.dialog = msg
	d.dialogOpen = true
	d.mu.Unlock()
}

// SetPage sets what PageText and HTML return.
func (d *Driver) SetPage(text, html string) {
	d.mu.Lock()
	d.pageText, d.html = text, html
	d.mu.Unlock()
}

// SetScreenshot sets the bytes returned by Screenshot.
func (d *Driver) SetScreenshot(b []byte) {
	d.mu.Lock()
	d.screenshot = b
	d.mu.Unlock()
}

// AddConsoleError records a browser console error.
func (d *Driver) AddConsoleError(msg string) {
	d.mu.Lock()
	d.console = append(d.console, msg)
	d.mu.Unlock()
}

// Fail makes the named Driver method return err. A nil err clears it.
func (d *Driver) Fail(method string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, method)
		return
	}
	d.failures[method] = err
}

// Calls returns the recorded interactions, e.g. "click //button".
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// MouseEvents returns every pointer event dispatched so far.
func (d *Driver) MouseEvents() []browser.MouseEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]browser.MouseEvent(nil), d.mouse...)
}

func (d *Driver) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

// begin locks d and returns the injected failure for method, if any.
func (d *Driver) begin(ctx context.Context, method string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	if err := d.failures[method]; err != nil {
		d.mu.Unlock()
		return err
	}
	return nil
}

func (d *Driver) lookup(n *cdp.Node) (entry, error) {
	if n == nil {
		return entry{}, errors.New("browsertest: nil node")
	}
	e, ok := d.nodes[n.NodeID]
	if !ok {
		return entry{}, fmt.Errorf("browsertest: node %d is detached", n.NodeID)
	}
	return e, nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.begin(ctx, "Navigate"); err != nil {
		return err
	}
	d.url = url
	d.record("navigate %s", url)
	hook := d.OnNavigate
	d.mu.Unlock()
	if hook != nil {
		hook(d, url)
	}
	return nil
}

func (d *Driver) URL(ctx context.Context) (string, error) {
	if err := d.begin(ctx, "URL"); err != nil {
		return "", err
	}
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *Driver) Nodes(ctx context.Context, xpath string) ([]*cdp.Node, error) {
	if err := d.begin(ctx, "Nodes"); err != nil {
		return nil, err
	}
	defer d.mu.Unlock()
	return append([]*cdp.Node(nil), d.matches[xpath]...), nil
}

func (d *Driver) Text(ctx context.Context, n *cdp.Node) (string, error) {
	if err := d.begin(ctx, "Text"); err != nil {
		return "", err
	}
	defer d.mu.Unlock()
	e, err := d.lookup(n)
	if err != nil {
		return "", err
	}
	return e.elem.Text, nil
}

func (d *Driver) Visible(ctx context.Context, n *cdp.Node) (bool, error) {
	if err := d.begin(ctx, "Visible"); err != nil {
		return false, err
	}
	defer d.mu.Unlock()
	e, err := d.lookup(n)
	if err != nil {
		return false, err
	}
	return !e.elem.Hidden, nil
}

func (d *Driver) Click(ctx context.Context, n *cdp.Node) error {
	if err := d.begin(ctx, "Click"); err != nil {
		return err
	}
	e, err := d.lookup(n)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.record("click %s", e.xpath)
	d.mu.Unlock()
	if e.elem.OnClick != nil {
		e.elem.OnClick(d)
	}
	return nil
}

func (d *Driver) ClickAsync(ctx context.Context, n *cdp.Node) <-chan error {
	ch := make(chan error, 1)
	if err := d.Click(ctx, n); err != nil {
		ch <- err
		return ch
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialogOpen {
		d.pending = append(d.pending, ch)
		return ch
	}
	ch <- nil
	return ch
}

func (d *Driver) Type(ctx context.Context, n *cdp.Node, text string) error {
	if err := d.begin(ctx, "Type"); err != nil {
		return err
	}
	defer d.mu.Unlock()
	e, err := d.lookup(n)
	if err != nil {
		return err
	}
	e.elem.Value += text
	d.record("type %s %q", e.xpath, text)
	return nil
}

func (d *Driver) Center(ctx context.Context, n *cdp.Node) (float64, float64, error) {
	if err := d.begin(ctx, "Center"); err != nil {
		return 0, 0, err
	}
	defer d.mu.Unlock()
	e, err := d.lookup(n)
	if err != nil {
		return 0, 0, err
	}
	return e.elem.X, e.elem.Y, nil
}

func (d *Driver) Mouse(ctx context.Context, ev browser.MouseEvent) error {
	if err := d.begin(ctx, "Mouse"); err != nil {
		return err
	}
	d.mouse = append(d.mouse, ev)
	hook := d.OnMouse
	d.mu.Unlock()
	if hook != nil {
		hook(d, ev)
	}
	return nil
}

func (d *Driver) CallOn(ctx context.Context, n *cdp.Node, fn string, res any) error {
	if err := d.begin(ctx, "CallOn"); err != nil {
		return err
	}
	e, err := d.lookup(n)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.record("call %s", e.xpath)
	hook := d.OnScript
	d.mu.Unlock()
	if hook != nil {
		return hook(d, n, fn, res)
	}
	return nil
}

func (d *Driver) Evaluate(ctx context.Context, expr string, res any) error {
	if err := d.begin(ctx, "Evaluate"); err != nil {
		return err
	}
	d.record("evaluate")
	hook := d.OnScript
	d.mu.Unlock()
	if hook != nil {
		return hook(d, nil, expr, res)
	}
	return nil
}

func (d *Driver) Dialog() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialog, d.dialogOpen
}

func (d *Driver) AcceptDialog(ctx context.Context) error {
	if err := d.begin(ctx, "AcceptDialog"); err != nil {
		return err
	}
	if !d.dialogOpen {
		d.mu.Unlock()
		return errors.New("browsertest: no dialog is open")
	}
	d.dialogOpen = false
	msg := d.dialog
	d.record("accept dialog %q", msg)
	for _, ch := range d.pending {
		ch <- nil
	}
	d.pending = nil
	hook := d.OnAccept
	d.mu.Unlock()
	if hook != nil {
		hook(d, msg)
	}
	return nil
}

func (d *Driver) PageText(ctx context.Context) (string, error) {
	if err := d.begin(ctx, "PageText"); err != nil {
		return "", err
	}
	defer d.mu.Unlock()
	return d.pageText, nil
}

func (d *Driver) HTML(ctx context.Context) (string, error) {
	if err := d.begin(ctx, "HTML"); err != nil {
		return "", err
	}
	defer d.mu.Unlock()
	return d.html, nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := d.begin(ctx, "Screenshot"); err != nil {
		return nil, err
	}
	defer d.mu.Unlock()
	return append([]byte(nil), d.screenshot...), nil
}

func (d *Driver) ConsoleErrors() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.console...)
}
