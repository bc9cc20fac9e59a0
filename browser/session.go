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

package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/ttbt-io/roomcraft-e2e/core"
)

// Config controls how the browser is launched or attached.
type Config struct {
	// RemoteURL is the devtools websocket URL of an already running browser.
	// When empty, a local Chrome is started.
	RemoteURL string

	Headless         bool
	NoSandbox        bool
	DisableDevShm    bool
	IgnoreCertErrors bool
	WindowWidth      int
	WindowHeight     int

	// Debug enables chromedp protocol logging.
	Debug bool
	// Logf receives chromedp and console messages. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// flags returns the Chrome command line flags for a local launch. Flags set
// to false are omitted by the allocator.
func (c Config) flags() map[string]any {
	f := map[string]any{
		"headless":                  c.Headless,
		"no-sandbox":                c.NoSandbox,
		"disable-dev-shm-usage":     c.DisableDevShm,
		"ignore-certificate-errors": c.IgnoreCertErrors,
		"disable-gpu":               c.Headless,
	}
	if c.WindowWidth > 0 && c.WindowHeight > 0 {
		f["window-size"] = fmt.Sprintf("%d,%d", c.WindowWidth, c.WindowHeight)
	}
	return f
}

func (c Config) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range c.flags() {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

func (c Config) logf() func(string, ...any) {
	if c.Logf != nil {
		return c.Logf
	}
	return log.Printf
}

// Session is a live browser tab. It is created by Start and must be released
// with Stop, which is safe to call more than once.
type Session struct {
	cfg  Config
	ctx  context.Context
	logf func(string, ...any)

	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	stopOnce      sync.Once
	stopErr       error

	mu            sync.Mutex
	dialogOpen    bool
	dialogMessage string
	console       []string

	// gestureMu serializes pointer events. It is never held by onEvent.
	gestureMu sync.Mutex
	pressed   bool
}

var _ Driver = (*Session)(nil)

// Start launches (or attaches to) a browser and opens one tab. The session
// lives until Stop is called or ctx is done.
func Start(ctx context.Context, cfg Config) (*Session, error) {
	logf := cfg.logf()

	var actx context.Context
	var cancelAlloc context.CancelFunc
	if cfg.RemoteURL != "" {
		actx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		actx, cancelAlloc = chromedp.NewExecAllocator(ctx, cfg.allocatorOptions()...)
	}

	opts := []chromedp.ContextOption{
		chromedp.WithErrorf(logf),
		chromedp.WithLogf(logf),
	}
	if cfg.Debug {
		opts = append(opts, chromedp.WithDebugf(logf))
	}
	bctx, cancelBrowser := chromedp.NewContext(actx, opts...)

	s := &Session{
		cfg:           cfg,
		ctx:           bctx,
		logf:          logf,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}
	chromedp.ListenTarget(bctx, s.onEvent)

	// An empty Run allocates the browser and the tab.
	if err := chromedp.Run(bctx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, core.ErrSessionLifecycle.WithMessage("starting browser").WithCause(err)
	}
	logf("browser: session started (remote=%v headless=%v)", cfg.RemoteURL != "", cfg.Headless)
	return s, nil
}

// Stop closes the tab and releases the allocator. Only the first call does
// any work; later calls return the same result.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.stopErr = core.ErrSessionLifecycle.WithMessage("stopping browser").WithCause(err)
		}
		s.cancelBrowser()
		s.cancelAlloc()
		s.logf("browser: session stopped")
	})
	return s.stopErr
}

func (s *Session) onEvent(ev any) {
	switch ev := ev.(type) {
	case *page.EventJavascriptDialogOpening:
		s.mu.Lock()
		s.dialogOpen = true
		s.dialogMessage = ev.Message
		s.mu.Unlock()
		s.logf("browser: %s dialog opened: %q", ev.Type, ev.Message)
	case *page.EventJavascriptDialogClosed:
		s.mu.Lock()
		s.dialogOpen = false
		s.mu.Unlock()
	case *runtime.EventConsoleAPICalled:
		if ev.Type != runtime.APITypeError {
			return
		}
		args := make([]string, len(ev.Args))
		for i, arg := range ev.Args {
			args[i] = string(arg.Value)
		}
		s.recordConsole("console error: " + strings.Join(args, " "))
	case *runtime.EventExceptionThrown:
		s.recordConsole("exception: " + ev.ExceptionDetails.Text)
	}
}

func (s *Session) recordConsole(msg string) {
	s.logf("browser: JS %s", msg)
	s.mu.Lock()
	s.console = append(s.console, msg)
	s.mu.Unlock()
}

// run executes actions on the tab, bounded by both the session and ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(rctx, actions...)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *Session) URL(ctx context.Context) (string, error) {
	var u string
	err := s.run(ctx, chromedp.Location(&u))
	return u, err
}

func (s *Session) Nodes(ctx context.Context, xpath string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(xpath, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	return nodes, nil
}

const (
	textJS = `function() {
	const t = this.innerText !== undefined ? this.innerText : this.textContent;
	return t || "";
}`
	visibleJS = `function() {
	const el = this.nodeType === Node.ELEMENT_NODE ? this : this.parentElement;
	if (!el || !el.isConnected) return false;
	const s = window.getComputedStyle(el);
	if (s.display === "none" || s.visibility === "hidden") return false;
	return el.getClientRects().length > 0;
}`
)

func (s *Session) Text(ctx context.Context, n *cdp.Node) (string, error) {
	var t string
	if err := s.CallOn(ctx, n, textJS, &t); err != nil {
		return "", err
	}
	return strings.TrimSpace(t), nil
}

func (s *Session) Visible(ctx context.Context, n *cdp.Node) (bool, error) {
	var v bool
	err := s.CallOn(ctx, n, visibleJS, &v)
	return v, err
}

func (s *Session) Click(ctx context.Context, n *cdp.Node) error {
	return s.run(ctx, chromedp.MouseClickNode(n))
}

func (s *Session) ClickAsync(ctx context.Context, n *cdp.Node) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- s.Click(ctx, n)
	}()
	return ch
}

func (s *Session) Type(ctx context.Context, n *cdp.Node, text string) error {
	return s.run(ctx, chromedp.KeyEventNode(n, text))
}

func (s *Session) Center(ctx context.Context, n *cdp.Node) (x, y float64, err error) {
	err = s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(n.NodeID).Do(ctx); err != nil {
			return err
		}
		box, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		q := box.Content
		if len(q) != 8 {
			return fmt.Errorf("unexpected content quad %v", q)
		}
		x = (q[0] + q[2] + q[4] + q[6]) / 4
		y = (q[1] + q[3] + q[5] + q[7]) / 4
		return nil
	}))
	return x, y, err
}

func (s *Session) Mouse(ctx context.Context, ev MouseEvent) error {
	s.gestureMu.Lock()
	defer s.gestureMu.Unlock()
	var p *input.DispatchMouseEventParams
	switch ev.Action {
	case MousePress:
		p = input.DispatchMouseEvent(input.MousePressed, ev.X, ev.Y).
			WithButton(input.Left).WithButtons(1).WithClickCount(1)
	case MouseMove:
		p = input.DispatchMouseEvent(input.MouseMoved, ev.X, ev.Y)
		if s.pressed {
			p = p.WithButton(input.Left).WithButtons(1)
		}
	case MouseRelease:
		p = input.DispatchMouseEvent(input.MouseReleased, ev.X, ev.Y).
			WithButton(input.Left).WithButtons(0).WithClickCount(1)
	default:
		return fmt.Errorf("unknown mouse action %q", ev.Action)
	}
	if err := s.run(ctx, p); err != nil {
		return err
	}
	switch ev.Action {
	case MousePress:
		s.pressed = true
	case MouseRelease:
		s.pressed = false
	}
	return nil
}

func (s *Session) CallOn(ctx context.Context, n *cdp.Node, fn string, res any) error {
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.CallFunctionOnNode(ctx, n, fn, res)
	}))
}

func (s *Session) Evaluate(ctx context.Context, expr string, res any) error {
	return s.run(ctx, chromedp.Evaluate(expr, res))
}

func (s *Session) Dialog() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogMessage, s.dialogOpen
}

func (s *Session) AcceptDialog(ctx context.Context) error {
	if err := s.run(ctx, page.HandleJavaScriptDialog(true)); err != nil {
		return fmt.Errorf("accepting dialog: %w", err)
	}
	s.mu.Lock()
	s.dialogOpen = false
	s.mu.Unlock()
	return nil
}

func (s *Session) PageText(ctx context.Context) (string, error) {
	var t string
	err := s.Evaluate(ctx, `document.body ? document.body.innerText : ""`, &t)
	return t, err
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var h string
	err := s.run(ctx, chromedp.OuterHTML("html", &h, chromedp.ByQuery))
	return h, err
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

func (s *Session) ConsoleErrors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.console...)
}

// ClearCookies drops every cookie in the browser, logging the session out.
func (s *Session) ClearCookies(ctx context.Context) error {
	s.logf("browser: clearing cookies")
	return s.run(ctx, network.ClearBrowserCookies())
}
