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
	"time"

	"github.com/chromedp/cdproto/cdp"
)

// DragStrategy selects how DragAndDrop produces the gesture.
type DragStrategy string

const (
	// DragPointer dispatches a real press/move/release pointer sequence.
	DragPointer DragStrategy = "pointer"
	// DragHTML5 dispatches synthetic HTML5 drag events from a page script,
	// for apps that only listen to dragstart/drop.
	DragHTML5 DragStrategy = "html5"
)

// ParseDragStrategy validates a strategy name. The empty string selects
// DragPointer.
func ParseDragStrategy(s string) (DragStrategy, error) {
	switch DragStrategy(s) {
	case "", DragPointer:
		return DragPointer, nil
	case DragHTML5:
		return DragHTML5, nil
	}
	return "", fmt.Errorf("unknown drag strategy %q", s)
}

// DragOptions tunes DragAndDrop. Zero values select the defaults.
type DragOptions struct {
	Strategy DragStrategy
	// Steps is the number of intermediate moves between source and target.
	Steps int
	// StepDelay is the pause between moves.
	StepDelay time.Duration
	// HoldDelay is the pause after pressing on the source.
	HoldDelay time.Duration
	Logf      func(format string, args ...any)
}

func (o DragOptions) withDefaults() DragOptions {
	if o.Strategy == "" {
		o.Strategy = DragPointer
	}
	if o.Steps <= 0 {
		o.Steps = 10
	}
	if o.StepDelay <= 0 {
		o.StepDelay = 20 * time.Millisecond
	}
	if o.HoldDelay <= 0 {
		o.HoldDelay = 100 * time.Millisecond
	}
	if o.Logf == nil {
		o.Logf = log.Printf
	}
	return o
}

// DragAndDrop drags source onto target. It returns once the gesture has been
// dispatched; whether the application reacted to it is for the caller to
// check.
func DragAndDrop(ctx context.Context, d Driver, source, target *cdp.Node, opts DragOptions) error {
	opts = opts.withDefaults()
	switch opts.Strategy {
	case DragPointer:
		return pointerDrag(ctx, d, source, target, opts)
	case DragHTML5:
		opts.Logf("drag: dispatching synthetic HTML5 drag events")
		return html5Drag(ctx, d, source, target)
	}
	return fmt.Errorf("unknown drag strategy %q", opts.Strategy)
}

func pointerDrag(ctx context.Context, d Driver, source, target *cdp.Node, opts DragOptions) error {
	sx, sy, err := d.Center(ctx, source)
	if err != nil {
		return fmt.Errorf("drag source geometry: %w", err)
	}
	tx, ty, err := d.Center(ctx, target)
	if err != nil {
		return fmt.Errorf("drag target geometry: %w", err)
	}
	opts.Logf("drag: (%.0f,%.0f) -> (%.0f,%.0f) in %d steps", sx, sy, tx, ty, opts.Steps)

	if err := d.Mouse(ctx, MouseEvent{Action: MousePress, X: sx, Y: sy}); err != nil {
		return fmt.Errorf("drag press: %w", err)
	}
	if err := sleep(ctx, opts.HoldDelay); err != nil {
		return err
	}
	for i := 1; i <= opts.Steps; i++ {
		f := float64(i) / float64(opts.Steps)
		ev := MouseEvent{Action: MouseMove, X: sx + (tx-sx)*f, Y: sy + (ty-sy)*f}
		if err := d.Mouse(ctx, ev); err != nil {
			return fmt.Errorf("drag move %d: %w", i, err)
		}
		if err := sleep(ctx, opts.StepDelay); err != nil {
			return err
		}
	}
	if err := d.Mouse(ctx, MouseEvent{Action: MouseRelease, X: tx, Y: ty}); err != nil {
		return fmt.Errorf("drag release: %w", err)
	}
	return nil
}

const (
	markSourceJS = `function() { this.setAttribute("data-e2e-drag", "source"); return true; }`
	markTargetJS = `function() { this.setAttribute("data-e2e-drag", "target"); return true; }`

	// html5DragJS fires the drag events a browser would, sharing one
	// DataTransfer, and clears the markers.
	html5DragJS = `(() => {
	const src = document.querySelector('[data-e2e-drag="source"]');
	const dst = document.querySelector('[data-e2e-drag="target"]');
	if (src) src.removeAttribute("data-e2e-drag");
	if (dst) dst.removeAttribute("data-e2e-drag");
	if (!src || !dst) return false;
	const dt = new DataTransfer();
	const r = dst.getBoundingClientRect();
	const x = r.left + r.width / 2, y = r.top + r.height / 2;
	const fire = (el, type) => el.dispatchEvent(new DragEvent(type, {
		bubbles: true, cancelable: true, dataTransfer: dt, clientX: x, clientY: y,
	}));
	fire(src, "dragstart");
	fire(dst, "dragenter");
	fire(dst, "dragover");
	fire(dst, "drop");
	fire(src, "dragend");
	return true;
})()`
)

var errDragMarkersLost = errors.New("drag source or target left the document")

func html5Drag(ctx context.Context, d Driver, source, target *cdp.Node) error {
	var ok bool
	if err := d.CallOn(ctx, source, markSourceJS, &ok); err != nil {
		return fmt.Errorf("marking drag source: %w", err)
	}
	if err := d.CallOn(ctx, target, markTargetJS, &ok); err != nil {
		return fmt.Errorf("marking drag target: %w", err)
	}
	ok = false
	if err := d.Evaluate(ctx, html5DragJS, &ok); err != nil {
		return fmt.Errorf("dispatching drag events: %w", err)
	}
	if !ok {
		return errDragMarkersLost
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
