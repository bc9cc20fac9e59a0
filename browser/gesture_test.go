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

package browser_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"

	"github.com/ttbt-io/roomcraft-e2e/browser"
	"github.com/ttbt-io/roomcraft-e2e/browser/browsertest"
)

func fastDrag(s browser.DragStrategy) browser.DragOptions {
	return browser.DragOptions{
		Strategy:  s,
		Steps:     4,
		StepDelay: time.Millisecond,
		HoldDelay: time.Millisecond,
		Logf:      func(string, ...any) {},
	}
}

func dragPage(t *testing.T) (*browsertest.Driver, *cdp.Node, *cdp.Node) {
	t.Helper()
	ctx := context.Background()
	d := browsertest.New()
	d.Set("//div[@draggable='true']", &browsertest.Element{X: 100, Y: 200})
	d.Set("//canvas", &browsertest.Element{X: 500, Y: 400})
	src, err := d.Nodes(ctx, "//div[@draggable='true']")
	if err != nil || len(src) != 1 {
		t.Fatalf("source nodes = %v, %v", src, err)
	}
	dst, err := d.Nodes(ctx, "//canvas")
	if err != nil || len(dst) != 1 {
		t.Fatalf("target nodes = %v, %v", dst, err)
	}
	return d, src[0], dst[0]
}

func TestPointerDragSequence(t *testing.T) {
	d, src, dst := dragPage(t)
	if err := browser.DragAndDrop(context.Background(), d, src, dst, fastDrag(browser.DragPointer)); err != nil {
		t.Fatalf("DragAndDrop: %v", err)
	}
	got := d.MouseEvents()
	want := []browser.MouseEvent{
		{Action: browser.MousePress, X: 100, Y: 200},
		{Action: browser.MouseMove, X: 200, Y: 250},
		{Action: browser.MouseMove, X: 300, Y: 300},
		{Action: browser.MouseMove, X: 400, Y: 350},
		{Action: browser.MouseMove, X: 500, Y: 400},
		{Action: browser.MouseRelease, X: 500, Y: 400},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPointerDragDoesNotVerifyEffect(t *testing.T) {
	// Nothing on the page reacts to the gesture; the simulator still succeeds.
	d, src, dst := dragPage(t)
	if err := browser.DragAndDrop(context.Background(), d, src, dst, fastDrag("")); err != nil {
		t.Fatalf("DragAndDrop: %v", err)
	}
}

func TestPointerDragPropagatesDriverErrors(t *testing.T) {
	d, src, dst := dragPage(t)
	d.Fail("Mouse", browsertest.ErrInjected)
	err := browser.DragAndDrop(context.Background(), d, src, dst, fastDrag(browser.DragPointer))
	if !errors.Is(err, browsertest.ErrInjected) {
		t.Fatalf("err = %v, want injected failure", err)
	}
}

func TestHTML5Drag(t *testing.T) {
	d, src, dst := dragPage(t)
	var scripts []string
	d.OnScript = func(_ *browsertest.Driver, _ *cdp.Node, script string, res any) error {
		scripts = append(scripts, script)
		if p, ok := res.(*bool); ok {
			*p = true
		}
		return nil
	}
	if err := browser.DragAndDrop(context.Background(), d, src, dst, fastDrag(browser.DragHTML5)); err != nil {
		t.Fatalf("DragAndDrop: %v", err)
	}
	if len(d.MouseEvents()) != 0 {
		t.Errorf("html5 strategy dispatched pointer events")
	}
	if len(scripts) != 3 {
		t.Fatalf("ran %d scripts, want 3", len(scripts))
	}
	for _, ev := range []string{"dragstart", "dragover", "drop", "dragend"} {
		if !strings.Contains(scripts[2], ev) {
			t.Errorf("drag script does not fire %s", ev)
		}
	}
}

func TestHTML5DragLostMarkers(t *testing.T) {
	d, src, dst := dragPage(t)
	d.OnScript = func(_ *browsertest.Driver, n *cdp.Node, _ string, res any) error {
		if p, ok := res.(*bool); ok {
			*p = n != nil
		}
		return nil
	}
	if err := browser.DragAndDrop(context.Background(), d, src, dst, fastDrag(browser.DragHTML5)); err == nil {
		t.Fatalf("expected an error when the page script reports failure")
	}
}

func TestParseDragStrategy(t *testing.T) {
	for in, want := range map[string]browser.DragStrategy{"": browser.DragPointer, "pointer": browser.DragPointer, "html5": browser.DragHTML5} {
		got, err := browser.ParseDragStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseDragStrategy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := browser.ParseDragStrategy("touch"); err == nil {
		t.Errorf("ParseDragStrategy(touch) succeeded")
	}
}
