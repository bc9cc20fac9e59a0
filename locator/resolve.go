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

package locator

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"

	"github.com/ttbt-io/roomcraft-e2e/browser"
	"github.com/ttbt-io/roomcraft-e2e/core"
	"github.com/ttbt-io/roomcraft-e2e/poll"
)

// FindAll returns every element matched by l right now, in document order.
// An empty result is not an error.
func FindAll(ctx context.Context, d browser.Driver, l Locator) ([]*cdp.Node, error) {
	nodes, err := d.Nodes(ctx, l.xpath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", l, err)
	}
	return nodes, nil
}

// Find returns the first element matched by l right now.
func Find(ctx context.Context, d browser.Driver, l Locator) (*cdp.Node, error) {
	nodes, err := FindAll(ctx, d, l)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, core.ErrElementNotFound.
			WithMessage("no element matches locator").
			WithDetails(map[string]any{"xpath": l.xpath})
	}
	return nodes[0], nil
}

// Count returns the number of elements matched by l right now.
func Count(ctx context.Context, d browser.Driver, l Locator) (int, error) {
	nodes, err := FindAll(ctx, d, l)
	return len(nodes), err
}

// WaitPresent polls until l matches at least one element and returns the first.
// The Wait functions name what they wait for when c has no Description.
func WaitPresent(ctx context.Context, d browser.Driver, l Locator, c poll.Condition) (*cdp.Node, error) {
	return poll.Until(ctx, described(c, "presence of "+l.xpath), func(ctx context.Context) (*cdp.Node, error) {
		return Find(ctx, d, l)
	})
}

// WaitVisible polls until the first element matched by l is rendered.
func WaitVisible(ctx context.Context, d browser.Driver, l Locator, c poll.Condition) (*cdp.Node, error) {
	return poll.Until(ctx, described(c, "visibility of "+l.xpath), func(ctx context.Context) (*cdp.Node, error) {
		n, err := Find(ctx, d, l)
		if err != nil {
			return nil, err
		}
		ok, err := d.Visible(ctx, n)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s is not visible", l)
		}
		return n, nil
	})
}

// WaitGone polls until l matches nothing.
func WaitGone(ctx context.Context, d browser.Driver, l Locator, c poll.Condition) error {
	return poll.True(ctx, described(c, "absence of "+l.xpath), func(ctx context.Context) (bool, error) {
		n, err := Count(ctx, d, l)
		return n == 0, err
	})
}

// WaitURL polls until the current URL equals want. A trailing slash on either
// side is ignored.
func WaitURL(ctx context.Context, d browser.Driver, want string, c poll.Condition) error {
	var last string
	err := poll.True(ctx, described(c, "URL "+want), func(ctx context.Context) (bool, error) {
		u, err := d.URL(ctx)
		if err != nil {
			return false, err
		}
		last = u
		return sameURL(u, want), nil
	})
	if err != nil {
		return fmt.Errorf("current URL %q: %w", last, err)
	}
	return nil
}

// Click waits for l to be visible and clicks it.
func Click(ctx context.Context, d browser.Driver, l Locator, c poll.Condition) error {
	n, err := WaitVisible(ctx, d, l, c)
	if err != nil {
		return err
	}
	if err := d.Click(ctx, n); err != nil {
		return fmt.Errorf("clicking %s: %w", l, err)
	}
	return nil
}

// Type waits for l to be visible and types text into it.
func Type(ctx context.Context, d browser.Driver, l Locator, text string, c poll.Condition) error {
	n, err := WaitVisible(ctx, d, l, c)
	if err != nil {
		return err
	}
	if err := d.Type(ctx, n, text); err != nil {
		return fmt.Errorf("typing into %s: %w", l, err)
	}
	return nil
}

// TextOf waits for l to be present and returns its rendered text.
func TextOf(ctx context.Context, d browser.Driver, l Locator, c poll.Condition) (string, error) {
	n, err := WaitPresent(ctx, d, l, c)
	if err != nil {
		return "", err
	}
	return d.Text(ctx, n)
}

func described(c poll.Condition, desc string) poll.Condition {
	if c.Description == "" {
		c.Description = desc
	}
	return c
}

func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
