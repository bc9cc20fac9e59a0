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

// Package journey is the RoomCraft user journey: registration, logout,
// login, a design round trip, the dashboard empty state and dragging
// furniture onto the editor canvas. Scenarios must run in the order Scenarios
// returns them; each one starts where the previous one left the browser.
package journey

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ttbt-io/roomcraft-e2e/browser"
	"github.com/ttbt-io/roomcraft-e2e/core"
	"github.com/ttbt-io/roomcraft-e2e/locator"
	"github.com/ttbt-io/roomcraft-e2e/poll"
	"github.com/ttbt-io/roomcraft-e2e/scenario"
)

// Context keys written by the scenarios.
const (
	KeyDesign          = "design"
	KeyFurnitureDesign = "furnitureDesign"
)

// CatalogSofa is the library item dragged onto the canvas.
const CatalogSofa = "Lounge Sofa"

// Options tunes the journey.
type Options struct {
	// Short bounds waits for elements that should already be on the page.
	Short time.Duration
	// Long bounds waits that span a navigation or a server round trip.
	Long time.Duration
	// Interval is how often waits re-check the page.
	Interval time.Duration
	// Settle is the pause before counting dashboard projects.
	Settle time.Duration
	Drag   browser.DragOptions
	// StrictEmptyState deletes every listed design before checking the
	// empty state, instead of accepting a non-empty dashboard.
	StrictEmptyState bool
	// Now stamps generated design names. Defaults to time.Now.
	Now  func() time.Time
	Logf func(format string, args ...any)
}

// DefaultOptions returns the timeouts RoomCraft needs on a developer machine.
func DefaultOptions() Options {
	return Options{
		Short:    5 * time.Second,
		Long:     10 * time.Second,
		Interval: poll.DefaultInterval,
		Settle:   time.Second,
	}
}

type journey struct {
	Options
}

func (j *journey) within(timeout time.Duration, description string) poll.Condition {
	return poll.Condition{Description: description, Timeout: timeout, Interval: j.Interval}
}

func (j *journey) short() poll.Condition { return j.within(j.Short, "") }

func (j *journey) long() poll.Condition { return j.within(j.Long, "") }

// Scenarios returns the journey in execution order.
func Scenarios(o Options) []scenario.Scenario {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logf == nil {
		o.Logf = log.Printf
	}
	if o.Drag.Logf == nil {
		o.Drag.Logf = o.Logf
	}
	j := &journey{Options: o}
	return []scenario.Scenario{
		j.navigateToRegister(),
		j.register(),
		j.logout(),
		j.login(),
		j.designRoundTrip(),
		j.emptyState(),
		j.dragFurniture(),
	}
}

func (j *journey) navigateToRegister() scenario.Scenario {
	return scenario.Scenario{
		Name: "Navigate To Register",
		Setup: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			return d.Navigate(ctx, tc.URL("/login"))
		},
		Act: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			return locator.Click(ctx, d, CreateAccountLink, j.short())
		},
		Wait: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			if err := locator.WaitURL(ctx, d, tc.URL("/register"), j.short()); err != nil {
				return err
			}
			_, err := locator.WaitPresent(ctx, d, CreateAccountHeader, j.short())
			return err
		},
		Assert: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			txt, err := locator.TextOf(ctx, d, CreateAccountHeader, j.short())
			if err != nil {
				return err
			}
			return scenario.Equal("register header", "Create Account", txt)
		},
	}
}

func (j *journey) register() scenario.Scenario {
	return scenario.Scenario{
		Name: "Register New User",
		Setup: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			return d.Navigate(ctx, tc.URL("/register"))
		},
		Act: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			id := tc.Identity
			for _, f := range []struct {
				l    locator.Locator
				text string
			}{
				{NameInput, id.Name},
				{EmailInput, id.Email},
				{PasswordInput, id.Password},
			} {
				if err := locator.Type(ctx, d, f.l, f.text, j.short()); err != nil {
					return err
				}
			}
			return locator.Click(ctx, d, GetStarted, j.short())
		},
		Wait: j.waitDashboard,
		Assert: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			return j.assertWelcome(ctx, tc, d)
		},
	}
}

func (j *journey) logout() scenario.Scenario {
	return scenario.Scenario{
		Name: "Logout",
		Act: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			if err := locator.Click(ctx, d, UserMenu(tc.Identity.Name), j.short()); err != nil {
				return err
			}
			return locator.Click(ctx, d, SignOut, j.short())
		},
		Wait: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			return locator.WaitURL(ctx, d, tc.URL("/login"), j.long())
		},
	}
}

func (j *journey) login() scenario.Scenario {
	return scenario.Scenario{
		Name: "Login Existing User",
		Setup: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			return j.ensureAt(ctx, tc, d, "/login")
		},
		Act: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			if _, err := locator.WaitPresent(ctx, d, EmailInput, j.long()); err != nil {
				return err
			}
			if err := locator.Type(ctx, d, EmailInput, tc.Identity.Email, j.short()); err != nil {
				return err
			}
			if err := locator.Type(ctx, d, PasswordInput, tc.Identity.Password, j.short()); err != nil {
				return err
			}
			return locator.Click(ctx, d, SignIn, j.short())
		},
		Wait: j.waitDashboard,
		Assert: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			return j.assertWelcome(ctx, tc, d)
		},
	}
}

func (j *journey) designRoundTrip() scenario.Scenario {
	return scenario.Scenario{
		Name: "Create Save Delete Design",
		Setup: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			return j.ensureAt(ctx, tc, d, "/")
		},
		Act: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			name := fmt.Sprintf("Selenium Room %d", j.Now().UnixMilli())
			if err := tc.Set(KeyDesign, name); err != nil {
				return err
			}
			if err := j.createDesign(ctx, d, name); err != nil {
				return err
			}
			if err := locator.Click(ctx, d, SaveDesign, j.short()); err != nil {
				return err
			}
			if err := locator.WaitURL(ctx, d, tc.URL("/"), j.long()); err != nil {
				return err
			}
			if _, err := locator.WaitVisible(ctx, d, ProjectTitle(name), j.long()); err != nil {
				return fmt.Errorf("design %q not listed: %w", name, err)
			}
			return j.deleteWithConfirm(ctx, d, DeleteButton(name))
		},
		Wait: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			name, err := tc.String(KeyDesign)
			if err != nil {
				return err
			}
			if err := locator.WaitGone(ctx, d, ProjectTitle(name), j.long()); err != nil {
				return fmt.Errorf("design %q was not removed from dashboard: %w", name, err)
			}
			return nil
		},
	}
}

func (j *journey) emptyState() scenario.Scenario {
	return scenario.Scenario{
		Name: "Empty State",
		Setup: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			if err := d.Navigate(ctx, tc.URL("/")); err != nil {
				return err
			}
			_, err := locator.WaitPresent(ctx, d, Brand, j.long())
			return err
		},
		Act: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			if !j.StrictEmptyState {
				return nil
			}
			return j.deleteAll(ctx, d)
		},
		Wait: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			return sleep(ctx, j.Settle)
		},
		Assert: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			n, err := locator.Count(ctx, d, ProjectTitles)
			if err != nil {
				return err
			}
			if n == 0 {
				_, err = locator.WaitVisible(ctx, d, EmptyState, j.short())
				return err
			}
			if j.StrictEmptyState {
				return core.ErrAssertionFailed.
					WithMessage("dashboard not empty after deleting every design").
					WithDetails(map[string]any{"projects": n})
			}
			_, err = locator.WaitVisible(ctx, d, RecentProjects, j.short())
			return err
		},
	}
}

func (j *journey) dragFurniture() scenario.Scenario {
	return scenario.Scenario{
		Name: "Drag Furniture Onto Canvas",
		Setup: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			return j.ensureAt(ctx, tc, d, "/")
		},
		Act: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			name := fmt.Sprintf("Furniture Test %d", j.Now().UnixMilli())
			if err := tc.Set(KeyFurnitureDesign, name); err != nil {
				return err
			}
			if err := j.createDesign(ctx, d, name); err != nil {
				return err
			}
			sofa, err := locator.WaitVisible(ctx, d, CatalogItem(CatalogSofa), j.short())
			if err != nil {
				return err
			}
			canvas, err := locator.WaitVisible(ctx, d, Canvas, j.short())
			if err != nil {
				return err
			}
			if err := browser.DragAndDrop(ctx, d, sofa, canvas, j.Drag); err != nil {
				return err
			}
			return locator.Click(ctx, d, SaveDesign, j.short())
		},
		Wait: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			name, err := tc.String(KeyFurnitureDesign)
			if err != nil {
				return err
			}
			if _, err := locator.WaitPresent(ctx, d, Saved, j.short()); err != nil {
				return err
			}
			if err := d.Navigate(ctx, tc.URL("/")); err != nil {
				return err
			}
			_, err = locator.WaitPresent(ctx, d, ProjectTitle(name), j.long())
			return err
		},
		Assert: func(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
			name, err := tc.String(KeyFurnitureDesign)
			if err != nil {
				return err
			}
			txt, err := locator.TextOf(ctx, d, ItemCount(name), j.short())
			if err != nil {
				return err
			}
			if err := scenario.Equal("item count", "1 Items", txt); err != nil {
				return core.ErrGestureNotConfirmed.
					WithMessage("furniture item was not added by drag and drop").
					WithDetails(map[string]any{"strategy": string(j.Drag.Strategy)}).
					WithCause(err)
			}
			return nil
		},
	}
}

// waitDashboard waits for the authenticated home view.
func (j *journey) waitDashboard(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
	if err := locator.WaitURL(ctx, d, tc.URL("/"), j.long()); err != nil {
		return err
	}
	_, err := locator.WaitVisible(ctx, d, Welcome(tc.Identity.Name), j.long())
	return err
}

func (j *journey) assertWelcome(ctx context.Context, tc *scenario.Context, d browser.Driver) error {
	txt, err := locator.TextOf(ctx, d, Welcome(tc.Identity.Name), j.short())
	if err != nil {
		return err
	}
	want := "Welcome, " + tc.Identity.Name
	if !strings.Contains(txt, want) {
		return core.ErrAssertionFailed.
			WithMessage("unexpected welcome header").
			WithDetails(map[string]any{"want": want, "got": txt})
	}
	return nil
}

// ensureAt navigates to path unless the browser is already there.
func (j *journey) ensureAt(ctx context.Context, tc *scenario.Context, d browser.Driver, path string) error {
	u, err := d.URL(ctx)
	if err != nil {
		return err
	}
	want := tc.URL(path)
	if strings.TrimSuffix(u, "/") == strings.TrimSuffix(want, "/") {
		return nil
	}
	return d.Navigate(ctx, want)
}

// createDesign goes from the dashboard to an open editor for a new design.
func (j *journey) createDesign(ctx context.Context, d browser.Driver, name string) error {
	if err := locator.Click(ctx, d, StartNewProject, j.short()); err != nil {
		return err
	}
	if err := locator.Type(ctx, d, ProjectNameInput, name, j.short()); err != nil {
		return err
	}
	if err := locator.Click(ctx, d, CreateWorkspace, j.short()); err != nil {
		return err
	}
	_, err := locator.WaitVisible(ctx, d, SaveDesign, j.long())
	return err
}

// deleteWithConfirm clicks a delete control and accepts the confirmation
// dialog it opens.
func (j *journey) deleteWithConfirm(ctx context.Context, d browser.Driver, button locator.Locator) error {
	n, err := locator.WaitVisible(ctx, d, button, j.short())
	if err != nil {
		return err
	}
	clicked := d.ClickAsync(ctx, n)
	err = poll.True(ctx, j.within(j.Short, "confirmation dialog"), func(context.Context) (bool, error) {
		select {
		case err := <-clicked:
			// The click finished without a dialog being shown.
			if err == nil {
				err = fmt.Errorf("no confirmation dialog after clicking %s", button)
			}
			return false, poll.Stop(err)
		default:
		}
		_, open := d.Dialog()
		return open, nil
	})
	if err != nil {
		return err
	}
	msg, _ := d.Dialog()
	j.Logf("journey: accepting dialog %q", msg)
	if err := d.AcceptDialog(ctx); err != nil {
		return err
	}
	select {
	case err := <-clicked:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deleteAll removes every design listed on the dashboard.
func (j *journey) deleteAll(ctx context.Context, d browser.Driver) error {
	for {
		n, err := locator.Count(ctx, d, ProjectTitles)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		j.Logf("journey: %d designs left to delete", n)
		if err := j.deleteWithConfirm(ctx, d, FirstDeleteButton()); err != nil {
			return err
		}
		err = poll.True(ctx, j.within(j.Long, "design removal"), func(ctx context.Context) (bool, error) {
			m, err := locator.Count(ctx, d, ProjectTitles)
			return m < n, err
		})
		if err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
