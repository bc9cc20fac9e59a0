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

package journey

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"

	"github.com/ttbt-io/roomcraft-e2e/browser"
	"github.com/ttbt-io/roomcraft-e2e/browser/browsertest"
	"github.com/ttbt-io/roomcraft-e2e/locator"
)

// Editor geometry, in viewport coordinates.
const (
	sofaX, sofaY     = 60.0, 200.0
	canvasX, canvasY = 500.0, 300.0
	canvasW, canvasH = 800.0, 500.0
)

// saveRedirect is how long the editor shows "Saved!" before returning to the
// dashboard.
const saveRedirect = 20 * time.Millisecond

type fakeUser struct {
	name, email, password string
}

type fakeDesign struct {
	id    int
	name  string
	items []string
}

// fakeApp is an in-memory RoomCraft behind a browsertest.Driver. Each route
// renders the elements the journey locates, and the app reacts to clicks,
// typing, pointer gestures, HTML5 drop scripts and confirmation dialogs.
type fakeApp struct {
	d *browsertest.Driver

	// keepDeleted makes accepted deletions a no-op, like a server that
	// ignores the request.
	keepDeleted bool

	mu       sync.Mutex
	user     *fakeUser
	loggedIn bool
	designs  []*fakeDesign
	nextID   int
	page     string
	shown    []string
	editing  *fakeDesign
	placed   []string
	pressed  string
	sofa     cdp.NodeID
	canvas   cdp.NodeID
	marked   map[string]cdp.NodeID
	deleting *fakeDesign
	events   []string
}

func newFakeApp() *fakeApp {
	a := &fakeApp{d: browsertest.New(), marked: make(map[string]cdp.NodeID)}
	a.d.OnNavigate = func(_ *browsertest.Driver, u string) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.route(strings.TrimPrefix(u, base))
	}
	a.d.OnMouse = a.onMouse
	a.d.OnScript = a.onScript
	a.d.OnAccept = a.onAccept
	return a
}

// Events returns what the app observed, in order.
func (a *fakeApp) Events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.events)
}

func (a *fakeApp) logEvent(format string, args ...any) {
	a.events = append(a.events, fmt.Sprintf(format, args...))
}

// handler runs fn with the app locked.
func (a *fakeApp) handler(fn func()) func(*browsertest.Driver) {
	return func(*browsertest.Driver) {
		a.mu.Lock()
		defer a.mu.Unlock()
		fn()
	}
}

func (a *fakeApp) show(l locator.Locator, elems ...*browsertest.Element) {
	a.shown = append(a.shown, l.XPath())
	a.d.Set(l.XPath(), elems...)
}

func (a *fakeApp) input(l locator.Locator) *browsertest.Element {
	e := &browsertest.Element{}
	a.show(l, e)
	return e
}

func (a *fakeApp) reset() {
	for _, x := range a.shown {
		a.d.Set(x)
	}
	a.shown = nil
	a.editing = nil
	a.pressed = ""
	a.sofa, a.canvas = 0, 0
	clear(a.marked)
}

// route is client-side navigation: the URL changes and the page re-renders.
func (a *fakeApp) route(path string) {
	if path == "" {
		path = "/"
	}
	public := path == "/login" || path == "/register"
	switch {
	case !a.loggedIn && !public:
		path = "/login"
	case a.loggedIn && public:
		path = "/"
	}
	a.d.SetURL(base + path)
	a.page = path
	a.reset()
	switch {
	case path == "/login":
		a.loginPage()
	case path == "/register":
		a.registerPage()
	case path == "/new":
		a.newProjectPage()
	case strings.HasPrefix(path, "/editor/"):
		a.editorPage(strings.TrimPrefix(path, "/editor/"))
	default:
		a.dashboardPage()
	}
}

func (a *fakeApp) loginPage() {
	email := a.input(EmailInput)
	password := a.input(PasswordInput)
	a.show(SignIn, &browsertest.Element{Text: "Sign In", OnClick: a.handler(func() {
		if a.user == nil || a.user.email != email.Value || a.user.password != password.Value {
			a.logEvent("login rejected")
			return
		}
		a.loggedIn = true
		a.logEvent("login %s", a.user.email)
		a.route("/")
	})})
	a.show(CreateAccountLink, &browsertest.Element{Text: "Create Account", OnClick: a.handler(func() {
		a.route("/register")
	})})
}

func (a *fakeApp) registerPage() {
	a.show(CreateAccountHeader, &browsertest.Element{Text: "Create Account"})
	name := a.input(NameInput)
	email := a.input(EmailInput)
	password := a.input(PasswordInput)
	a.show(GetStarted, &browsertest.Element{Text: "Get Started", OnClick: a.handler(func() {
		a.user = &fakeUser{name: name.Value, email: email.Value, password: password.Value}
		a.loggedIn = true
		a.logEvent("register %s", a.user.email)
		a.route("/")
	})})
}

func (a *fakeApp) dashboardPage() {
	name := a.user.name
	a.show(Brand, &browsertest.Element{Text: "RoomCraft"})
	a.show(Welcome(name), &browsertest.Element{Text: "Welcome, " + name})
	a.show(UserMenu(name), &browsertest.Element{Text: name, OnClick: a.handler(func() {
		a.show(SignOut, &browsertest.Element{Text: "Sign Out", OnClick: a.handler(func() {
			a.loggedIn = false
			a.logEvent("logout")
			a.route("/login")
		})})
	})})
	a.show(StartNewProject, &browsertest.Element{Text: "Start New Project", OnClick: a.handler(func() {
		a.route("/new")
	})})
	if len(a.designs) == 0 {
		a.show(EmptyState, &browsertest.Element{Text: "No designs created yet"})
		return
	}
	a.show(RecentProjects, &browsertest.Element{Text: "Your Recent Projects"})
	var titles []*browsertest.Element
	for _, dsg := range a.designs {
		titles = append(titles, &browsertest.Element{Text: dsg.name})
		a.show(ProjectTitle(dsg.name), &browsertest.Element{Text: dsg.name})
		a.show(DeleteButton(dsg.name), &browsertest.Element{Text: "Delete", OnClick: a.handler(func() {
			a.confirmDelete(dsg)
		})})
		a.show(ItemCount(dsg.name), &browsertest.Element{Text: fmt.Sprintf("%d Items", len(dsg.items))})
	}
	a.show(ProjectTitles, titles...)
	first := a.designs[0]
	a.show(FirstDeleteButton(), &browsertest.Element{Text: "Delete", OnClick: a.handler(func() {
		a.confirmDelete(first)
	})})
}

func (a *fakeApp) confirmDelete(dsg *fakeDesign) {
	a.deleting = dsg
	a.d.OpenDialog("Are you sure you want to delete this project?")
}

func (a *fakeApp) onAccept(_ *browsertest.Driver, _ string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	dsg := a.deleting
	a.deleting = nil
	if dsg == nil {
		return
	}
	if a.keepDeleted {
		a.logEvent("delete ignored %s", dsg.name)
		return
	}
	a.designs = slices.DeleteFunc(a.designs, func(x *fakeDesign) bool { return x == dsg })
	a.logEvent("delete %s", dsg.name)
	if a.page == "/" {
		a.route("/")
	}
}

func (a *fakeApp) newProjectPage() {
	name := a.input(ProjectNameInput)
	a.show(CreateWorkspace, &browsertest.Element{Text: "Create Workspace", OnClick: a.handler(func() {
		a.nextID++
		dsg := &fakeDesign{id: a.nextID, name: name.Value}
		a.designs = append(a.designs, dsg)
		a.logEvent("create %s", dsg.name)
		a.route("/editor/" + strconv.Itoa(dsg.id))
	})})
}

func (a *fakeApp) editorPage(id string) {
	i := slices.IndexFunc(a.designs, func(x *fakeDesign) bool { return strconv.Itoa(x.id) == id })
	if i < 0 {
		return
	}
	dsg := a.designs[i]
	a.editing = dsg
	a.placed = slices.Clone(dsg.items)

	a.show(CatalogItem(CatalogSofa), &browsertest.Element{Text: CatalogSofa, X: sofaX, Y: sofaY})
	a.show(Canvas, &browsertest.Element{X: canvasX, Y: canvasY})
	a.sofa = a.nodeID(CatalogItem(CatalogSofa))
	a.canvas = a.nodeID(Canvas)

	a.show(SaveDesign, &browsertest.Element{Text: "Save Design", OnClick: a.handler(func() {
		dsg.items = slices.Clone(a.placed)
		a.logEvent("save %s with %d items", dsg.name, len(dsg.items))
		a.d.Set(SaveDesign.XPath())
		a.show(Saved, &browsertest.Element{Text: "Saved!"})
		page := a.page
		time.AfterFunc(saveRedirect, func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			if a.page == page {
				a.route("/")
			}
		})
	})})
}

func (a *fakeApp) nodeID(l locator.Locator) cdp.NodeID {
	nodes, err := a.d.Nodes(context.Background(), l.XPath())
	if err != nil || len(nodes) == 0 {
		return 0
	}
	return nodes[0].NodeID
}

func (a *fakeApp) place(item string) {
	a.placed = append(a.placed, item)
	a.logEvent("drop %s", item)
}

func (a *fakeApp) onMouse(_ *browsertest.Driver, ev browser.MouseEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.editing == nil {
		return
	}
	switch ev.Action {
	case browser.MousePress:
		if math.Abs(ev.X-sofaX) < 20 && math.Abs(ev.Y-sofaY) < 20 {
			a.pressed = CatalogSofa
		}
	case browser.MouseRelease:
		if a.pressed != "" && math.Abs(ev.X-canvasX) <= canvasW/2 && math.Abs(ev.Y-canvasY) <= canvasH/2 {
			a.place(a.pressed)
		}
		a.pressed = ""
	}
}

func (a *fakeApp) onScript(_ *browsertest.Driver, n *cdp.Node, script string, res any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n != nil {
		switch {
		case strings.Contains(script, `"source"`):
			a.marked["source"] = n.NodeID
		case strings.Contains(script, `"target"`):
			a.marked["target"] = n.NodeID
		}
		setBool(res, true)
		return nil
	}
	ok := a.editing != nil && a.sofa != 0 &&
		a.marked["source"] == a.sofa && a.marked["target"] == a.canvas
	clear(a.marked)
	if ok {
		a.place(CatalogSofa)
	}
	setBool(res, ok)
	return nil
}

func setBool(res any, v bool) {
	if b, ok := res.(*bool); ok {
		*b = v
	}
}
