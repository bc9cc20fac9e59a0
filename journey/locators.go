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
	"github.com/ttbt-io/roomcraft-e2e/locator"
)

// RoomCraft page elements.
var (
	CreateAccountLink   = locator.Tag("a").Exact("Create Account")
	CreateAccountHeader = locator.Tag("h2").Containing("Create Account")

	NameInput     = locator.Tag("input").Attr("placeholder", "John Doe")
	EmailInput    = locator.Tag("input").Attr("type", "email")
	PasswordInput = locator.Tag("input").Attr("type", "password")
	GetStarted    = locator.Tag("button").OwnText("Get Started")
	SignIn        = locator.Tag("button").OwnText("Sign In")
	SignOut       = locator.Tag("button").OwnText("Sign Out")

	Brand             = locator.Tag("span").Containing("RoomCraft")
	StartNewProject   = locator.Link("Start New Project")
	ProjectNameInput  = locator.Tag("input").Attr("placeholder", "e.g. Dream Living Room")
	CreateWorkspace   = locator.Button("Create Workspace")
	SaveDesign        = locator.Button("Save Design")
	Saved             = locator.Button("Saved!")
	ProjectTitles     = locator.Tag("h3").Class("font-bold")
	EmptyState        = locator.Tag("h3").Containing("No designs created yet")
	RecentProjects    = locator.Tag("h2").Containing("Your Recent Projects")
	Canvas            = locator.Tag("canvas")
	deleteFromCard    = locator.Ancestor("div").Class("bg-white").Index(1).Descendant("button").Attr("title", "Delete Project")
	itemCountFromCard = locator.Ancestor("div").Class("flex-col").Index(1).Descendant("span").Containing("Items")
)

// Welcome is the dashboard greeting for the named user.
func Welcome(name string) locator.Locator {
	return locator.Tag("h1").Containing("Welcome, " + name)
}

// UserMenu is the navbar button that carries the user's name.
func UserMenu(name string) locator.Locator {
	return locator.Tag("button").Has(locator.Descendant("span").Containing(name))
}

// ProjectTitle is the title of the project card named name.
func ProjectTitle(name string) locator.Locator {
	return locator.Tag("h3").Containing(name)
}

// DeleteButton is the delete control of the card titled name.
func DeleteButton(name string) locator.Locator {
	return locator.Within(ProjectTitle(name), deleteFromCard)
}

// FirstDeleteButton is the delete control of the first listed card.
func FirstDeleteButton() locator.Locator {
	return locator.Within(ProjectTitles, deleteFromCard)
}

// ItemCount is the "<n> Items" badge of the card titled name.
func ItemCount(name string) locator.Locator {
	return locator.Within(ProjectTitle(name), itemCountFromCard)
}

// CatalogItem is the draggable library entry labelled name.
func CatalogItem(name string) locator.Locator {
	return locator.Tag("p").OwnText(name).Ancestor("div").Attr("draggable", "true")
}
