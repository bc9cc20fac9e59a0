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

// Package locator builds XPath element locators and resolves them against a
// browser.Driver.
//
// A Locator is a value. Every builder method returns a new Locator and leaves
// the receiver untouched, so partial locators can be shared freely:
//
//	card := locator.Tag("h3").Containing(name)
//	del := locator.Within(card, locator.Ancestor("div").Class("bg-white").Index(1).
//		Descendant("button").Attr("title", "Delete Project"))
package locator

import (
	"strconv"
	"strings"
)

// Locator is an immutable XPath expression. Absolute locators start from the
// document; relative ones (from Ancestor, Descendant or Child) are only
// meaningful as the second argument of Within.
type Locator struct {
	xpath    string
	relative bool
	// dotted is set when xpath already starts at the context node.
	dotted bool
}

// XPath is a raw expression, used as is.
func XPath(expr string) Locator {
	return Locator{xpath: expr}
}

// Tag matches every element with the given tag name anywhere in the document.
// "*" matches any element.
func Tag(tag string) Locator {
	return Locator{xpath: "//" + tag}
}

// Link matches anchors whose rendered text contains text.
func Link(text string) Locator {
	return Tag("a").Containing(text)
}

// Button matches buttons whose rendered text contains text.
func Button(text string) Locator {
	return Tag("button").Containing(text)
}

// Ancestor starts a relative locator on the ancestor axis.
func Ancestor(tag string) Locator {
	return Locator{xpath: "/ancestor::" + tag, relative: true}
}

// Descendant starts a relative locator on the descendant axis.
func Descendant(tag string) Locator {
	return Locator{xpath: "//" + tag, relative: true}
}

// Within anchors rel on the first element matched by anchor. The anchor is
// bound before rel is evaluated, so repeated fragments elsewhere on the page
// cannot leak into the result. A relative anchor is evaluated from the
// context node, which makes the result usable with Has.
func Within(anchor, rel Locator) Locator {
	return Locator{
		xpath:    "(" + anchor.fromContext() + ")[1]" + rel.xpath,
		relative: anchor.relative,
		dotted:   anchor.relative,
	}
}

// fromContext renders a relative locator as a path from the context node.
func (l Locator) fromContext() string {
	if l.relative && !l.dotted {
		return "." + l.xpath
	}
	return l.xpath
}

func (l Locator) with(xpath string) Locator {
	return Locator{xpath: xpath, relative: l.relative, dotted: l.dotted}
}

func (l Locator) pred(p string) Locator {
	return l.with(l.xpath + "[" + p + "]")
}

// Attr keeps matches whose attribute name equals value exactly.
func (l Locator) Attr(name, value string) Locator {
	return l.pred("@" + name + "=" + Quote(value))
}

// Class keeps matches whose class attribute contains class as a substring.
func (l Locator) Class(class string) Locator {
	return l.pred("contains(@class," + Quote(class) + ")")
}

// Containing keeps matches whose full rendered text contains text.
func (l Locator) Containing(text string) Locator {
	return l.pred("contains(.," + Quote(text) + ")")
}

// OwnText keeps matches with a direct text node containing text.
func (l Locator) OwnText(text string) Locator {
	return l.pred("contains(text()," + Quote(text) + ")")
}

// Exact keeps matches whose whitespace-normalized text equals text.
func (l Locator) Exact(text string) Locator {
	return l.pred("normalize-space(.)=" + Quote(text))
}

// Index keeps the i-th match (1-based) along the last step's axis. On the
// ancestor axis, Index(1) is the nearest ancestor.
func (l Locator) Index(i int) Locator {
	return l.pred(strconv.Itoa(i))
}

// Has keeps matches that contain an element matched by the relative locator
// rel.
func (l Locator) Has(rel Locator) Locator {
	if !rel.relative {
		return l.pred("." + rel.xpath)
	}
	return l.pred(rel.fromContext())
}

// Ancestor continues on the ancestor axis.
func (l Locator) Ancestor(tag string) Locator {
	return l.with(l.xpath + "/ancestor::" + tag)
}

// Descendant continues on the descendant axis.
func (l Locator) Descendant(tag string) Locator {
	return l.with(l.xpath + "//" + tag)
}

// Child continues on the child axis.
func (l Locator) Child(tag string) Locator {
	return l.with(l.xpath + "/" + tag)
}

// XPath renders the locator.
func (l Locator) XPath() string {
	return l.xpath
}

func (l Locator) String() string {
	return l.xpath
}

// Quote renders s as an XPath string literal. XPath 1.0 has no escapes, so a
// string holding both quote kinds is built with concat().
func Quote(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + p + "'")
	}
	b.WriteString(")")
	return b.String()
}
