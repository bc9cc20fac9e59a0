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

package scenario

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrAlreadySet is returned when a context slot is written twice.
	ErrAlreadySet = errors.New("context value already set")
	// ErrNotSet is returned when a context slot is read before a scenario
	// produced it.
	ErrNotSet = errors.New("context value not set")
)

// Identity is the account every scenario of a run acts as.
type Identity struct {
	Name     string
	Email    string
	Password string
}

// NewIdentity returns the run's account. The email is unique per
// millisecond so repeated runs against one server do not collide.
func NewIdentity(now time.Time) Identity {
	return Identity{
		Name:     "Selenium User",
		Email:    fmt.Sprintf("selenium_%d@test.com", now.UnixMilli()),
		Password: "password123",
	}
}

// Context is the state shared by the scenarios of one run. The identity is
// fixed; other values are written once by the scenario that creates them and
// read by later ones.
type Context struct {
	Identity Identity
	BaseURL  string

	mu     sync.Mutex
	values map[string]any
}

// NewContext returns a context for a run against baseURL.
func NewContext(baseURL string, id Identity) *Context {
	return &Context{
		Identity: id,
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		values:   make(map[string]any),
	}
}

// URL joins path onto the base URL.
func (c *Context) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// Set stores v under key. A key can only be set once.
func (c *Context) Set(key string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadySet, key)
	}
	c.values[key] = v
	return nil
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// String returns the string stored under key.
func (c *Context) String(key string) (string, error) {
	v, ok := c.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotSet, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("context value %s is %T, not a string", key, v)
	}
	return s, nil
}
