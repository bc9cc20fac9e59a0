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

package fixture

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/google/uuid"
)

// ErrExists is returned when registering an email that is already taken.
var ErrExists = errors.New("already exists")

// User is a registered account.
type User struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash []byte `json:"passwordHash"`
	CreatedAt    int64  `json:"createdAt"`
}

// Item is a piece of furniture placed on a design's canvas.
type Item struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Design is a saved room layout.
type Design struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Name      string `json:"name"`
	Items     []Item `json:"items"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Store persists users and designs as data files.
type Store struct {
	DataDir string
	storage *storage.Storage
	mu      sync.Map // file name -> *sync.RWMutex
}

// NewStore returns a store rooted at dataDir.
func NewStore(dataDir string, s *storage.Storage) *Store {
	return &Store{DataDir: dataDir, storage: s}
}

func (s *Store) lock(name string) *sync.RWMutex {
	m, _ := s.mu.LoadOrStore(name, &sync.RWMutex{})
	return m.(*sync.RWMutex)
}

func userFile(email string) string {
	return filepath.Join("users", url.PathEscape(normalizeEmail(email))+".json")
}

func designFile(id string) string {
	return filepath.Join("designs", url.PathEscape(id)+".json")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser saves u unless its email is already registered.
func (s *Store) CreateUser(u *User) error {
	u.Email = normalizeEmail(u.Email)
	name := userFile(u.Email)
	mutex := s.lock(name)
	mutex.Lock()
	defer mutex.Unlock()

	if _, err := os.Stat(filepath.Join(s.DataDir, name)); err == nil {
		return fmt.Errorf("user %s: %w", u.Email, ErrExists)
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().UnixNano()
	}
	if err := s.storage.SaveDataFile(name, u); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	return nil
}

// User loads the account registered under email.
func (s *Store) User(email string) (*User, error) {
	name := userFile(email)
	mutex := s.lock(name)
	mutex.RLock()
	defer mutex.RUnlock()

	var u User
	if err := s.storage.ReadDataFile(name, &u); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	return &u, nil
}

// CreateDesign stores a new, empty design owned by owner.
func (s *Store) CreateDesign(owner, name string) (*Design, error) {
	now := time.Now().UnixNano()
	d := &Design{
		ID:        uuid.NewString(),
		OwnerID:   normalizeEmail(owner),
		Name:      name,
		Items:     []Item{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.SaveDesign(d); err != nil {
		return nil, err
	}
	return d, nil
}

// SaveDesign writes d, replacing any previous version.
func (s *Store) SaveDesign(d *Design) error {
	name := designFile(d.ID)
	mutex := s.lock(name)
	mutex.Lock()
	defer mutex.Unlock()

	if d.Items == nil {
		d.Items = []Item{}
	}
	if err := s.storage.SaveDataFile(name, d); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	return nil
}

// Design loads one design.
func (s *Store) Design(id string) (*Design, error) {
	name := designFile(id)
	mutex := s.lock(name)
	mutex.RLock()
	defer mutex.RUnlock()

	var d Design
	if err := s.storage.ReadDataFile(name, &d); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	return &d, nil
}

// DeleteDesign removes a design. Deleting a missing design is not an error.
func (s *Store) DeleteDesign(id string) error {
	name := designFile(id)
	mutex := s.lock(name)
	mutex.Lock()
	defer mutex.Unlock()

	if err := os.Remove(filepath.Join(s.DataDir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete design file: %w", err)
	}
	return nil
}

// Designs lists the designs owned by owner, most recently updated first.
func (s *Store) Designs(owner string) ([]*Design, error) {
	owner = normalizeEmail(owner)
	files, err := os.ReadDir(filepath.Join(s.DataDir, "designs"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read designs directory: %w", err)
	}
	var out []*Design
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(f.Name(), ".json"))
		if err != nil {
			continue
		}
		d, err := s.Design(id)
		if errors.Is(err, os.ErrNotExist) {
			// Deleted while listing.
			continue
		}
		if err != nil {
			return nil, err
		}
		if d.OwnerID == owner {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b *Design) int {
		switch {
		case a.UpdatedAt > b.UpdatedAt:
			return -1
		case a.UpdatedAt < b.UpdatedAt:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}
