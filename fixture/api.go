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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxBodySize       = 64 * 1024
	minPasswordLength = 6
	maxNameLength     = 200
	maxItems          = 500
)

type profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type designRequest struct {
	Name  *string `json:"name"`
	Items []Item  `json:"items"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: %v", err)
	}
}

func (a *App) requireUser(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if getUserID(r) == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !decodeJSON(w, r, &c) {
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if err := validateName(c.Name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !isValidEmail(c.Email) {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}
	if len(c.Password) < minPasswordLength {
		http.Error(w, fmt.Sprintf("Password must be at least %d characters", minPasswordLength), http.StatusBadRequest)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.MinCost)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	u := &User{Email: c.Email, Name: c.Name, PasswordHash: hash}
	if err := a.store.CreateUser(u); err != nil {
		if errors.Is(err, ErrExists) {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		log.Printf("CreateUser: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := a.auth.Issue(w, u.Email); err != nil {
		log.Printf("Issue: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.debugf("registered %s", u.Email)
	writeJSON(w, http.StatusCreated, profile{Email: u.Email, Name: u.Name})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !decodeJSON(w, r, &c) {
		return
	}
	u, err := a.store.User(c.Email)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("User: %v", err)
		}
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(c.Password)) != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err := a.auth.Issue(w, u.Email); err != nil {
		log.Printf("Issue: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profile{Email: u.Email, Name: u.Name})
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.auth.Clear(w)
	w.WriteHeader(http.StatusOK)
}

// handleMe returns the signed-in profile, or null.
func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	if userID == "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null\n"))
		return
	}
	u, err := a.store.User(userID)
	if err != nil {
		// Valid token for an account that no longer exists.
		a.auth.Clear(w)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null\n"))
		return
	}
	writeJSON(w, http.StatusOK, profile{Email: u.Email, Name: u.Name})
}

func (a *App) handleListDesigns(w http.ResponseWriter, r *http.Request) {
	designs, err := a.store.Designs(getUserID(r))
	if err != nil {
		log.Printf("Designs: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if designs == nil {
		designs = []*Design{}
	}
	writeJSON(w, http.StatusOK, designs)
}

func (a *App) handleCreateDesign(w http.ResponseWriter, r *http.Request) {
	var req designRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil {
		http.Error(w, "Design name required", http.StatusBadRequest)
		return
	}
	if err := validateName(*req.Name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID := getUserID(r)
	d, err := a.store.CreateDesign(userID, strings.TrimSpace(*req.Name))
	if err != nil {
		log.Printf("CreateDesign: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.hub.Notify(userID, Message{Type: MsgTypeDesigns})
	writeJSON(w, http.StatusCreated, d)
}

// ownedDesign loads the design in the request path if the caller owns it.
// Designs owned by someone else are reported as missing.
func (a *App) ownedDesign(w http.ResponseWriter, r *http.Request) (*Design, bool) {
	id := r.PathValue("id")
	if !isValidUUID(id) {
		http.Error(w, "Invalid design id", http.StatusBadRequest)
		return nil, false
	}
	d, err := a.store.Design(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "Not Found", http.StatusNotFound)
		} else {
			log.Printf("Design: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return nil, false
	}
	if d.OwnerID != getUserID(r) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return nil, false
	}
	return d, true
}

func (a *App) handleGetDesign(w http.ResponseWriter, r *http.Request) {
	if d, ok := a.ownedDesign(w, r); ok {
		writeJSON(w, http.StatusOK, d)
	}
}

func (a *App) handleUpdateDesign(w http.ResponseWriter, r *http.Request) {
	d, ok := a.ownedDesign(w, r)
	if !ok {
		return
	}
	var req designRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.Items != nil {
		if err := validateItems(req.Items); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.Items = req.Items
	}
	d.UpdatedAt = time.Now().UnixNano()
	if err := a.store.SaveDesign(d); err != nil {
		log.Printf("SaveDesign: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.hub.Notify(d.OwnerID, Message{Type: MsgTypeDesigns})
	writeJSON(w, http.StatusOK, d)
}

func (a *App) handleDeleteDesign(w http.ResponseWriter, r *http.Request) {
	d, ok := a.ownedDesign(w, r)
	if !ok {
		return
	}
	if err := a.store.DeleteDesign(d.ID); err != nil {
		log.Printf("DeleteDesign: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.hub.Notify(d.OwnerID, Message{Type: MsgTypeDesigns})
	w.WriteHeader(http.StatusNoContent)
}
