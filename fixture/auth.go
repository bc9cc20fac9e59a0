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
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

type contextKey string

const userIDKey contextKey = "userID"

// DefaultCookieName is the session cookie set on login.
const DefaultCookieName = "roomcraft_auth"

const sessionTTL = 24 * time.Hour

// Auth issues and verifies session tokens. Tokens are ES256 JWTs whose
// public key is published as a JWKS.
type Auth struct {
	cookieName string
	kid        string
	key        *ecdsa.PrivateKey
	keys       jwk.Set
	debug      bool
}

// NewAuth generates a fresh signing key.
func NewAuth(cookieName string, debug bool) (*Auth, error) {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("ecdsa.GenerateKey: %w", err)
	}
	kid := uuid.NewString()
	pub, err := jwk.Import(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("jwk.Import: %w", err)
	}
	if err := pub.Set(jwk.KeyIDKey, kid); err != nil {
		return nil, err
	}
	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		return nil, err
	}
	return &Auth{cookieName: cookieName, kid: kid, key: key, keys: set, debug: debug}, nil
}

// Issue sets a session cookie for email.
func (a *Auth) Issue(w http.ResponseWriter, email string) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"email": normalizeEmail(email),
		"iat":   now.Unix(),
		"exp":   now.Add(sessionTTL).Unix(),
	})
	token.Header["kid"] = a.kid
	signed, err := token.SignedString(a.key)
	if err != nil {
		return fmt.Errorf("SignedString: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(sessionTTL),
	})
	return nil
}

// Clear expires the session cookie.
func (a *Auth) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:    a.cookieName,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
}

// ServeJWKS publishes the verification key set.
func (a *Auth) ServeJWKS(w http.ResponseWriter, r *http.Request) {
	buf, err := json.Marshal(a.keys)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf)
}

func (a *Auth) keyfunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token missing 'kid' header")
	}
	key, ok := a.keys.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("failed to materialize key: %w", err)
	}
	return raw, nil
}

// Middleware resolves the session cookie into a user ID. Requests without
// a valid token proceed anonymously.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(a.cookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, err := jwt.Parse(cookie.Value, a.keyfunc, jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			if a.debug {
				log.Printf("JWT Validation failed: %v", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if email, ok := claims["email"].(string); ok && email != "" {
				ctx := context.WithValue(r.Context(), userIDKey, normalizeEmail(email))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func getUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
