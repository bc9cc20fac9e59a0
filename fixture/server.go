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

// Package fixture serves a small RoomCraft look-alike: accounts, a design
// dashboard, and an editor with a drag-and-drop canvas. The journey runs
// against it when the real application is not available.
package fixture

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/c2FmZQ/storage"
)

//go:embed static
var staticFiles embed.FS

// Options configures the fixture application.
type Options struct {
	// Addr is used when Listener is nil.
	Addr     string
	Listener net.Listener
	// Cert enables TLS.
	Cert *tls.Certificate

	DataDir string
	Storage *storage.Storage

	CookieName string
	Debug      bool
}

// App is the fixture's HTTP handler and the state behind it.
type App struct {
	opts    Options
	store   *Store
	auth    *Auth
	hub     *Hub
	handler http.Handler
}

// New builds the application. Close releases its hub.
func New(opts Options) (*App, error) {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	for _, dir := range []string{"users", "designs"} {
		if err := os.MkdirAll(filepath.Join(opts.DataDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	if opts.Storage == nil {
		opts.Storage = storage.New(opts.DataDir, nil)
	}
	auth, err := NewAuth(opts.CookieName, opts.Debug)
	if err != nil {
		return nil, err
	}
	a := &App{
		opts:  opts,
		store: NewStore(opts.DataDir, opts.Storage),
		auth:  auth,
		hub:   NewHub(),
	}
	a.handler = a.routes()
	return a, nil
}

// Store returns the application's store.
func (a *App) Store() *Store {
	return a.store
}

// Hub returns the change notification hub.
func (a *App) Hub() *Hub {
	return a.hub
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Close stops the hub.
func (a *App) Close() {
	a.hub.Close()
}

func (a *App) debugf(format string, args ...any) {
	if a.opts.Debug {
		log.Printf("[DEBUG FIXTURE] "+format, args...)
	}
}

func (a *App) routes() http.Handler {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	index, err := fs.ReadFile(static, "index.html")
	if err != nil {
		panic(err)
	}
	shell := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(index)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", shell)
	mux.HandleFunc("GET /login", shell)
	mux.HandleFunc("GET /register", shell)
	mux.HandleFunc("GET /new", shell)
	mux.HandleFunc("GET /editor/{id}", shell)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.HandleFunc("GET /.well-known/jwks.json", a.auth.ServeJWKS)
	mux.HandleFunc("POST /api/register", a.handleRegister)
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("POST /api/logout", a.handleLogout)
	mux.HandleFunc("GET /api/me", a.handleMe)
	mux.HandleFunc("GET /api/designs", a.requireUser(a.handleListDesigns))
	mux.HandleFunc("POST /api/designs", a.requireUser(a.handleCreateDesign))
	mux.HandleFunc("GET /api/designs/{id}", a.requireUser(a.handleGetDesign))
	mux.HandleFunc("PUT /api/designs/{id}", a.requireUser(a.handleUpdateDesign))
	mux.HandleFunc("DELETE /api/designs/{id}", a.requireUser(a.handleDeleteDesign))
	mux.HandleFunc("GET /ws", a.hub.ServeWS)

	var h http.Handler = mux
	h = contentTypeMiddleware(h)
	h = cacheControlMiddleware(h)
	h = securityMiddleware(h)
	h = a.auth.Middleware(h)
	if a.opts.Debug {
		h = loggingMiddleware(h)
	}
	return h
}

// Server is a running fixture.
type Server struct {
	httpServer *http.Server
	app        *App
	listener   net.Listener
	tls        bool
}

// Start serves the fixture in the background.
func Start(opts Options) (*Server, error) {
	app, err := New(opts)
	if err != nil {
		return nil, err
	}
	ln := opts.Listener
	if ln == nil {
		if ln, err = net.Listen("tcp", opts.Addr); err != nil {
			app.Close()
			return nil, err
		}
	}
	httpServer := &http.Server{Handler: app}
	if opts.Cert != nil {
		httpServer.TLSConfig = &tls.Config{Certificates: []tls.Certificate{*opts.Cert}}
	}

	s := &Server{httpServer: httpServer, app: app, listener: ln, tls: opts.Cert != nil}
	go func() {
		var err error
		if s.tls {
			log.Printf("Starting HTTPS fixture on %s...", ln.Addr())
			err = httpServer.ServeTLS(ln, "", "")
		} else {
			log.Printf("Starting HTTP fixture on %s...", ln.Addr())
			err = httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, net.ErrClosed) && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()
	return s, nil
}

// URL is the base URL the fixture is reachable at.
func (s *Server) URL() string {
	scheme := "http"
	if s.tls {
		scheme = "https"
	}
	addr := s.listener.Addr().String()
	if host, port, err := net.SplitHostPort(addr); err == nil && (host == "::" || host == "0.0.0.0" || host == "") {
		addr = net.JoinHostPort("localhost", port)
	}
	return scheme + "://" + addr
}

// App returns the served application.
func (s *Server) App() *App {
	return s.app
}

// Shutdown stops accepting requests and closes the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Close()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}

// cacheControlMiddleware keeps API responses out of caches.
func cacheControlMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "private, no-cache, no-transform")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		next.ServeHTTP(w, r)
	})
}

// securityMiddleware adds HTTP security headers to responses.
func securityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: blob:")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// contentTypeMiddleware ensures that files are served with the correct MIME type.
func contentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch filepath.Ext(r.URL.Path) {
		case ".js":
			w.Header().Set("Content-Type", "application/javascript")
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".json":
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs the method and URL path of every incoming HTTP request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Received request: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
