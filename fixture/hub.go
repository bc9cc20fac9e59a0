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
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
)

// MsgTypeDesigns tells a dashboard to reload its design listing.
const MsgTypeDesigns = "designs"

// Message is sent to websocket clients.
type Message struct {
	Type string `json:"type"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

type broadcast struct {
	userID string
	msg    Message
}

// Hub fans change notifications out to the connected clients of a user.
type Hub struct {
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan broadcast
	done       chan struct{}

	clients map[string]map[*wsClient]bool
}

// NewHub starts a hub. Close stops it.
func NewHub() *Hub {
	h := &Hub{
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan broadcast, 64),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*wsClient]bool),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*wsClient]bool)
			}
			h.clients[c.userID][c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c.userID][c]; ok {
				delete(h.clients[c.userID], c)
				close(c.send)
				if len(h.clients[c.userID]) == 0 {
					delete(h.clients, c.userID)
				}
			}
		case b := <-h.broadcast:
			for c := range h.clients[b.userID] {
				select {
				case c.send <- b.msg:
				default:
					delete(h.clients[b.userID], c)
					close(c.send)
				}
			}
		case <-h.done:
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = nil
			return
		}
	}
}

// Notify queues msg for every client of userID. It never blocks.
func (h *Hub) Notify(userID string, msg Message) {
	select {
	case h.broadcast <- broadcast{userID: userID, msg: msg}:
	case <-h.done:
	default:
		log.Printf("Warning: Hub channel full, dropping %s notification", msg.Type)
	}
}

// Close stops the hub and closes every client.
func (h *Hub) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

type wsClient struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	userID string
}

// readPump only services control frames; clients have nothing to say.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades an authenticated request and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	c := &wsClient{hub: h, conn: conn, send: make(chan Message, 16), userID: userID}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}
