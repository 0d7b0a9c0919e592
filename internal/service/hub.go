package service

import (
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/vaibhavisno-one/Chat-App/internal/model"

	"github.com/gofiber/contrib/websocket"
	"github.com/samber/lo"
)

// Client is the per-connection state: identity (empty for anonymous
// connections), the current team room, and the outbound frame queue.
type Client struct {
	Conn   *websocket.Conn
	ID     string
	UserID string
	Send   chan []byte

	room string // current team room, guarded by the hub's mutex
}

// Hub tracks live connections, the userID→connection presence map and team
// room membership, and routes persisted messages to the connections entitled
// to see them. One hub per process; it is the single owner of this state.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	byUser  map[string]*Client // one active connection per user, last connect wins
	rooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]*Client),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Shutdown() {
	close(h.done)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	identified := client.UserID != ""
	if identified {
		// A fresh connection for the same user replaces the old mapping;
		// the stale connection stays open but no longer counts as online.
		h.byUser[client.UserID] = client
	}
	h.mu.Unlock()

	log.Printf("[WS] connection %s registered (user=%q, total=%d)", client.ID, client.UserID, h.ConnectionCount())
	if identified {
		h.broadcastOnlineUsers()
	}
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)

	wasOnline := false
	if client.UserID != "" && h.byUser[client.UserID] == client {
		delete(h.byUser, client.UserID)
		wasOnline = true
	}
	if client.room != "" {
		h.removeFromRoom(client, client.room)
	}
	close(client.Send)
	h.mu.Unlock()

	log.Printf("[WS] connection %s unregistered (user=%q)", client.ID, client.UserID)
	if wasOnline {
		h.broadcastOnlineUsers()
	}
}

// JoinRoom places the connection in a team room, leaving its previous room
// first. A connection is in at most one team room at a time.
func (h *Hub) JoinRoom(client *Client, teamID string) {
	h.mu.Lock()
	if client.room != "" && client.room != teamID {
		h.removeFromRoom(client, client.room)
		log.Printf("[WS] connection %s left room %s", client.ID, client.room)
	}
	room, ok := h.rooms[teamID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[teamID] = room
	}
	room[client] = true
	client.room = teamID
	h.mu.Unlock()

	log.Printf("[WS] connection %s joined room %s", client.ID, teamID)
}

// LeaveRoom removes the connection from the named room and clears its current
// room if it matches.
func (h *Hub) LeaveRoom(client *Client, teamID string) {
	h.mu.Lock()
	h.removeFromRoom(client, teamID)
	if client.room == teamID {
		client.room = ""
	}
	h.mu.Unlock()

	log.Printf("[WS] connection %s left room %s", client.ID, teamID)
}

// removeFromRoom must be called with h.mu held.
func (h *Hub) removeFromRoom(client *Client, teamID string) {
	if room, ok := h.rooms[teamID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, teamID)
		}
	}
}

// OnlineUserIDs returns the ids of users with a live connection, sorted for
// stable payloads.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	ids := lo.Keys(h.byUser)
	h.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DeliverDirect pushes a message to the receiver's live connection, if any.
// Offline receivers catch up through the history endpoints.
func (h *Hub) DeliverDirect(userID string, msg *model.Message) {
	data, err := marshalEvent(model.EventNewMessage, msg)
	if err != nil {
		return
	}

	// The lock is held across the send: unregister closes the Send channel
	// under the write lock, so releasing early would race the close.
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client := h.byUser[userID]; client != nil {
		trySend(client, data)
	}
}

// BroadcastTeam pushes a message to every connection currently in the team's
// room, the sender's included.
func (h *Hub) BroadcastTeam(teamID string, msg *model.Message) {
	data, err := marshalEvent(model.EventNewMessage, msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[teamID] {
		trySend(client, data)
	}
}

// broadcastOnlineUsers tells every connection, anonymous ones included, who is
// currently online.
func (h *Hub) broadcastOnlineUsers() {
	data, err := marshalEvent(model.EventOnlineUsers, h.OnlineUserIDs())
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		trySend(client, data)
	}
}

func marshalEvent(eventType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(model.WSEvent{Type: eventType, Data: raw})
}

// trySend never blocks; a connection that cannot keep up drops frames and
// reconciles via the history endpoints.
func trySend(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
	}
}
