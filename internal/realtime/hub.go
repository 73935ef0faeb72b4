package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

type Client struct {
	ID     string
	UserID uuid.UUID
	Conn   *WebSocketConn
	Send   chan []byte
}

// Hub tracks connected clients plus named room membership. Rooms are keyed
// by user, not by connection: a user joined to a room receives room emits on
// every connection they currently hold, and membership survives reconnects
// for as long as the process lives.
type Hub struct {
	clients    map[string]*Client
	rooms      map[string]map[uuid.UUID]struct{} // room -> member user ids
	userRooms  map[uuid.UUID]map[string]struct{} // user id -> joined rooms
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[uuid.UUID]struct{}),
		userRooms:  make(map[uuid.UUID]map[string]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// JoinRoom adds the user to a named room.
func (h *Hub) JoinRoom(userID uuid.UUID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[uuid.UUID]struct{})
	}
	h.rooms[room][userID] = struct{}{}
	if h.userRooms[userID] == nil {
		h.userRooms[userID] = make(map[string]struct{})
	}
	h.userRooms[userID][room] = struct{}{}
}

// LeaveRoom removes the user from a named room.
func (h *Hub) LeaveRoom(userID uuid.UUID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.userRooms[userID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(h.userRooms, userID)
		}
	}
}

// RoomsOf returns the rooms the user is currently joined to.
func (h *Hub) RoomsOf(userID uuid.UUID) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.userRooms[userID]))
	for room := range h.userRooms[userID] {
		out = append(out, room)
	}
	return out
}

// SendToUser sends a payload to every connection of one user.
func (h *Hub) SendToUser(userID uuid.UUID, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("realtime: marshal failed: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Send <- payload:
			default:
				// slow consumer, drop rather than block
			}
		}
	}
}

// EmitToRoom sends a payload to every connected member of a room.
func (h *Hub) EmitToRoom(room string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("realtime: marshal failed: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.rooms[room]
	if len(members) == 0 {
		return
	}
	for _, client := range h.clients {
		if _, ok := members[client.UserID]; !ok {
			continue
		}
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("realtime: client registered: %s (user %s)", client.ID, client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(old.Send)
				log.Printf("realtime: client unregistered: %s", client.ID)
			}
			h.mu.Unlock()
		}
	}
}
