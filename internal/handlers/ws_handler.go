package handlers

import (
	"context"
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/notify"
	"github.com/ustaconnect/backend/internal/realtime"
	"github.com/ustaconnect/backend/internal/store"
)

type WSHandler struct {
	Hub    *realtime.Hub
	Store  store.Store
	Router *notify.Router
}

func NewWSHandler(hub *realtime.Hub, st store.Store, router *notify.Router) *WSHandler {
	return &WSHandler{Hub: hub, Store: st, Router: router}
}

// Handle attaches one websocket connection to the hub. Providers are
// rejoined to the area rooms implied by their stored profile, so room
// membership survives process restarts.
func (h *WSHandler) Handle(c *websocket.Conn) {
	userID := c.Query("user_id")
	if userID == "" {
		log.Println("websocket: user_id parameter missing")
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		log.Printf("websocket: invalid user_id %q: %v", userID, err)
		c.Close()
		return
	}

	if profile, err := h.Store.Providers().GetByUserID(context.Background(), userUUID); err == nil {
		h.Router.SyncProviderRooms(userUUID, profile.ServiceLocations, profile.Category)
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   realtime.NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("websocket: user %s disconnected", userID)
	}()

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("websocket write error: %v", err)
				return
			}
		}
	}()

	// Read loop keeps the connection alive; clients only ever send pongs.
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}
		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
