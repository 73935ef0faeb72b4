package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ustaconnect/backend/internal/models"
	"github.com/ustaconnect/backend/internal/push"
	"github.com/ustaconnect/backend/internal/store"
)

// RoomTransport is the slice of the realtime hub the router needs.
type RoomTransport interface {
	SendToUser(userID uuid.UUID, data interface{})
	EmitToRoom(room string, data interface{})
	JoinRoom(userID uuid.UUID, room string)
	LeaveRoom(userID uuid.UUID, room string)
	RoomsOf(userID uuid.UUID) []string
}

// Router is the Notifier implementation: durable records via the store,
// realtime via the hub, push via the sender.
type Router struct {
	hub   RoomTransport
	push  push.Sender
	store store.Store
}

func NewRouter(hub RoomTransport, sender push.Sender, st store.Store) *Router {
	return &Router{hub: hub, push: sender, store: st}
}

var _ Notifier = (*Router)(nil)

func (r *Router) NotifyUser(ctx context.Context, userID uuid.UUID, event, title, body string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("notify: payload marshal failed for %s: %v", event, err)
		raw = nil
	}

	// Durable record first, so an offline user still sees the event.
	n := &models.Notification{
		UserID: userID,
		Event:  event,
		Title:  title,
		Body:   body,
		Data:   datatypes.JSON(raw),
	}
	if err := r.store.Notifications().Create(ctx, n); err != nil {
		log.Printf("notify: durable record failed for user %s event %s: %v", userID, event, err)
	}

	r.hub.SendToUser(userID, map[string]interface{}{
		"type": event,
		"data": data,
	})

	r.sendPush(ctx, userID, title, body, event)
}

func (r *Router) NotifyArea(_ context.Context, city, district, category, event string, data interface{}) {
	room := RoomKey(city, district, category)
	r.hub.EmitToRoom(room, map[string]interface{}{
		"type": event,
		"data": data,
	})
	// Jobs in a district also belong to the city-wide room.
	if district != "" {
		r.hub.EmitToRoom(RoomKey(city, "", category), map[string]interface{}{
			"type": event,
			"data": data,
		})
	}
}

// SyncProviderRooms recomputes the provider's area-room membership from the
// current profile and applies only the difference.
func (r *Router) SyncProviderRooms(userID uuid.UUID, locations []models.ServiceLocation, category string) {
	var current []string
	for _, room := range r.hub.RoomsOf(userID) {
		if IsAreaRoom(room) {
			current = append(current, room)
		}
	}
	leave, join := DiffRooms(current, RoomsFor(locations, category))
	for _, room := range leave {
		r.hub.LeaveRoom(userID, room)
	}
	for _, room := range join {
		r.hub.JoinRoom(userID, room)
	}
	if len(leave) > 0 || len(join) > 0 {
		log.Printf("notify: rooms resynced for %s (left %d, joined %d)", userID, len(leave), len(join))
	}
}

func (r *Router) sendPush(ctx context.Context, userID uuid.UUID, title, body, event string) {
	if r.push == nil {
		return
	}
	profile, err := r.store.Providers().GetByUserID(ctx, userID)
	if err != nil || profile.PushToken == "" {
		return
	}
	if err := r.push.Send(ctx, profile.PushToken, title, body, map[string]string{"event": event}); err != nil {
		log.Printf("notify: push failed for user %s: %v", userID, err)
	}
}
