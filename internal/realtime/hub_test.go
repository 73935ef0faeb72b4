package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func addClient(h *Hub, id string, userID uuid.UUID, buffer int) *Client {
	c := &Client{ID: id, UserID: userID, Send: make(chan []byte, buffer)}
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	return c
}

func recv(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestSendToUserReachesAllConnections(t *testing.T) {
	h := NewHub()
	user := uuid.New()
	other := uuid.New()

	c1 := addClient(h, "conn-1", user, 1)
	c2 := addClient(h, "conn-2", user, 1)
	c3 := addClient(h, "conn-3", other, 1)

	h.SendToUser(user, map[string]string{"type": "ping"})

	recv(t, c1.Send)
	recv(t, c2.Send)
	select {
	case <-c3.Send:
		t.Error("other user's connection received the message")
	default:
	}
}

func TestSendToUserDropsOnFullBuffer(t *testing.T) {
	h := NewHub()
	user := uuid.New()
	c := addClient(h, "conn-1", user, 1)

	// second send hits a full buffer and must not block
	h.SendToUser(user, "one")
	done := make(chan struct{})
	go func() {
		h.SendToUser(user, "two")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendToUser blocked on a slow consumer")
	}
	if len(c.Send) != 1 {
		t.Errorf("buffered messages = %d, want 1", len(c.Send))
	}
}

func TestEmitToRoomOnlyMembers(t *testing.T) {
	h := NewHub()
	member := uuid.New()
	outsider := uuid.New()

	cm := addClient(h, "conn-m", member, 1)
	co := addClient(h, "conn-o", outsider, 1)

	h.JoinRoom(member, "area:istanbul:all:plumbing")
	h.EmitToRoom("area:istanbul:all:plumbing", map[string]string{"type": "job_posted"})

	recv(t, cm.Send)
	select {
	case <-co.Send:
		t.Error("non-member received the room emit")
	default:
	}
}

func TestRoomMembershipSurvivesReconnect(t *testing.T) {
	h := NewHub()
	user := uuid.New()
	room := "area:ankara:all:electrical"

	h.JoinRoom(user, room)

	// connection comes and goes; membership is keyed by user
	h.mu.Lock()
	delete(h.clients, "conn-1")
	h.mu.Unlock()

	c := addClient(h, "conn-2", user, 1)
	h.EmitToRoom(room, "hello")
	recv(t, c.Send)

	rooms := h.RoomsOf(user)
	if len(rooms) != 1 || rooms[0] != room {
		t.Errorf("RoomsOf = %v, want [%s]", rooms, room)
	}
}

func TestLeaveRoomCleansUp(t *testing.T) {
	h := NewHub()
	user := uuid.New()
	room := "area:izmir:all:painting"

	h.JoinRoom(user, room)
	h.LeaveRoom(user, room)

	if rooms := h.RoomsOf(user); len(rooms) != 0 {
		t.Errorf("RoomsOf after leave = %v", rooms)
	}

	c := addClient(h, "conn-1", user, 1)
	h.EmitToRoom(room, "hello")
	select {
	case <-c.Send:
		t.Error("received emit after leaving the room")
	default:
	}
}
