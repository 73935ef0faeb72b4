package notify

import (
	"reflect"
	"testing"

	"github.com/ustaconnect/backend/internal/models"
)

func TestRoomKey(t *testing.T) {
	cases := []struct {
		city, district, category string
		want                     string
	}{
		{"Istanbul", "Kadikoy", "plumbing", "area:istanbul:kadikoy:plumbing"},
		{"Istanbul", "", "plumbing", "area:istanbul:all:plumbing"},
		{"  Ankara ", "Cankaya", "Electrical", "area:ankara:cankaya:electrical"},
	}
	for _, c := range cases {
		if got := RoomKey(c.city, c.district, c.category); got != c.want {
			t.Errorf("RoomKey(%q, %q, %q) = %q, want %q", c.city, c.district, c.category, got, c.want)
		}
	}
}

func TestRoomsFor(t *testing.T) {
	locations := []models.ServiceLocation{
		{City: "Istanbul", District: "Kadikoy"},
		{City: "Istanbul", District: "Kadikoy"}, // duplicate
		{City: "istanbul", District: "KADIKOY"}, // duplicate by casing
		{City: "Ankara"},                        // city-wide
		{City: "", District: "Nowhere"},         // no city, skipped
	}
	got := RoomsFor(locations, "plumbing")
	want := []string{
		"area:ankara:all:plumbing",
		"area:istanbul:kadikoy:plumbing",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RoomsFor = %v, want %v", got, want)
	}
}

func TestDiffRooms(t *testing.T) {
	current := []string{"area:a:all:x", "area:b:all:x", "area:c:all:x"}
	desired := []string{"area:b:all:x", "area:d:all:x"}
	leave, join := DiffRooms(current, desired)
	if !reflect.DeepEqual(leave, []string{"area:a:all:x", "area:c:all:x"}) {
		t.Errorf("leave = %v", leave)
	}
	if !reflect.DeepEqual(join, []string{"area:d:all:x"}) {
		t.Errorf("join = %v", join)
	}

	leave, join = DiffRooms(current, current)
	if leave != nil || join != nil {
		t.Errorf("identical sets should produce no changes: leave=%v join=%v", leave, join)
	}
}

func TestIsAreaRoom(t *testing.T) {
	if !IsAreaRoom("area:istanbul:all:plumbing") {
		t.Error("area room not recognized")
	}
	if IsAreaRoom("user:123") {
		t.Error("non-area room recognized as area")
	}
}
