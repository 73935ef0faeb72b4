package notify

import (
	"sort"
	"strings"

	"github.com/ustaconnect/backend/internal/models"
)

const areaRoomPrefix = "area:"

// RoomKey builds the room name for one area/category combination:
// "area:{city}:{district|all}:{category}". An empty district means the
// city-wide room. Components are lowercased so that room membership does
// not depend on input casing.
func RoomKey(city, district, category string) string {
	if district == "" {
		district = "all"
	}
	return areaRoomPrefix + norm(city) + ":" + norm(district) + ":" + norm(category)
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RoomsFor is the derived projection of a provider's declared service
// locations and category onto room names: one room per location, district
// room when a district is declared, city-wide room otherwise.
func RoomsFor(locations []models.ServiceLocation, category string) []string {
	seen := make(map[string]struct{}, len(locations))
	var out []string
	for _, loc := range locations {
		if loc.City == "" {
			continue
		}
		key := RoomKey(loc.City, loc.District, category)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// DiffRooms compares current vs desired membership and returns the rooms to
// leave and join. Rooms present in both sets are untouched.
func DiffRooms(current, desired []string) (leave, join []string) {
	cur := make(map[string]struct{}, len(current))
	for _, r := range current {
		cur[r] = struct{}{}
	}
	des := make(map[string]struct{}, len(desired))
	for _, r := range desired {
		des[r] = struct{}{}
	}
	for _, r := range current {
		if _, keep := des[r]; !keep {
			leave = append(leave, r)
		}
	}
	for _, r := range desired {
		if _, have := cur[r]; !have {
			join = append(join, r)
		}
	}
	sort.Strings(leave)
	sort.Strings(join)
	return leave, join
}

// IsAreaRoom reports whether a room name belongs to the area namespace.
func IsAreaRoom(room string) bool {
	return strings.HasPrefix(room, areaRoomPrefix)
}
