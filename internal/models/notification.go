package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification is the durable record written on fan-out so users who were
// offline still see the event on next login.
type Notification struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`

	Event string         `gorm:"type:varchar(60);not null" json:"event"` // e.g. "bid_received"
	Title string         `gorm:"not null" json:"title"`
	Body  string         `gorm:"type:text" json:"body"`
	Data  datatypes.JSON `json:"data,omitempty"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
