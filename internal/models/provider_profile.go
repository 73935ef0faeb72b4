package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ServiceLocation is one area a provider declares to work in. District is
// optional; an empty district means the whole city.
type ServiceLocation struct {
	City     string `json:"city"`
	District string `json:"district,omitempty"`
}

type ProviderProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	// Service category, e.g. "electrical", "plumbing". One per provider;
	// area rooms are always qualified by it.
	Category string `gorm:"type:varchar(60);index" json:"category"`

	ServiceLocations datatypes.JSONSlice[ServiceLocation] `json:"service_locations"`

	// Push destination token; empty means no push delivery.
	PushToken string `gorm:"type:text" json:"-"`

	About string `gorm:"type:text" json:"about"`

	// Aggregates maintained by the job lifecycle (reviews, confirmations).
	AverageRating float64 `gorm:"default:0" json:"average_rating"`
	ReviewCount   int     `gorm:"default:0" json:"review_count"`
	CompletedJobs int     `gorm:"default:0" json:"completed_jobs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
