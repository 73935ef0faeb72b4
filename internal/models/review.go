package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID       uuid.UUID `gorm:"type:uuid;index;unique" json:"job_id"`
	RequesterID uuid.UUID `gorm:"type:uuid;index" json:"requester_id"`
	ProviderID  uuid.UUID `gorm:"type:uuid;index" json:"provider_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Job       *JobPost `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Requester *User    `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Provider  *User    `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
