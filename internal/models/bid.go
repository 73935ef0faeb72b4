package models

import (
	"time"

	"github.com/google/uuid"
)

type BidStatus string

const (
	BidStatusPending   BidStatus = "PENDING"
	BidStatusAccepted  BidStatus = "ACCEPTED"
	BidStatusRejected  BidStatus = "REJECTED"
	BidStatusWithdrawn BidStatus = "WITHDRAWN"
)

// IsTerminalBidStatus reports whether a bid can no longer change state.
// ACCEPTED counts as non-terminal for the one-active-bid-per-job rule but
// terminal for transitions; here "terminal" means no further transitions.
func IsTerminalBidStatus(s BidStatus) bool {
	return s != BidStatusPending
}

// IsActiveBidStatus reports whether a bid still blocks the same provider
// from bidding again on the job.
func IsActiveBidStatus(s BidStatus) bool {
	return s == BidStatusPending || s == BidStatusAccepted
}

type Bid struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID      uuid.UUID `gorm:"type:uuid;index;not null" json:"job_id"`
	ProviderID uuid.UUID `gorm:"type:uuid;index;not null" json:"provider_id"`

	Amount            int64      `gorm:"not null" json:"amount"`
	EstimatedDuration int        `gorm:"not null" json:"estimated_duration"` // hours
	EstimatedStartAt  *time.Time `json:"estimated_start_at,omitempty"`
	Message           string     `gorm:"type:text;not null" json:"message"`

	Status     BidStatus  `gorm:"type:varchar(20);index;default:'PENDING'" json:"status"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Job      *JobPost `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Provider *User    `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}
