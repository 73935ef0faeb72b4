package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusDraft               JobStatus = "DRAFT"
	JobStatusOpen                JobStatus = "OPEN"
	JobStatusBidding             JobStatus = "BIDDING"
	JobStatusInProgress          JobStatus = "IN_PROGRESS"
	JobStatusPendingConfirmation JobStatus = "PENDING_CONFIRMATION"
	JobStatusCompleted           JobStatus = "COMPLETED"
	JobStatusCancelled           JobStatus = "CANCELLED"
)

// jobTransitions lists every allowed (from → to) pair.
//
//	DRAFT ──► OPEN ──► BIDDING ──► IN_PROGRESS ──► PENDING_CONFIRMATION ──► COMPLETED
//	  │         │          │              │
//	  └─────────┴──────────┘              └──► COMPLETED (direct confirmation)
//	        │
//	        └──► CANCELLED (from DRAFT, OPEN, BIDDING only)
//
// COMPLETED and CANCELLED are terminal.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusDraft:               {JobStatusOpen, JobStatusCancelled},
	JobStatusOpen:                {JobStatusBidding, JobStatusInProgress, JobStatusCancelled},
	JobStatusBidding:             {JobStatusInProgress, JobStatusCancelled},
	JobStatusInProgress:          {JobStatusPendingConfirmation, JobStatusCompleted},
	JobStatusPendingConfirmation: {JobStatusCompleted},
}

// ParseJobStatus converts a raw string to a JobStatus, rejecting unknown values.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case JobStatusDraft, JobStatusOpen, JobStatusBidding, JobStatusInProgress,
		JobStatusPendingConfirmation, JobStatusCompleted, JobStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// CanTransition reports whether moving from → to is permitted.
func CanTransition(from, to JobStatus) bool {
	for _, s := range jobTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsCancellable reports whether a job in this status may still be cancelled
// by its requester.
func IsCancellable(s JobStatus) bool {
	return s == JobStatusDraft || s == JobStatusOpen || s == JobStatusBidding
}

type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "LOW"
	UrgencyMedium UrgencyLevel = "MEDIUM"
	UrgencyHigh   UrgencyLevel = "HIGH"
)

// Location is embedded into JobPost (loc_ column prefix).
type Location struct {
	Address      string  `json:"address"`
	City         string  `gorm:"index" json:"city"`
	District     string  `gorm:"index" json:"district"`
	Neighborhood string  `json:"neighborhood,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type JobPost struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequesterID uuid.UUID `gorm:"type:uuid;index;not null" json:"requester_id"`

	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text;not null" json:"description"`
	Category    string   `gorm:"type:varchar(60);index;not null" json:"category"`
	Subcategory string   `gorm:"type:varchar(60)" json:"subcategory,omitempty"`
	Location    Location `gorm:"embedded;embeddedPrefix:loc_" json:"location"`

	UrgencyLevel    UrgencyLevel `gorm:"type:varchar(10);default:'MEDIUM'" json:"urgency_level"`
	EstimatedBudget *int64       `json:"estimated_budget,omitempty"`

	Status   JobStatus `gorm:"type:varchar(30);index;default:'OPEN'" json:"status"`
	BidCount int       `gorm:"default:0" json:"bid_count"`

	// Both nil until a bid is accepted, then both set together.
	AssignedProviderID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_provider_id,omitempty"`
	AcceptedBidID      *uuid.UUID `gorm:"type:uuid" json:"accepted_bid_id,omitempty"`

	ViewCount int `gorm:"default:0" json:"view_count"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	DeletedAt          *time.Time `gorm:"index" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Requester *User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Bids      []Bid `gorm:"foreignKey:JobID" json:"bids,omitempty"`
}
